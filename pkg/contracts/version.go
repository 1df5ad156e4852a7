package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version of the cfdprep binary
	Version = "0.1.0"

	// DataFormatVersion identifies the processed CSV layout. Bump it whenever
	// the header, the file name pattern or the price rendering changes.
	DataFormatVersion = "m1-v1"
)

// Set with -ldflags "-X cfdprep/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running build
type VersionInfo struct {
	Version    string `json:"version"`
	DataFormat string `json:"data_format"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// GetVersionInfo reports the build. When the commit was not injected at link
// time it falls back to the VCS revision recorded by the go tool, if any.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:    Version,
		DataFormat: DataFormatVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == "unknown":
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "unknown":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// GetVersionString returns "cfdprep v<version>"
func GetVersionString() string {
	return "cfdprep v" + Version
}

// GetFullVersionString is what -version prints
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (format %s, commit %s, built %s, %s %s)",
		GetVersionString(), info.DataFormat, info.GitCommit, info.BuildTime, info.GoVersion, info.Platform)
}
