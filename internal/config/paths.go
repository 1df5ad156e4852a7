package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all resolved application paths
// This is the single source of truth for file locations used by a run
type Paths struct {
	BaseDir          string
	SymbolsFile      string
	RawDataDir       string
	ProcessedDataDir string
	LogsDir          string
}

// Resolve turns the configured locations into absolute paths.
// An empty BaseDir means the current working directory.
func (p PathsConfig) Resolve() (*Paths, error) {
	base := p.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	join := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(base, path)
	}

	return &Paths{
		BaseDir:          base,
		SymbolsFile:      join(p.SymbolsFile),
		RawDataDir:       join(p.RawDataDir),
		ProcessedDataDir: join(p.ProcessedDataDir),
		LogsDir:          join(p.LogsDir),
	}, nil
}

// EnsureDirectories creates the output directories if they don't exist.
// Input locations are never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.ProcessedDataDir, p.LogsDir}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetRawPath returns the location of a raw file named in the symbol list
func (p *Paths) GetRawPath(rawFile string) string {
	if filepath.IsAbs(rawFile) {
		return rawFile
	}
	return filepath.Join(p.RawDataDir, rawFile)
}

// GetProcessedPath returns the location of a processed output file
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDataDir, filename)
}

// GetLogPath returns the location of a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
