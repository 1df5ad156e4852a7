// Package validation checks raw input locations before they are parsed.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// RawExtensions lists the raw file extensions the loader understands
var RawExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}

// FileValidator checks input locations before they are read
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks that dir exists and is a directory, and
// returns how many raw files it holds. No raw files is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist", slog.String("directory", dir))
		return 0, fmt.Errorf("input directory %s does not exist: %w", dir, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory", slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	count, err := v.CountRawFiles(dir)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		v.logger.Warn("No raw files found", slog.String("directory", dir))
	}
	return count, nil
}

// ValidateRawFile checks that path is an existing, readable file with a supported extension.
// Errors for missing files wrap os.ErrNotExist.
func (v *FileValidator) ValidateRawFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("raw file %s does not exist: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to stat raw file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a raw file", path)
	}
	if !IsRawFile(path) {
		return fmt.Errorf("raw file %s has unsupported extension %q (want one of %s)",
			path, filepath.Ext(path), strings.Join(RawExtensions, ", "))
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("raw file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Raw file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountRawFiles counts regular files with a raw extension directly inside dir
func (v *FileValidator) CountRawFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && IsRawFile(e.Name()) {
			count++
		}
	}
	return count, nil
}

// IsRawFile reports whether name has a raw extension and is not an Excel lock file
func IsRawFile(name string) bool {
	if strings.HasPrefix(filepath.Base(name), "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range RawExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
