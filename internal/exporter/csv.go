package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cfdprep/internal/config"
)

// partialSuffix marks a file that is still being written
const partialSuffix = ".part"

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options, replacing any existing file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	stream, err := w.createStream(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// WriteSimpleCSV writes a simple CSV file with headers and records
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: headers,
		Records: records,
	})
}

// StreamWriter provides streaming CSV writing for large datasets.
// Rows go to a temporary file that replaces the target on Close, so readers
// never observe a half-written output.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	target string
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.createStream(filePath, headers, false)
}

func (w *CSVWriter) createStream(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	slog.Debug("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath + partialSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s := &StreamWriter{
		file:   file,
		writer: csv.NewWriter(file),
		target: fullPath,
	}

	if bom {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of data records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Path returns the final location of the file
func (s *StreamWriter) Path() string {
	return s.target
}

// Close flushes the stream and moves it into place
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return err
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return err
	}
	if err := os.Rename(s.file.Name(), s.target); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(s.target), err)
	}
	return nil
}

// Abort discards the partially written file
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}

// resolvePath resolves a relative path against the processed data directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetProcessedPath(filePath)
}
