package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cfdprep/internal/config"
)

// InstrumentSummary is the outcome of one instrument in a batch
type InstrumentSummary struct {
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	File        string `json:"file,omitempty"`
	FirstDate   string `json:"first_date,omitempty"`
	LastDate    string `json:"last_date,omitempty"`
	Days        int    `json:"days"`
	Rows        int    `json:"rows"`
	Observed    int    `json:"observed"`
	Filled      int    `json:"filled"`
	LeadingGaps int    `json:"leading_gaps"`
	DurationMS  int64  `json:"duration_ms"`
	ErrorType   string `json:"error_type,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchSummary describes a complete preprocessing run
type BatchSummary struct {
	RunID       string              `json:"run_id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	Skipped     int                 `json:"skipped"`
	Instruments []InstrumentSummary `json:"instruments"`
}

var summaryHeaders = []string{
	"Symbol", "Status", "File", "FirstDate", "LastDate", "Days", "Rows",
	"Observed", "Filled", "LeadingGaps", "DurationMS", "ErrorType", "Error",
}

// SummaryWriter writes batch summaries as CSV or JSON
type SummaryWriter struct {
	csvWriter *CSVWriter
}

// NewSummaryWriter creates a summary writer; relative paths land in the processed directory
func NewSummaryWriter(paths *config.Paths) *SummaryWriter {
	return &SummaryWriter{csvWriter: NewCSVWriter(paths)}
}

// Write picks the format from the file extension (.json, anything else is CSV)
func (w *SummaryWriter) Write(filePath string, summary *BatchSummary) error {
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		return w.WriteJSON(filePath, summary)
	}
	return w.WriteCSV(filePath, summary)
}

// WriteCSV writes one row per instrument
func (w *SummaryWriter) WriteCSV(filePath string, summary *BatchSummary) error {
	records := make([][]string, 0, len(summary.Instruments))
	for _, s := range summary.Instruments {
		records = append(records, []string{
			s.Symbol,
			s.Status,
			s.File,
			s.FirstDate,
			s.LastDate,
			formatInt(s.Days),
			formatInt(s.Rows),
			formatInt(s.Observed),
			formatInt(s.Filled),
			formatInt(s.LeadingGaps),
			fmt.Sprintf("%d", s.DurationMS),
			s.ErrorType,
			s.Error,
		})
	}
	return w.csvWriter.WriteSimpleCSV(filePath, summaryHeaders, records)
}

// WriteJSON writes the whole summary as indented JSON
func (w *SummaryWriter) WriteJSON(filePath string, summary *BatchSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	fullPath := w.csvWriter.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
