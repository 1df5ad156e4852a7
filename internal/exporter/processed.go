package exporter

import (
	"fmt"
	"log/slog"

	"cfdprep/internal/config"
	"cfdprep/pkg/contracts/domain"
)

// ProcessedHeaders is the header row of every processed file
var ProcessedHeaders = append([]string{"Date", "TOD"}, domain.PriceColumns...)

// ProcessedFileName returns {symbol}-M1-{first}-{last}-processed.csv with compact dates
func ProcessedFileName(symbol, firstDate, lastDate string) string {
	return fmt.Sprintf("%s-M1-%s-%s-processed.csv", symbol, firstDate, lastDate)
}

// ExportResult describes one written processed file
type ExportResult struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
}

// ProcessedExporter persists processed series as CSV
type ProcessedExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewProcessedExporter creates a new processed series exporter
func NewProcessedExporter(paths *config.Paths, logger *slog.Logger) *ProcessedExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessedExporter{
		csvWriter: NewCSVWriter(paths),
		logger:    logger.With(slog.String("component", "processed_exporter")),
	}
}

// Export writes series to the processed data directory under its canonical name
func (e *ProcessedExporter) Export(series *domain.ProcessedSeries) (*ExportResult, error) {
	if series == nil || len(series.Records) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}

	name := ProcessedFileName(series.Symbol, series.FirstDateCompact(), series.LastDateCompact())
	stream, err := e.csvWriter.CreateStreamWriter(name, ProcessedHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}

	for i := range series.Records {
		if err := stream.WriteRecord(RecordToRow(series.Records[i])); err != nil {
			stream.Abort()
			return nil, fmt.Errorf("failed to write row %d of %s: %w", i, name, err)
		}
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish %s: %w", name, err)
	}

	e.logger.Info("Processed file written",
		slog.String("symbol", series.Symbol),
		slog.String("file", name),
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()))

	return &ExportResult{FileName: name, Path: stream.Path(), Rows: stream.Rows()}, nil
}

// RecordToRow converts a processed record to its CSV row
func RecordToRow(rec domain.ProcessedRecord) []string {
	row := make([]string, 0, len(ProcessedHeaders))
	row = append(row, rec.Date, rec.TOD)
	for _, v := range rec.Fields() {
		row = append(row, formatPrice(v))
	}
	return row
}
