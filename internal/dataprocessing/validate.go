package dataprocessing

import (
	"log/slog"

	"cfdprep/pkg/contracts/domain"
)

// WindowValidator checks raw records against an instrument's trading window
type WindowValidator struct {
	logger *slog.Logger
}

// NewWindowValidator creates a new window validator
func NewWindowValidator(logger *slog.Logger) *WindowValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowValidator{
		logger: logger.With(slog.String("component", "window_validator")),
	}
}

// Validate returns a *ValidationError naming the first record, in input order,
// whose time of day lies outside window. Records are not modified.
func (v *WindowValidator) Validate(symbol string, window domain.TradingWindow, records []domain.RawRecord) error {
	first := -1
	count := 0
	for i := range records {
		if window.Contains(records[i].Time) {
			continue
		}
		if first < 0 {
			first = i
		}
		count++
	}

	if first < 0 {
		v.logger.Debug("Raw data within trading window",
			slog.String("symbol", symbol),
			slog.String("window", window.String()),
			slog.Int("records", len(records)))
		return nil
	}

	err := &ValidationError{
		Symbol:    symbol,
		Window:    window,
		Offending: records[first].Time,
		Count:     count,
	}
	v.logger.Error("Raw data outside trading window",
		slog.String("symbol", symbol),
		slog.String("window", window.String()),
		slog.Time("first_offending", records[first].Time),
		slog.Int("offending_count", count))
	return err
}

// Validate checks records with a validator using the default logger
func Validate(symbol string, window domain.TradingWindow, records []domain.RawRecord) error {
	return NewWindowValidator(nil).Validate(symbol, window, records)
}
