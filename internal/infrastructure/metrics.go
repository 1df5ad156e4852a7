package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PreprocessMetrics holds the instruments recorded by a preprocessing run
type PreprocessMetrics struct {
	InstrumentsTotal   metric.Int64Counter
	InstrumentDuration metric.Float64Histogram
	StepDuration       metric.Float64Histogram
	ActiveInstruments  metric.Int64UpDownCounter
	RawRecords         metric.Int64Counter
	RowsWritten        metric.Int64Counter
	RowsFilled         metric.Int64Counter
	Errors             metric.Int64Counter
}

// CreatePreprocessMetrics creates the preprocessing instruments on meter
func CreatePreprocessMetrics(meter metric.Meter) (*PreprocessMetrics, error) {
	instrumentsTotal, err := meter.Int64Counter(
		"preprocess_instruments",
		metric.WithDescription("Instruments processed, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	instrumentDuration, err := meter.Float64Histogram(
		"preprocess_instrument_duration",
		metric.WithDescription("Time to load, validate, fill and export one instrument"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"preprocess_step_duration",
		metric.WithDescription("Duration of a single instrument step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"preprocess_active_instruments",
		metric.WithDescription("Instruments currently being processed"),
	)
	if err != nil {
		return nil, err
	}

	rawRecords, err := meter.Int64Counter(
		"preprocess_raw_records",
		metric.WithDescription("Raw records read"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"preprocess_rows_written",
		metric.WithDescription("Processed rows written"),
	)
	if err != nil {
		return nil, err
	}

	rowsFilled, err := meter.Int64Counter(
		"preprocess_rows_filled",
		metric.WithDescription("Grid rows filled from the last known close"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"preprocess_errors",
		metric.WithDescription("Instrument failures, by error type"),
	)
	if err != nil {
		return nil, err
	}

	return &PreprocessMetrics{
		InstrumentsTotal:   instrumentsTotal,
		InstrumentDuration: instrumentDuration,
		StepDuration:       stepDuration,
		ActiveInstruments:  active,
		RawRecords:         rawRecords,
		RowsWritten:        rowsWritten,
		RowsFilled:         rowsFilled,
		Errors:             errorsTotal,
	}, nil
}

// RecordInstrument records the outcome of one instrument.
// errorType is empty on success.
func (m *PreprocessMetrics) RecordInstrument(ctx context.Context, symbol, status, errorType string, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("symbol", symbol),
		attribute.String("status", status),
	}
	m.InstrumentsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.InstrumentDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if errorType != "" {
		m.Errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.String("error_type", errorType)))
	}
}

// RecordStep records the duration of one instrument step
func (m *PreprocessMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status)))
}

// RecordRows records the data volume handled for one instrument
func (m *PreprocessMetrics) RecordRows(ctx context.Context, symbol string, raw, written, filled int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("symbol", symbol))
	m.RawRecords.Add(ctx, int64(raw), attrs)
	m.RowsWritten.Add(ctx, int64(written), attrs)
	m.RowsFilled.Add(ctx, int64(filled), attrs)
}

// TrackActive adjusts the active instrument gauge
func (m *PreprocessMetrics) TrackActive(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.ActiveInstruments.Add(ctx, delta)
}
