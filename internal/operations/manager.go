package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"cfdprep/internal/config"
	"cfdprep/internal/dataprocessing"
	"cfdprep/internal/exporter"
	"cfdprep/internal/infrastructure"
	"cfdprep/internal/validation"
	"cfdprep/pkg/contracts/domain"
)

// Loader reads the raw records of one instrument
type Loader func(path string) ([]domain.RawRecord, error)

// ValidatedLoader checks the raw file with v before handing it to the raw parser
func ValidatedLoader(v *validation.FileValidator) Loader {
	return func(path string) ([]domain.RawRecord, error) {
		if err := v.ValidateRawFile(path); err != nil {
			return nil, err
		}
		return dataprocessing.LoadRaw(path)
	}
}

// RecordProcessor validates and gap-fills raw records
type RecordProcessor interface {
	Validate(symbol string, window domain.TradingWindow, records []domain.RawRecord) error
	Fill(symbol string, window domain.TradingWindow, records []domain.RawRecord) (*domain.ProcessedSeries, error)
}

// SeriesExporter persists a processed series
type SeriesExporter interface {
	Export(series *domain.ProcessedSeries) (*exporter.ExportResult, error)
}

// Dependencies are the collaborators of a Manager. Only Paths is required.
type Dependencies struct {
	Paths     *config.Paths
	Loader    Loader
	Processor RecordProcessor
	Exporter  SeriesExporter
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Metrics   *infrastructure.PreprocessMetrics
	// Progress receives the human readable progress lines
	Progress io.Writer
}

// Manager runs the load, validate, fill and export steps for each instrument.
// Instruments share nothing but the logger and telemetry instruments.
type Manager struct {
	paths     *config.Paths
	loader    Loader
	processor RecordProcessor
	exporter  SeriesExporter
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.PreprocessMetrics
	progress  *ProgressPrinter
	options   Options
}

// NewManager creates a manager, filling unset dependencies with the defaults
func NewManager(deps Dependencies, options Options) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if deps.Loader == nil {
		deps.Loader = ValidatedLoader(validation.NewFileValidator(logger))
	}
	if deps.Processor == nil {
		deps.Processor = dataprocessing.NewPreprocessor(logger)
	}
	if deps.Exporter == nil {
		deps.Exporter = exporter.NewProcessedExporter(deps.Paths, logger)
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer(TracerName)
	}

	return &Manager{
		paths:     deps.Paths,
		loader:    deps.Loader,
		processor: deps.Processor,
		exporter:  deps.Exporter,
		logger:    infrastructure.WithComponent(logger, "operations"),
		tracer:    deps.Tracer,
		metrics:   deps.Metrics,
		progress:  NewProgressPrinter(deps.Progress),
		options:   options,
	}
}

// Run processes every symbol and returns one result per symbol in input order.
// A failed instrument never affects the others unless FailFast is set, in which
// case instruments not yet started are skipped. The returned error is only set
// for a batch that could not start.
func (m *Manager) Run(ctx context.Context, symbols []config.SymbolConfig) (*BatchResult, error) {
	if m.paths == nil {
		return nil, fmt.Errorf("operations manager requires resolved paths")
	}

	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	batch := &BatchResult{
		RunID:     runID,
		Mode:      m.options.Mode(),
		StartedAt: time.Now(),
		Results:   make([]*Result, len(symbols)),
	}
	for i, sym := range symbols {
		batch.Results[i] = newResult(sym.Symbol)
	}

	ctx, span := m.traceBatch(ctx, runID, len(symbols))
	m.logBatchStart(ctx, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.options.limit())

	for i, sym := range symbols {
		result := batch.Results[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				m.skipInstrument(gctx, result, err)
				return nil
			}
			m.processInstrument(gctx, sym, result)
			if result.Err != nil && m.options.FailFast {
				return result.Err
			}
			return nil
		})
	}
	groupErr := g.Wait()

	batch.FinishedAt = time.Now()
	m.logBatchComplete(ctx, batch)
	m.progress.Finished(batch)

	if groupErr == nil {
		groupErr = batch.Err()
	}
	endSpan(span, groupErr)

	return batch, nil
}

// processInstrument runs every step of one instrument, recording into result
func (m *Manager) processInstrument(ctx context.Context, sym config.SymbolConfig, result *Result) {
	start := time.Now()
	ctx = infrastructure.WithSymbol(ctx, sym.Symbol)
	ctx, span := m.traceInstrument(ctx, sym)

	m.metrics.TrackActive(ctx, 1)
	defer m.metrics.TrackActive(ctx, -1)

	result.Status = StepStatusActive
	m.progress.Processing(sym.Symbol)
	m.logger.InfoContext(ctx, "Instrument started", slog.String("raw_file", sym.RawFile))

	opErr := m.executeSteps(ctx, sym, result)

	result.Duration = time.Since(start)
	errType := ""
	if opErr != nil {
		result.Err = opErr
		result.Status = StepStatusFailed
		result.skipRemaining("previous step failed")
		errType = string(opErr.Type)

		m.progress.Failed(sym.Symbol, opErr.Cause)
		m.logInstrumentError(ctx, opErr, result.Duration)
	} else {
		result.Status = StepStatusCompleted
		m.metrics.RecordRows(ctx, sym.Symbol, result.Stats.RawRecords, result.Rows, result.Stats.Filled)
		m.logger.InfoContext(ctx, "Instrument completed",
			slog.String("file", result.FileName),
			slog.Int("rows", result.Rows),
			slog.Int("filled", result.Stats.Filled),
			slog.Duration("duration", result.Duration))
	}

	m.metrics.RecordInstrument(ctx, sym.Symbol, string(result.Status), errType, result.Duration)
	endSpan(span, opErr)
}

// executeSteps runs load, validate, fill and export in order, stopping at the first failure
func (m *Manager) executeSteps(ctx context.Context, sym config.SymbolConfig, result *Result) *OperationError {
	window, err := sym.Window()
	if err != nil {
		return NewConfigError(sym.Symbol, err)
	}

	var records []domain.RawRecord
	var series *domain.ProcessedSeries

	steps := []struct {
		id  string
		run func() (string, error)
	}{
		{StepIDLoad, func() (string, error) {
			records, err = m.loader(m.paths.GetRawPath(sym.RawFile))
			return fmt.Sprintf("%d raw records", len(records)), err
		}},
		{StepIDValidate, func() (string, error) {
			return window.String(), m.processor.Validate(sym.Symbol, window, records)
		}},
		{StepIDFill, func() (string, error) {
			series, err = m.processor.Fill(sym.Symbol, window, records)
			if err != nil {
				return "", err
			}
			result.Stats = series.Stats
			result.FirstDate = series.FirstDate
			result.LastDate = series.LastDate
			return fmt.Sprintf("%d rows, %d filled", len(series.Records), series.Stats.Filled), nil
		}},
		{StepIDExport, func() (string, error) {
			written, err := m.exporter.Export(series)
			if err != nil {
				return "", err
			}
			result.FileName = written.FileName
			result.Path = written.Path
			result.Rows = written.Rows
			m.progress.Saved(written.Rows, written.FileName)
			return written.FileName, nil
		}},
	}

	for _, step := range steps {
		if err := m.runStep(ctx, result.Step(step.id), step.run); err != nil {
			return NewStepError(sym.Symbol, step.id, err)
		}
	}
	return nil
}

// runStep wraps one step with state tracking, a span, logging and metrics
func (m *Manager) runStep(ctx context.Context, state *StepState, run func() (string, error)) error {
	ctx, span := m.traceStep(ctx, state.ID)
	state.Start()
	m.logStepStart(ctx, state.ID)

	message, err := run()
	if err != nil {
		state.Fail(err)
	} else {
		state.Complete(message)
	}

	m.metrics.RecordStep(ctx, state.ID, state.Duration(), err == nil)
	if err == nil {
		m.logStepComplete(ctx, state.ID, message, state.Duration())
	}
	endSpan(span, err)
	return err
}

// skipInstrument records an instrument that was never started
func (m *Manager) skipInstrument(ctx context.Context, result *Result, cause error) {
	result.Status = StepStatusSkipped
	result.Err = NewCancellationError(result.Symbol, cause)
	result.skipRemaining("batch stopped")

	m.metrics.RecordInstrument(ctx, result.Symbol, string(result.Status), string(result.Err.Type), 0)
	m.logger.WarnContext(ctx, "Instrument skipped",
		slog.String("symbol", result.Symbol),
		slog.String("reason", cause.Error()))
}
