package operations

import (
	"context"
	"log/slog"
	"time"
)

// logBatchStart logs the start of a batch
func (m *Manager) logBatchStart(ctx context.Context, instruments int) {
	m.logger.InfoContext(ctx, "Batch started",
		slog.Int("instruments", instruments),
		slog.String("mode", string(m.options.Mode())),
		slog.Int("parallelism", m.options.limit()),
		slog.Bool("fail_fast", m.options.FailFast))
}

// logBatchComplete logs the outcome of a batch
func (m *Manager) logBatchComplete(ctx context.Context, batch *BatchResult) {
	level := slog.LevelInfo
	if batch.Failed() > 0 || batch.Skipped() > 0 {
		level = slog.LevelWarn
	}
	m.logger.Log(ctx, level, "Batch complete",
		slog.Int("succeeded", batch.Succeeded()),
		slog.Int("failed", batch.Failed()),
		slog.Int("skipped", batch.Skipped()),
		slog.Duration("duration", batch.FinishedAt.Sub(batch.StartedAt)))
}

// logInstrumentError logs a failed instrument
func (m *Manager) logInstrumentError(ctx context.Context, err *OperationError, duration time.Duration) {
	m.logger.ErrorContext(ctx, "Instrument failed",
		slog.String("step", err.Step),
		slog.String("error_type", string(err.Type)),
		slog.String("error", err.Message),
		slog.Duration("duration", duration))
}

// logStepStart logs the start of a step
func (m *Manager) logStepStart(ctx context.Context, stepID string) {
	m.logger.DebugContext(ctx, "Step started", slog.String("step", stepID))
}

// logStepComplete logs the completion of a step
func (m *Manager) logStepComplete(ctx context.Context, stepID, message string, duration time.Duration) {
	m.logger.DebugContext(ctx, "Step complete",
		slog.String("step", stepID),
		slog.String("detail", message),
		slog.Duration("duration", duration))
}
