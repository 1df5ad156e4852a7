package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cfdprep/internal/config"
)

// TracerName identifies spans started by this package
const TracerName = "cfdprep.operations"

// traceBatch creates a span for the entire batch
func (m *Manager) traceBatch(ctx context.Context, runID string, symbols int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "preprocess.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("batch.instruments", symbols),
			attribute.Int("batch.parallelism", m.options.limit()),
			attribute.Bool("batch.fail_fast", m.options.FailFast),
		),
	)
}

// traceInstrument creates a span for one instrument
func (m *Manager) traceInstrument(ctx context.Context, sym config.SymbolConfig) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, fmt.Sprintf("preprocess.instrument.%s", sym.Symbol),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("instrument.symbol", sym.Symbol),
			attribute.String("instrument.raw_file", sym.RawFile),
			attribute.String("instrument.window", sym.DataStartTime+"-"+sym.DataEndTime),
		),
	)
}

// traceStep creates a span for one step of an instrument
func (m *Manager) traceStep(ctx context.Context, stepID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, fmt.Sprintf("preprocess.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("step.id", stepID)),
	)
}

// endSpan closes span, marking it failed when err is set
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
