package operations

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressPrinter writes the human readable per-instrument progress lines.
// Lines from concurrent instruments never interleave within a line.
type ProgressPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewProgressPrinter creates a printer; a nil writer discards output
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	if w == nil {
		w = io.Discard
	}
	return &ProgressPrinter{w: w}
}

// Processing announces that an instrument has started
func (p *ProgressPrinter) Processing(symbol string) {
	p.printf("Processing %s...\n", symbol)
}

// Saved reports a written output file
func (p *ProgressPrinter) Saved(rows int, fileName string) {
	p.printf("Saved %d rows to %s\n", rows, fileName)
}

// Failed reports an instrument failure
func (p *ProgressPrinter) Failed(symbol string, err error) {
	p.printf("Failed %s: %v\n", symbol, err)
}

// Finished prints the batch totals
func (p *ProgressPrinter) Finished(b *BatchResult) {
	p.printf("Done: %d succeeded, %d failed, %d skipped in %s\n",
		b.Succeeded(), b.Failed(), b.Skipped(), b.FinishedAt.Sub(b.StartedAt).Round(time.Millisecond))
}

func (p *ProgressPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}
