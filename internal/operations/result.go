package operations

import (
	"time"

	"cfdprep/internal/exporter"
	"cfdprep/pkg/contracts/domain"
)

// Result is the outcome of one instrument
type Result struct {
	Symbol    string
	Status    StepStatus
	Steps     []*StepState
	FileName  string
	Path      string
	Rows      int
	FirstDate string
	LastDate  string
	Stats     domain.FillStats
	Err       *OperationError
	Duration  time.Duration
}

func newResult(symbol string) *Result {
	steps := make([]*StepState, len(StepOrder))
	for i, s := range StepOrder {
		steps[i] = NewStepState(s.ID, s.Name)
	}
	return &Result{Symbol: symbol, Status: StepStatusPending, Steps: steps}
}

// Step returns the state of the step with the given ID
func (r *Result) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// skipRemaining marks every step that has not run as skipped
func (r *Result) skipRemaining(reason string) {
	for _, s := range r.Steps {
		if s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

// BatchResult collects the results of one run, in symbol list order
type BatchResult struct {
	RunID      string
	Mode       ExecutionMode
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*Result
}

// Succeeded counts completed instruments
func (b *BatchResult) Succeeded() int {
	return b.count(StepStatusCompleted)
}

// Failed counts failed instruments
func (b *BatchResult) Failed() int {
	return b.count(StepStatusFailed)
}

// Skipped counts instruments that never started
func (b *BatchResult) Skipped() int {
	return b.count(StepStatusSkipped)
}

func (b *BatchResult) count(status StepStatus) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Err returns an *ErrorList of every failed or skipped instrument, or nil
func (b *BatchResult) Err() error {
	list := &ErrorList{}
	for _, r := range b.Results {
		list.Add(r.Err)
	}
	if !list.HasErrors() {
		return nil
	}
	return list
}

// Summary converts the batch into its persisted form
func (b *BatchResult) Summary() *exporter.BatchSummary {
	summary := &exporter.BatchSummary{
		RunID:       b.RunID,
		StartedAt:   b.StartedAt,
		FinishedAt:  b.FinishedAt,
		Succeeded:   b.Succeeded(),
		Failed:      b.Failed(),
		Skipped:     b.Skipped(),
		Instruments: make([]exporter.InstrumentSummary, 0, len(b.Results)),
	}

	for _, r := range b.Results {
		s := exporter.InstrumentSummary{
			Symbol:      r.Symbol,
			Status:      string(r.Status),
			File:        r.FileName,
			FirstDate:   r.FirstDate,
			LastDate:    r.LastDate,
			Days:        r.Stats.Days,
			Rows:        r.Rows,
			Observed:    r.Stats.Observed,
			Filled:      r.Stats.Filled,
			LeadingGaps: r.Stats.LeadingGaps,
			DurationMS:  r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			s.ErrorType = string(r.Err.Type)
			s.Error = r.Err.Error()
		}
		summary.Instruments = append(summary.Instruments, s)
	}
	return summary
}
