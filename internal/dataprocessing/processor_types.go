package dataprocessing

import (
	"log/slog"

	"cfdprep/pkg/contracts/domain"
)

// Processor turns the raw records of one instrument into a processed series
type Processor interface {
	Process(symbol string, window domain.TradingWindow, records []domain.RawRecord) (*domain.ProcessedSeries, error)
}

// Preprocessor validates raw records against the trading window and then gap-fills them
type Preprocessor struct {
	validator *WindowValidator
	filler    *GapFiller
}

// NewPreprocessor creates a preprocessor sharing one logger between its stages
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	return &Preprocessor{
		validator: NewWindowValidator(logger),
		filler:    NewGapFiller(logger),
	}
}

// Validate checks records against the trading window
func (p *Preprocessor) Validate(symbol string, window domain.TradingWindow, records []domain.RawRecord) error {
	return p.validator.Validate(symbol, window, records)
}

// Fill gap-fills records that already passed validation
func (p *Preprocessor) Fill(symbol string, window domain.TradingWindow, records []domain.RawRecord) (*domain.ProcessedSeries, error) {
	return p.filler.Fill(symbol, window, records)
}

// Process validates then fills. A validation failure aborts before any filling.
func (p *Preprocessor) Process(symbol string, window domain.TradingWindow, records []domain.RawRecord) (*domain.ProcessedSeries, error) {
	if err := p.Validate(symbol, window, records); err != nil {
		return nil, err
	}
	return p.Fill(symbol, window, records)
}

var _ Processor = (*Preprocessor)(nil)
