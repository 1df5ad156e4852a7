package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cfdprep/pkg/contracts/domain"
)

// GapFiller builds the canonical minute grid for every day present in the raw
// data and forward-fills minutes without an observation
type GapFiller struct {
	logger *slog.Logger
}

// NewGapFiller creates a new gap filler
func NewGapFiller(logger *slog.Logger) *GapFiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &GapFiller{
		logger: logger.With(slog.String("component", "gap_filler")),
	}
}

// Fill returns the processed series for records. The input slice is not modified.
//
// A minute whose CloseBid is unset takes the last set CloseBid/CloseAsk pair seen
// earlier in the whole series, across day boundaries, as flat open/high/low/close.
// Minutes before the first observation stay unset.
func (g *GapFiller) Fill(symbol string, window domain.TradingWindow, records []domain.RawRecord) (*domain.ProcessedSeries, error) {
	if len(records) == 0 {
		return nil, &EmptyDatasetError{Symbol: symbol}
	}

	sorted := make([]domain.RawRecord, len(records))
	for i, r := range records {
		r.Time = StripZone(r.Time)
		sorted[i] = r
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	// Later duplicates overwrite earlier ones
	observed := make(map[int64]domain.Prices, len(sorted))
	var days []time.Time
	for _, r := range sorted {
		observed[r.Time.UnixNano()] = r.Prices
		day := dayOf(r.Time)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}

	series := &domain.ProcessedSeries{
		Symbol:  symbol,
		Window:  window,
		Records: make([]domain.ProcessedRecord, 0, len(days)*window.MinutesPerDay()),
		Stats: domain.FillStats{
			Days:       len(days),
			RawRecords: len(records),
		},
	}

	var carryBid, carryAsk decimal.NullDecimal
	for _, day := range days {
		for _, ts := range window.Grid(day) {
			row := domain.ProcessedRecord{
				Date: ts.Format(domain.DateLayout),
				TOD:  ts.Format(domain.ClockLayout),
			}
			if p, ok := observed[ts.UnixNano()]; ok {
				row.Prices = p
				series.Stats.Observed++
			}

			if !row.CloseBid.Valid {
				if carryBid.Valid {
					row.Prices = domain.Flat(carryBid, carryAsk)
					row.Filled = true
					series.Stats.Filled++
				} else {
					series.Stats.LeadingGaps++
				}
			}
			if row.CloseBid.Valid {
				carryBid, carryAsk = row.CloseBid, row.CloseAsk
			}
			series.Records = append(series.Records, row)
		}
	}

	series.Stats.GridRows = len(series.Records)
	if n := len(series.Records); n > 0 {
		series.FirstDate = series.Records[0].Date
		series.LastDate = series.Records[n-1].Date
	}

	g.logger.Info("Minute grid filled",
		slog.String("symbol", symbol),
		slog.String("window", window.String()),
		slog.Int("days", series.Stats.Days),
		slog.Int("grid_rows", series.Stats.GridRows),
		slog.Int("observed", series.Stats.Observed),
		slog.Int("filled", series.Stats.Filled),
		slog.Int("leading_gaps", series.Stats.LeadingGaps))

	return series, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
