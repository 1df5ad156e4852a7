package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date and time-of-day layouts used in processed output
const (
	DateLayout        = "2006-01-02"
	CompactDateLayout = "20060102"
)

// PriceColumns lists the eight price fields in output order
var PriceColumns = []string{
	"OpenBid", "OpenAsk", "HighBid", "HighAsk", "LowBid", "LowAsk", "CloseBid", "CloseAsk",
}

// Prices holds the bid/ask OHLC fields of one minute. A field that is not
// Valid is unset (no observation and nothing to carry forward).
type Prices struct {
	OpenBid  decimal.NullDecimal `json:"open_bid"`
	OpenAsk  decimal.NullDecimal `json:"open_ask"`
	HighBid  decimal.NullDecimal `json:"high_bid"`
	HighAsk  decimal.NullDecimal `json:"high_ask"`
	LowBid   decimal.NullDecimal `json:"low_bid"`
	LowAsk   decimal.NullDecimal `json:"low_ask"`
	CloseBid decimal.NullDecimal `json:"close_bid"`
	CloseAsk decimal.NullDecimal `json:"close_ask"`
}

// Flat returns prices with open, high, low and close all set to the given bid and ask
func Flat(bid, ask decimal.NullDecimal) Prices {
	return Prices{
		OpenBid: bid, HighBid: bid, LowBid: bid, CloseBid: bid,
		OpenAsk: ask, HighAsk: ask, LowAsk: ask, CloseAsk: ask,
	}
}

// Fields returns the prices in PriceColumns order
func (p Prices) Fields() []decimal.NullDecimal {
	return []decimal.NullDecimal{
		p.OpenBid, p.OpenAsk, p.HighBid, p.HighAsk, p.LowBid, p.LowAsk, p.CloseBid, p.CloseAsk,
	}
}

// Set assigns a field by column name. Unknown names are ignored and reported as false.
func (p *Prices) Set(column string, v decimal.NullDecimal) bool {
	switch column {
	case "OpenBid":
		p.OpenBid = v
	case "OpenAsk":
		p.OpenAsk = v
	case "HighBid":
		p.HighBid = v
	case "HighAsk":
		p.HighAsk = v
	case "LowBid":
		p.LowBid = v
	case "LowAsk":
		p.LowAsk = v
	case "CloseBid":
		p.CloseBid = v
	case "CloseAsk":
		p.CloseAsk = v
	default:
		return false
	}
	return true
}

// RawRecord is one observed quote as read from the raw source.
// Time is timezone-naive: it carries the instrument's local wall clock in UTC.
type RawRecord struct {
	Time time.Time `json:"time"`
	Prices
}

// ProcessedRecord is one output row of the minute grid
type ProcessedRecord struct {
	Date   string `json:"date"`
	TOD    string `json:"tod"`
	Filled bool   `json:"filled"`
	Prices
}

// FillStats summarizes a gap-fill pass
type FillStats struct {
	Days        int `json:"days"`
	GridRows    int `json:"grid_rows"`
	Observed    int `json:"observed"`
	Filled      int `json:"filled"`
	LeadingGaps int `json:"leading_gaps"`
	RawRecords  int `json:"raw_records"`
}

// ProcessedSeries is the gap-filled, formatted series for one instrument
type ProcessedSeries struct {
	Symbol    string            `json:"symbol"`
	Window    TradingWindow     `json:"window"`
	Records   []ProcessedRecord `json:"records"`
	FirstDate string            `json:"first_date"`
	LastDate  string            `json:"last_date"`
	Stats     FillStats         `json:"stats"`
}

// FirstDateCompact returns FirstDate without separators (2024-01-02 -> 20240102)
func (s *ProcessedSeries) FirstDateCompact() string {
	return strings.ReplaceAll(s.FirstDate, "-", "")
}

// LastDateCompact returns LastDate without separators
func (s *ProcessedSeries) LastDateCompact() string {
	return strings.ReplaceAll(s.LastDate, "-", "")
}
