package dataprocessing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cfdprep/pkg/contracts/domain"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func minute(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustWindow(t *testing.T, start, end string) domain.TradingWindow {
	t.Helper()
	w, err := domain.NewTradingWindow(start, end)
	require.NoError(t, err)
	return w
}

func quote(at string, o, h, l, c string) domain.RawRecord {
	return domain.RawRecord{
		Time: minute(at),
		Prices: domain.Prices{
			OpenBid: nd(o), HighBid: nd(h), LowBid: nd(l), CloseBid: nd(c),
			OpenAsk: nd(o), HighAsk: nd(h), LowAsk: nd(l), CloseAsk: nd(c),
		},
	}
}

func flatQuote(at, bid, ask string) domain.RawRecord {
	return domain.RawRecord{Time: minute(at), Prices: domain.Flat(nd(bid), nd(ask))}
}

func assertFlat(t *testing.T, rec domain.ProcessedRecord, bid, ask string) {
	t.Helper()
	for _, v := range []decimal.NullDecimal{rec.OpenBid, rec.HighBid, rec.LowBid, rec.CloseBid} {
		require.True(t, v.Valid, "%s %s bid unset", rec.Date, rec.TOD)
		assert.Equal(t, bid, v.Decimal.String(), "%s %s", rec.Date, rec.TOD)
	}
	for _, v := range []decimal.NullDecimal{rec.OpenAsk, rec.HighAsk, rec.LowAsk, rec.CloseAsk} {
		require.True(t, v.Valid, "%s %s ask unset", rec.Date, rec.TOD)
		assert.Equal(t, ask, v.Decimal.String(), "%s %s", rec.Date, rec.TOD)
	}
}

func TestGapFiller_Scenario(t *testing.T) {
	w := mustWindow(t, "09:30", "09:32")
	records := []domain.RawRecord{
		quote("2024-01-02 09:32", "1.12", "1.12", "1.12", "1.12"),
		quote("2024-01-02 09:30", "1.10", "1.11", "1.09", "1.105"),
	}

	series, err := NewGapFiller(nil).Fill("EURUSD", w, records)
	require.NoError(t, err)
	require.Len(t, series.Records, 3)

	assert.Equal(t, []string{"09:30", "09:31", "09:32"},
		[]string{series.Records[0].TOD, series.Records[1].TOD, series.Records[2].TOD})

	first := series.Records[0]
	assert.Equal(t, "1.1", first.OpenBid.Decimal.String())
	assert.Equal(t, "1.11", first.HighBid.Decimal.String())
	assert.Equal(t, "1.09", first.LowBid.Decimal.String())
	assert.False(t, first.Filled)

	assertFlat(t, series.Records[1], "1.105", "1.105")
	assert.True(t, series.Records[1].Filled)

	assertFlat(t, series.Records[2], "1.12", "1.12")
	assert.False(t, series.Records[2].Filled)

	assert.Equal(t, "2024-01-02", series.FirstDate)
	assert.Equal(t, "20240102", series.LastDateCompact())
	assert.Equal(t, domain.FillStats{Days: 1, GridRows: 3, Observed: 2, Filled: 1, RawRecords: 2}, series.Stats)
}

func TestGapFiller_RowsPerDay(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"single minute", "12:00", "12:00", 1},
		{"three minutes", "09:30", "09:32", 3},
		{"equity session", "09:30", "16:00", 391},
		{"full day", "00:00", "23:59", 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustWindow(t, tt.start, tt.end)
			records := []domain.RawRecord{
				flatQuote("2024-01-02 "+tt.start, "1", "2"),
				flatQuote("2024-01-03 "+tt.end, "1", "2"),
				flatQuote("2024-01-05 "+tt.start, "1", "2"),
			}

			series, err := NewGapFiller(nil).Fill("X", w, records)
			require.NoError(t, err)
			assert.Len(t, series.Records, 3*tt.want)
			assert.Equal(t, 3, series.Stats.Days)

			perDay := map[string]int{}
			for _, r := range series.Records {
				perDay[r.Date]++
			}
			assert.Equal(t, map[string]int{"2024-01-02": tt.want, "2024-01-03": tt.want, "2024-01-05": tt.want}, perDay)
		})
	}
}

func TestGapFiller_LeadingGapStaysUnset(t *testing.T) {
	w := mustWindow(t, "09:30", "09:33")
	records := []domain.RawRecord{flatQuote("2024-01-02 09:32", "1.5", "1.6")}

	series, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	require.Len(t, series.Records, 4)

	for _, rec := range series.Records[:2] {
		for _, f := range rec.Fields() {
			assert.False(t, f.Valid)
		}
		assert.False(t, rec.Filled)
	}
	assertFlat(t, series.Records[2], "1.5", "1.6")
	assertFlat(t, series.Records[3], "1.5", "1.6")
	assert.Equal(t, 2, series.Stats.LeadingGaps)
	assert.Equal(t, 1, series.Stats.Filled)
}

func TestGapFiller_CrossDayFill(t *testing.T) {
	w := mustWindow(t, "09:30", "09:32")
	records := []domain.RawRecord{
		quote("2024-01-02 09:30", "1.0", "1.3", "0.9", "1.2"),
		flatQuote("2024-01-02 09:31", "1.25", "1.26"),
		flatQuote("2024-01-03 09:32", "2.0", "2.1"),
	}

	series, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	require.Len(t, series.Records, 6)

	// Day 1 last minute carries day 1's 09:31 close
	assertFlat(t, series.Records[2], "1.25", "1.26")
	// Day 2 first minutes reach back across the day boundary
	assert.Equal(t, "2024-01-03", series.Records[3].Date)
	assertFlat(t, series.Records[3], "1.25", "1.26")
	assertFlat(t, series.Records[4], "1.25", "1.26")
	assertFlat(t, series.Records[5], "2", "2.1")
	assert.Equal(t, "2024-01-02", series.FirstDate)
	assert.Equal(t, "2024-01-03", series.LastDate)
}

func TestGapFiller_ForwardFillProperty(t *testing.T) {
	w := mustWindow(t, "10:00", "10:59")
	records := []domain.RawRecord{
		flatQuote("2024-02-01 10:00", "1", "1.5"),
		quote("2024-02-01 10:17", "3", "4", "2", "3.5"),
		flatQuote("2024-02-01 10:40", "5", "5.5"),
	}

	series, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)

	observed := map[string]bool{"10:00": true, "10:17": true, "10:40": true}
	var lastBid, lastAsk string
	for _, rec := range series.Records {
		if observed[rec.TOD] {
			assert.False(t, rec.Filled)
		} else {
			assert.True(t, rec.Filled, rec.TOD)
			assertFlat(t, rec, lastBid, lastAsk)
		}
		lastBid, lastAsk = rec.CloseBid.Decimal.String(), rec.CloseAsk.Decimal.String()
	}
	assert.Equal(t, 57, series.Stats.Filled)
}

func TestGapFiller_UnsetCloseBidIsRefilled(t *testing.T) {
	w := mustWindow(t, "09:30", "09:31")
	partial := flatQuote("2024-01-02 09:31", "9", "9")
	partial.CloseBid = decimal.NullDecimal{}

	records := []domain.RawRecord{flatQuote("2024-01-02 09:30", "1", "2"), partial}

	series, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	assertFlat(t, series.Records[1], "1", "2")
	assert.True(t, series.Records[1].Filled)
}

func TestGapFiller_DuplicatesLastWins(t *testing.T) {
	w := mustWindow(t, "09:30", "09:31")
	records := []domain.RawRecord{
		flatQuote("2024-01-02 09:30", "1", "1"),
		flatQuote("2024-01-02 09:30", "2", "2"),
	}

	series, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	require.Len(t, series.Records, 2)
	assertFlat(t, series.Records[0], "2", "2")
	assertFlat(t, series.Records[1], "2", "2")
}

func TestGapFiller_OffGridSecondsAreNotJoined(t *testing.T) {
	w := mustWindow(t, "09:30", "09:31")
	odd := flatQuote("2024-01-02 09:30", "7", "7")
	odd.Time = odd.Time.Add(30 * time.Second)

	series, err := NewGapFiller(nil).Fill("X", w, []domain.RawRecord{flatQuote("2024-01-02 09:30", "1", "1"), odd})
	require.NoError(t, err)
	require.Len(t, series.Records, 2)
	assertFlat(t, series.Records[1], "1", "1")
}

func TestGapFiller_InputNotMutated(t *testing.T) {
	w := mustWindow(t, "09:30", "09:31")
	records := []domain.RawRecord{
		flatQuote("2024-01-02 09:31", "2", "2"),
		flatQuote("2024-01-02 09:30", "1", "1"),
	}
	before := append([]domain.RawRecord(nil), records...)

	_, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	assert.Equal(t, before, records)
}

func TestGapFiller_Empty(t *testing.T) {
	_, err := NewGapFiller(nil).Fill("EURUSD", mustWindow(t, "09:30", "09:31"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	var empty *EmptyDatasetError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "EURUSD", empty.Symbol)
	assert.Equal(t, ErrorTypeEmptyDataset, GetErrorType(err))
}

func TestGapFiller_Deterministic(t *testing.T) {
	w := mustWindow(t, "09:30", "09:40")
	records := []domain.RawRecord{
		flatQuote("2024-01-03 09:35", "3", "3"),
		flatQuote("2024-01-02 09:31", "1", "1"),
		flatQuote("2024-01-02 09:38", "2", "2"),
	}

	a, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	b, err := NewGapFiller(nil).Fill("X", w, records)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPreprocessor_ValidationBeforeFill(t *testing.T) {
	w := mustWindow(t, "09:30", "09:31")
	records := []domain.RawRecord{
		flatQuote("2024-01-02 09:30", "1", "1"),
		flatQuote("2024-01-02 09:45", "1", "1"),
	}

	series, err := NewPreprocessor(nil).Process("X", w, records)
	assert.Nil(t, series)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	series, err = NewPreprocessor(nil).Process("X", w, records[:1])
	require.NoError(t, err)
	assert.Len(t, series.Records, 2)
}
