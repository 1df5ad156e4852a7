package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"cfdprep/pkg/contracts/domain"
)

// TimeColumn is the header name of the raw timestamp column
const TimeColumn = "Time"

// timeLayouts are tried in order when parsing the raw Time column.
// time.Parse accepts fractional seconds after the seconds field without a layout change.
var timeLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
}

// ParseTime parses a raw timestamp and strips any timezone: the wall clock is kept
// as written and re-anchored to UTC, never converted.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return StripZone(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// StripZone drops the location of t while keeping its wall clock
func StripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParsePrice parses one price cell. Blank and NaN cells are unset.
func ParsePrice(value string) (decimal.NullDecimal, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "nan", "null", "na":
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q", value)
	}
	return decimal.NewNullDecimal(d), nil
}

// LoadRaw reads the raw record file of one instrument. CSV is the primary
// format; .xlsx workbooks are read from their first sheet.
func LoadRaw(path string) ([]domain.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseWorkbook(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw file: %w", err)
		}
		defer f.Close()
		return ParseCSV(f, path)
	}
}

// ParseCSV reads raw records from CSV. The header must contain Time and the
// eight price columns in any order; other columns are ignored.
func ParseCSV(r io.Reader, name string) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &ParseError{File: name, Line: 1, Cause: err}
	}
	b, err := newRowBuilder(name, header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{File: name, Cause: err}
		}
		line, _ := reader.FieldPos(0)
		rec, err := b.build(line, row, nil)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	slog.Debug("Parsed raw CSV",
		slog.String("file", name),
		slog.Int("records", len(records)))
	return records, nil
}

// ParseWorkbook reads raw records from the first sheet of an Excel workbook.
// Time cells may be text or Excel date serials.
func ParseWorkbook(path string) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{File: path, Cause: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{File: path, Cause: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	b, err := newRowBuilder(path, rows[0])
	if err != nil {
		return nil, err
	}
	serial := func(value string) (time.Time, bool) {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, false
		}
		return StripZone(t.Round(time.Second)), true
	}

	var records []domain.RawRecord
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := b.build(i+2, row, serial)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	slog.Debug("Parsed raw workbook",
		slog.String("file", path),
		slog.String("sheet", sheets[0]),
		slog.Int("records", len(records)))
	return records, nil
}

// rowBuilder maps header positions to record fields
type rowBuilder struct {
	name    string
	timeIdx int
	price   map[string]int
}

func newRowBuilder(name string, header []string) (*rowBuilder, error) {
	b := &rowBuilder{name: name, timeIdx: -1, price: make(map[string]int, len(domain.PriceColumns))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == TimeColumn {
			b.timeIdx = i
			continue
		}
		for _, col := range domain.PriceColumns {
			if h == col {
				b.price[col] = i
			}
		}
	}

	var missing []string
	if b.timeIdx < 0 {
		missing = append(missing, TimeColumn)
	}
	for _, col := range domain.PriceColumns {
		if _, ok := b.price[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{File: name, Line: 1,
			Cause: fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return b, nil
}

func (b *rowBuilder) build(line int, row []string, fallback func(string) (time.Time, bool)) (domain.RawRecord, error) {
	var rec domain.RawRecord

	raw := cell(row, b.timeIdx)
	t, err := ParseTime(raw)
	if err != nil {
		ft, ok := time.Time{}, false
		if fallback != nil {
			ft, ok = fallback(raw)
		}
		if !ok {
			return rec, &ParseError{File: b.name, Line: line, Column: TimeColumn, Cause: err}
		}
		t = ft
	}
	rec.Time = t

	for _, col := range domain.PriceColumns {
		v, err := ParsePrice(cell(row, b.price[col]))
		if err != nil {
			return rec, &ParseError{File: b.name, Line: line, Column: col, Cause: err}
		}
		rec.Set(col, v)
	}
	return rec, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
