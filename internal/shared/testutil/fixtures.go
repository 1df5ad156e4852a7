package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RawHeader is the header row of a raw minute file
const RawHeader = "Time,OpenBid,OpenAsk,HighBid,HighAsk,LowBid,LowAsk,CloseBid,CloseAsk"

// RawCSV builds raw minute file content
type RawCSV struct {
	lines []string
}

// NewRawCSV starts a raw file with the standard header
func NewRawCSV() *RawCSV {
	return &RawCSV{lines: []string{RawHeader}}
}

// Quote appends a minute whose open, high, low and close are all bid/ask
func (r *RawCSV) Quote(ts, bid, ask string) *RawCSV {
	return r.Row(ts, bid, ask, bid, ask, bid, ask, bid, ask)
}

// Row appends a minute with every price given explicitly
func (r *RawCSV) Row(ts string, prices ...string) *RawCSV {
	r.lines = append(r.lines, ts+","+strings.Join(prices, ","))
	return r
}

// String returns the file content
func (r *RawCSV) String() string {
	return strings.Join(r.lines, "\n") + "\n"
}

// WriteTo writes the content to dir/name and returns the full path
func (r *RawCSV) WriteTo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(path, []byte(r.String()), 0644))
	return path
}

// SymbolsJSON renders a symbol list entry by entry
func SymbolsJSON(entries ...[4]string) string {
	items := make([]string, len(entries))
	for i, e := range entries {
		items[i] = fmt.Sprintf(
			`{"symbol": %q, "raw_file": %q, "data_start_time": %q, "data_end_time": %q}`,
			e[0], e[1], e[2], e[3])
	}
	return "[\n  " + strings.Join(items, ",\n  ") + "\n]\n"
}
