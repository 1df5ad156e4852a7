package exporter

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// formatPrice renders a price cell. Unset prices are empty cells; set prices use the
// shortest exact decimal form, so identical input always yields identical bytes.
func formatPrice(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
