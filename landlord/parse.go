package landlord

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CELL PARSERS
// =============================================================================
// Small total functions: they report success instead of raising, so each
// call site applies its own skip-vs-fail policy.

// parseYesNo interprets the spellings landlords actually type. Yes/Y/TRUE/1
// in any case mean true; everything else, including blanks and unrecognized
// values, defaults to false. Deliberately permissive: a stray "maybe" in the
// flag column must not sink the row.
func parseYesNo(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "YES", "Y", "TRUE", "1":
		return true
	default:
		return false
	}
}

// parseNonNegativeInt parses a whole non-negative number. Accepts "2" and
// "2.0" style cells (spreadsheets love turning integers into floats) but
// rejects fractions, negatives and anything non-numeric.
func parseNonNegativeInt(v string) (int, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// parseMoney parses a rent amount. A decimal comma is accepted alongside a
// decimal point; negative amounts are rejected.
func parseMoney(v string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return decimal.Zero, false
	}
	// "1.234,56" and "1234,56" both normalize to "1234.56".
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// paymentDayLayouts are the date spellings accepted in month cells, tried
// in order. Day-first is what the landlord files use; ISO shows up when a
// cell carries a real date value.
var paymentDayLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
}

// parsePaymentDay coerces a month-cell value to a day of month.
//
// Precedence: a full date resolves to its day, an integer is used directly,
// a numeric string is parsed. Anything else reports failure and the caller
// skips the cell; spreadsheet noise in a month column is not an error.
// Range checking against the target month is the caller's job.
func parsePaymentDay(v string) (int, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, false
	}

	for _, layout := range paymentDayLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Day(), true
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}

	return 0, false
}
