package rentcalc

import "time"

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

// StartOfMonth returns the first day of the given month.
func StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the given month.
// Computed as first-day-of-next-month minus one day, so 28/29/30/31-day
// months and leap years fall out of the calendar itself. The length of the
// target month is what matters here, never the length of whatever month a
// payment happened in.
func EndOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// ShiftMonth advances (year, month) by offset months, rolling the year in
// either direction. Offset may be negative. Anchored on day 1 so the shift
// can never overflow into a neighboring month.
func ShiftMonth(year int, month time.Month, offset int) (int, time.Month) {
	t := StartOfMonth(year, month).AddDate(0, offset, 0)
	return t.Year(), t.Month()
}

// MonthLabel returns the short English label used for spreadsheet month
// columns ("Jan" .. "Dec").
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}
