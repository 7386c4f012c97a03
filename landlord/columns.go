package landlord

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// HEADER RECOGNITION
// =============================================================================

// monthNames maps header spellings (lower-cased) to calendar months.
// Both three-letter abbreviations and full names are accepted.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// normalizeHeader lowers a header cell and strips separators and the
// Portuguese accents that show up in landlord files, so that
// "Rent Deposit", "rent_deposit" and "RENTDEPOSIT" all compare equal and
// "Mes Caucao" matches "mescaucao".
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '-', '.':
			// separator, drop
		case 'ç':
			b.WriteRune('c')
		case 'ã', 'á', 'à', 'â':
			b.WriteRune('a')
		case 'é', 'ê':
			b.WriteRune('e')
		case 'í':
			b.WriteRune('i')
		case 'ó', 'õ', 'ô':
			b.WriteRune('o')
		case 'ú':
			b.WriteRune('u')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columnMap records where each logical field lives in the header row.
// An index of -1 means the column is absent.
type columnMap struct {
	contract         int
	name             int
	rent             int
	rentDeposit      int
	depositOffset    int
	monthsLate       int
	paidCurrentMonth int

	// months maps calendar month -> column index for every recognized
	// month column.
	months map[time.Month]int
}

func newColumnMap() columnMap {
	return columnMap{
		contract:         -1,
		name:             -1,
		rent:             -1,
		rentDeposit:      -1,
		depositOffset:    -1,
		monthsLate:       -1,
		paidCurrentMonth: -1,
		months:           make(map[time.Month]int),
	}
}

// buildColumnMap resolves a header row into a columnMap. Built once per
// sheet and reused for every data row.
//
// Matching order mirrors the landlord file conventions: the most specific
// headers are claimed first so "RentDeposit" is never mistaken for "Rent"
// and "Mes Caucao" is never swallowed by the generic deposit match.
func buildColumnMap(header []string) columnMap {
	cm := newColumnMap()

	for idx, raw := range header {
		h := strings.TrimSpace(raw)
		if h == "" {
			continue
		}
		n := normalizeHeader(h)

		switch {
		case cm.contract < 0 && (strings.Contains(n, "contract") || strings.Contains(n, "contrato")):
			cm.contract = idx

		case cm.name < 0 && (strings.Contains(n, "name") || strings.Contains(n, "nome") || strings.Contains(n, "tenant")):
			cm.name = idx

		case cm.rent < 0 && !strings.Contains(n, "deposit") && (strings.Contains(n, "rent") || strings.Contains(n, "renda")):
			cm.rent = idx

		case strings.Contains(n, "mescaucao"):
			// The "Mes Caucao" column doubles as deposit offset (numeric
			// cells) and current-month flag (Yes/No cells). Row parsing
			// decides per cell.
			cm.depositOffset = idx
			if cm.paidCurrentMonth < 0 {
				cm.paidCurrentMonth = idx
			}

		case cm.paidCurrentMonth < 0 && (strings.Contains(n, "paidcurrentmonth") || strings.Contains(n, "paid")):
			cm.paidCurrentMonth = idx

		case cm.rentDeposit < 0 && (strings.Contains(n, "rentdeposit") || strings.Contains(n, "caucao") || strings.Contains(n, "deposit")):
			cm.rentDeposit = idx

		case cm.monthsLate < 0 && (strings.Contains(n, "monthslate") || strings.Contains(n, "atraso") || strings.Contains(n, "late")):
			cm.monthsLate = idx
		}

		// Month columns are recognized independently of the field matches.
		if m, ok := monthNames[strings.ToLower(h)]; ok {
			cm.months[m] = idx
		} else if num, err := strconv.Atoi(h); err == nil && num >= 1 && num <= 12 && len(h) <= 2 {
			cm.months[time.Month(num)] = idx
		}
	}

	return cm
}

// missingRequired lists the logical columns stage-1 validation demands but
// the header does not provide.
func (cm columnMap) missingRequired() []string {
	var missing []string
	for _, c := range []struct {
		idx  int
		name string
	}{
		{cm.contract, "contract"},
		{cm.name, "name"},
		{cm.rent, "rent"},
		{cm.rentDeposit, "rentdeposit"},
		{cm.monthsLate, "monthslate"},
		{cm.paidCurrentMonth, "paidcurrentmonth"},
	} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// validateStructure runs stage-1 validation over the raw rows and returns
// every problem found. An empty slice means the sheet is processable.
func validateStructure(rows [][]string) []string {
	var problems []string

	if len(rows) < 2 {
		problems = append(problems, "spreadsheet is empty or has no data rows")
		return problems
	}

	cm := buildColumnMap(rows[0])

	if missing := cm.missingRequired(); len(missing) > 0 {
		problems = append(problems,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	if len(cm.months) == 0 {
		problems = append(problems,
			"no month columns found (expected Jan, Feb, Mar, etc. or 01, 02, 03, etc.)")
	}

	return problems
}

// cellAt returns the trimmed cell at idx, tolerating rows shorter than the
// header (trailing empty cells are not materialized by the reader).
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
