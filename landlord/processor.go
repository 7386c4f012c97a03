/*
processor.go - landlord workbook ingestion pipeline

PURPOSE:
  Parses a landlord-authored workbook (one row per tenant, one column per
  calendar month) into receipt records with billing periods computed by
  rentcalc, plus cross-column alerts for payments that sit under a month
  the tenant's stated parameters do not imply.

PIPELINE (four sequential stages, no backward transitions):
  1. Open workbook, resolve sheet (named or active)
  2. Structure validation - all problems collected, surfaced together
  3. Column mapping - built once per sheet
  4. Row parsing + receipt generation - bad rows reported and skipped,
     ambiguous month cells skipped silently

FAILURE SEMANTICS:
  - Missing file / unknown sheet / structural problems: fatal, no output
  - Bad tenant row: that row only; reported in Result.RowErrors
  - Unparseable or out-of-range payment day: that cell only, silent
  - Cross-column mismatch: never an error, always an informational alert

STATE:
  ParseWorkbook returns a fresh Result per call and keeps nothing on the
  Processor, so sequential reuse of one instance is safe. Concurrent use of
  one instance is not part of the contract.

SEE ALSO:
  - columns.go: header recognition and structure validation
  - parse.go: tolerant cell parsers
  - rentcalc: period arithmetic
*/
package landlord

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/arrenda/receipt-engine/rentcalc"
)

// landlordSeparators mark rows used as visual section breaks between
// different landlords' tenant blocks. Matched case-insensitively against
// the first populated cell.
var landlordSeparators = []string{"LANDLORD", "PROPERTY OWNER", "OWNER:"}

// Processor ingests landlord workbooks. Stateless; one instance can be
// reused across sequential calls.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// ParseWorkbook parses one workbook and returns the receipts and alerts it
// produced.
//
// selectedMonth and selectedYear anchor the run: the year supplies the
// calendar year for payment dates, and the month is the reference period
// the cross-column expectation is computed against. They do not restrict
// which month columns are read; every populated cell in every recognized
// month column yields a receipt.
//
// sheetName selects a sheet by name; empty means the active sheet.
func (p *Processor) ParseWorkbook(path string, selectedMonth time.Month, selectedYear int, sheetName string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("stat workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	if problems := validateStructure(rows); len(problems) > 0 {
		return nil, &StructureError{Problems: problems}
	}

	cm := buildColumnMap(rows[0])
	result := &Result{}

	for i, row := range rows[1:] {
		rowNumber := i + 2 // 1-based, after the header

		if isBlankRow(row) || isLandlordSeparator(row) {
			continue
		}

		tenant, err := parseTenantRow(row, cm, rowNumber)
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("row %d: %v", rowNumber, err))
			continue
		}

		generateReceipts(result, tenant, row, cm, selectedMonth, selectedYear)
	}

	return result, nil
}

// ValidateWorkbook runs stage-1 structure validation only. Returns whether
// the sheet is processable and the problems found; err covers I/O-level
// failures (missing file, unknown sheet).
func (p *Processor) ValidateWorkbook(path, sheetName string) (bool, []string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return false, nil, fmt.Errorf("stat workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f, sheetName)
	if err != nil {
		return false, nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return false, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	problems := validateStructure(rows)
	return len(problems) == 0, problems, nil
}

// resolveSheet returns the sheet to read: the named one when given, else
// the workbook's active sheet.
func resolveSheet(f *excelize.File, name string) (string, error) {
	if name == "" {
		return f.GetSheetName(f.GetActiveSheetIndex()), nil
	}
	for _, s := range f.GetSheetList() {
		if s == name {
			return name, nil
		}
	}
	return "", &SheetNotFoundError{Sheet: name, Available: f.GetSheetList()}
}

// =============================================================================
// ROW PARSING
// =============================================================================

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isLandlordSeparator(row []string) bool {
	for _, v := range row {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		upper := strings.ToUpper(s)
		for _, pattern := range landlordSeparators {
			if strings.Contains(upper, pattern) {
				return true
			}
		}
		return false // only the first populated cell decides
	}
	return false
}

// parseTenantRow parses one data row into a TenantData. Errors abort the
// row, not the file.
func parseTenantRow(row []string, cm columnMap, rowNumber int) (*TenantData, error) {
	contract := cellAt(row, cm.contract)
	if contract == "" {
		return nil, errors.New("missing contract number")
	}

	rentRaw := cellAt(row, cm.rent)
	rent, ok := parseMoney(rentRaw)
	if !ok {
		return nil, fmt.Errorf("invalid rent amount: %q", rentRaw)
	}

	depositRaw := cellAt(row, cm.rentDeposit)
	rentDeposit, ok := parseNonNegativeInt(depositRaw)
	if !ok {
		return nil, fmt.Errorf("invalid RentDeposit: %q (must be a non-negative integer)", depositRaw)
	}

	lateRaw := cellAt(row, cm.monthsLate)
	monthsLate, ok := parseNonNegativeInt(lateRaw)
	if !ok {
		return nil, fmt.Errorf("invalid MonthsLate: %q (must be a non-negative integer)", lateRaw)
	}

	tenant := &TenantData{
		ContractNumber: contract,
		Name:           cellAt(row, cm.name),
		Rent:           rent,
		RentDeposit:    rentDeposit,
		MonthsLate:     monthsLate,
		RowNumber:      rowNumber,
	}

	// The deposit-offset column carries either a numeric month offset or a
	// Yes/No current-month flag (the shared "Mes Caucao" convention). A
	// numeric cell sets the offset; a non-numeric cell is read as the flag.
	if cm.depositOffset >= 0 {
		if off, numeric := parseNonNegativeInt(cellAt(row, cm.depositOffset)); numeric {
			tenant.DepositMonthOffset = off
			tenant.HasDepositOffset = true
		}
	}
	if cm.paidCurrentMonth >= 0 {
		raw := cellAt(row, cm.paidCurrentMonth)
		if _, numeric := parseNonNegativeInt(raw); !numeric {
			tenant.PaidCurrentMonth = parseYesNo(raw)
		}
	}

	return tenant, nil
}

// =============================================================================
// RECEIPT GENERATION
// =============================================================================

// generateReceipts walks the tenant's month cells in calendar order and
// appends a receipt per resolvable payment day, plus an alert when the
// payment sits under an unexpected column.
func generateReceipts(result *Result, tenant *TenantData, row []string, cm columnMap, selectedMonth time.Month, selectedYear int) {
	for month := time.January; month <= time.December; month++ {
		idx, ok := cm.months[month]
		if !ok {
			continue
		}

		day, ok := parsePaymentDay(cellAt(row, idx))
		if !ok || day < 1 || day > rentcalc.DaysIn(selectedYear, month) {
			// Skip-on-ambiguity: noise in a month cell never blocks the
			// tenant's other payments.
			continue
		}

		payment := PaymentInfo{
			Tenant:        tenant,
			PaymentDate:   time.Date(selectedYear, month, day, 0, 0, 0, 0, time.UTC),
			PaymentColumn: rentcalc.MonthLabel(month),
			PaymentDay:    day,
		}

		calc, err := rentcalc.New(payment.PaymentDate, tenant.EffectiveMonthsAhead(), tenant.MonthsLate, tenant.PaidCurrentMonth)
		if err != nil {
			result.RowErrors = append(result.RowErrors,
				fmt.Sprintf("row %d: %v", tenant.RowNumber, err))
			return
		}
		from, to := calc.Calculate()

		result.Receipts = append(result.Receipts, ReceiptData{
			ContractID:  tenant.ContractNumber,
			FromDate:    from,
			ToDate:      to,
			PaymentDate: payment.PaymentDate,
			ReceiptType: ReceiptTypeRent,
			Value:       tenant.Rent,
			RentDeposit: tenant.RentDeposit,
			MonthsLate:  tenant.MonthsLate,
		})

		if expected := expectedColumn(selectedMonth, selectedYear, tenant); month != expected {
			result.Alerts = append(result.Alerts, ProcessingAlert{
				ContractNumber: tenant.ContractNumber,
				PaymentDate:    payment.PaymentDate,
				PaymentColumn:  payment.PaymentColumn,
				ExpectedColumn: rentcalc.MonthLabel(expected),
				RentPeriodFrom: from,
				RentPeriodTo:   to,
				Reason: fmt.Sprintf(
					"payment recorded under %s but the stated parameters place it under %s. %s",
					payment.PaymentColumn, rentcalc.MonthLabel(expected), calc.Explain()),
			})
		}
	}
}

// expectedColumn returns the month column a payment covering the selected
// reference month should have been recorded under: the reference month
// pulled back by the tenant's net months-ahead, or the reference month
// itself under the current-month override.
func expectedColumn(selectedMonth time.Month, selectedYear int, tenant *TenantData) time.Month {
	if tenant.PaidCurrentMonth {
		return selectedMonth
	}
	net := tenant.EffectiveMonthsAhead() - tenant.MonthsLate
	_, m := rentcalc.ShiftMonth(selectedYear, selectedMonth, -net)
	return m
}
