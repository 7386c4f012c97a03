// Package landlord ingests landlord-authored payment workbooks and turns
// them into receipt records. One row per tenant, one column per calendar
// month; each populated month cell becomes a receipt with a billing period
// computed by the rentcalc package.
package landlord

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptTypeRent is the receipt type issued by this pipeline.
const ReceiptTypeRent = "rent"

// =============================================================================
// DOMAIN TYPES
// =============================================================================

// TenantData is one parsed tenant row. Immutable once parsed; it only lives
// for the duration of receipt generation for that row.
type TenantData struct {
	ContractNumber string
	Name           string
	Rent           decimal.Decimal

	// RentDeposit is the tenant's months-paid-ahead count.
	RentDeposit int

	// DepositMonthOffset is the numeric value of the deposit-offset column
	// ("Mes Caucao") when the landlord filled one in. HasDepositOffset
	// distinguishes a real 0 from an absent or non-numeric cell.
	DepositMonthOffset int
	HasDepositOffset   bool

	MonthsLate       int
	PaidCurrentMonth bool

	// RowNumber is the 1-based source row, kept for error messages.
	RowNumber int
}

// EffectiveMonthsAhead resolves the two months-ahead columns into the single
// value the calculator takes. A numeric deposit-offset cell overrides
// RentDeposit; otherwise RentDeposit stands. The landlord fixture files
// only ever populate one of the two meaningfully.
func (t *TenantData) EffectiveMonthsAhead() int {
	if t.HasDepositOffset {
		return t.DepositMonthOffset
	}
	return t.RentDeposit
}

// PaymentInfo is one populated month cell, resolved to a calendar date.
// Transient: consumed immediately into a ReceiptData and possibly an alert.
type PaymentInfo struct {
	Tenant        *TenantData
	PaymentDate   time.Time
	PaymentColumn string
	PaymentDay    int
}

// ProcessingAlert flags a payment recorded under a month column that does
// not match the month the tenant's stated parameters imply. Informational
// only: the system cannot know whether the parameters or the column are
// wrong, so a human adjudicates. Receipt generation proceeds regardless.
type ProcessingAlert struct {
	ContractNumber string
	PaymentDate    time.Time
	PaymentColumn  string
	ExpectedColumn string
	RentPeriodFrom time.Time
	RentPeriodTo   time.Time
	Reason         string
}

// ReceiptData is the final output unit, one per (tenant, populated month).
// Handed to the submission pipeline; immutable once created.
type ReceiptData struct {
	ContractID  string
	FromDate    time.Time
	ToDate      time.Time
	PaymentDate time.Time
	ReceiptType string
	Value       decimal.Decimal

	// Carried through for reporting.
	RentDeposit int
	MonthsLate  int
}

// Result is everything one ParseWorkbook call produced. Row-level problems
// land in RowErrors instead of aborting the file: one bad row does not void
// the other tenants' receipts.
type Result struct {
	Receipts  []ReceiptData
	Alerts    []ProcessingAlert
	RowErrors []string
}
