/*
Package rentcalc computes the rent billing period a payment covers.

PURPOSE:
  Pure date arithmetic for receipt issuance. Given when a payment was made
  and how the tenant's schedule is described (months paid ahead, months
  behind, current-month override), determine the single calendar month the
  payment pays for.

KEY CONCEPTS:
  - Calculator: immutable input set, validated at construction
  - Period: always exactly one calendar month, day 1 through the last day
  - Explain: deterministic audit string for every calculation

DESIGN PRINCIPLES:
  1. Purity: no clock access, no I/O; same inputs always give same outputs
  2. Auditability: every result can be explained in one line
  3. Calendar correctness: month lengths come from the target month, so a
     payment on Jan 31 computing February's end yields the 28th/29th

USAGE:
  calc, err := rentcalc.New(paymentDate, 1, 0, false)
  if err != nil { ... }
  from, to := calc.Calculate()

SEE ALSO:
  - time.go: month arithmetic helpers
  - errors.go: validation sentinels
*/
package rentcalc

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator maps one payment to the calendar month it pays for.
//
// The three schedule parameters combine as follows:
//   - PaidCurrentMonth true: the payment covers the month it was made in;
//     RentDeposit and MonthsLate are ignored entirely.
//   - Otherwise: the covered month is the payment month shifted by
//     RentDeposit - MonthsLate (signed, may cross year boundaries).
type Calculator struct {
	PaymentDate      time.Time
	RentDeposit      int
	MonthsLate       int
	PaidCurrentMonth bool
}

// New validates the inputs and returns a calculator.
//
// RentDeposit is the tenant's months-paid-ahead count. Callers that track a
// separate deposit-month-offset resolve it into this single value before
// construction (see landlord.TenantData.EffectiveMonthsAhead).
func New(paymentDate time.Time, rentDeposit, monthsLate int, paidCurrentMonth bool) (*Calculator, error) {
	if paymentDate.IsZero() {
		return nil, ErrPaymentDateRequired
	}
	if rentDeposit < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeRentDeposit, rentDeposit)
	}
	if monthsLate < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeMonthsLate, monthsLate)
	}
	return &Calculator{
		PaymentDate:      paymentDate,
		RentDeposit:      rentDeposit,
		MonthsLate:       monthsLate,
		PaidCurrentMonth: paidCurrentMonth,
	}, nil
}

// NetOffset returns the signed month offset applied to the payment month.
// Zero when the current-month override is set.
func (c *Calculator) NetOffset() int {
	if c.PaidCurrentMonth {
		return 0
	}
	return c.RentDeposit - c.MonthsLate
}

// Calculate returns the billing period as (from, to): the first and last
// day of the covered month.
func (c *Calculator) Calculate() (from, to time.Time) {
	year, month := ShiftMonth(c.PaymentDate.Year(), c.PaymentDate.Month(), c.NetOffset())
	return StartOfMonth(year, month), EndOfMonth(year, month)
}

// Explain produces the audit-trail line for this calculation. The format is
// fixed; alert reasons and logs across the system rely on it being stable.
func (c *Calculator) Explain() string {
	from, to := c.Calculate()

	if c.PaidCurrentMonth {
		return fmt.Sprintf(
			"Payment on %s for current month (PaidCurrentMonth flag set) -> Period: %s to %s",
			c.PaymentDate.Format(dateLayout),
			from.Format(dateLayout), to.Format(dateLayout),
		)
	}

	return fmt.Sprintf(
		"Payment on %s + %d months - %d months (offset: %d) -> Period: %s to %s",
		c.PaymentDate.Format(dateLayout),
		c.RentDeposit, c.MonthsLate, c.NetOffset(),
		from.Format(dateLayout), to.Format(dateLayout),
	)
}

// Period is a convenience wrapper for one-off calculations.
func Period(paymentDate time.Time, rentDeposit, monthsLate int, paidCurrentMonth bool) (from, to time.Time, err error) {
	calc, err := New(paymentDate, rentDeposit, monthsLate, paidCurrentMonth)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, to = calc.Calculate()
	return from, to, nil
}
