package rentcalc

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPaymentDateRequired is returned when the payment date is the zero
	// time. A calculator without a payment date has nothing to anchor on.
	ErrPaymentDateRequired = errors.New("payment date must be set")

	// ErrNegativeRentDeposit is returned when the months-paid-ahead count
	// is negative. Lateness is modeled separately via months late.
	ErrNegativeRentDeposit = errors.New("rent deposit cannot be negative")

	// ErrNegativeMonthsLate is returned when the months-behind count is
	// negative. Paying ahead is modeled separately via rent deposit.
	ErrNegativeMonthsLate = errors.New("months late cannot be negative")
)
