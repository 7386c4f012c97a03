package rentcalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrenda/receipt-engine/rentcalc"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func mustCalc(t *testing.T, payment time.Time, deposit, late int, current bool) *rentcalc.Calculator {
	t.Helper()
	calc, err := rentcalc.New(payment, deposit, late, current)
	require.NoError(t, err)
	return calc
}

// =============================================================================
// PERIOD CALCULATION
// =============================================================================

func TestCalculate_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		payment  time.Time
		deposit  int
		late     int
		current  bool
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:    "one month ahead, on time",
			payment: day(2026, time.January, 5), deposit: 1,
			wantFrom: day(2026, time.February, 1), wantTo: day(2026, time.February, 28),
		},
		{
			name:    "lateness outweighs deposit, negative offset",
			payment: day(2026, time.March, 15), deposit: 1, late: 3,
			wantFrom: day(2026, time.January, 1), wantTo: day(2026, time.January, 31),
		},
		{
			name:    "leap year February end",
			payment: day(2024, time.January, 5), deposit: 1,
			wantFrom: day(2024, time.February, 1), wantTo: day(2024, time.February, 29),
		},
		{
			name:    "year rollover forward",
			payment: day(2025, time.December, 5), deposit: 1,
			wantFrom: day(2026, time.January, 1), wantTo: day(2026, time.January, 31),
		},
		{
			name:    "year rollover backward",
			payment: day(2026, time.February, 10), deposit: 0, late: 4,
			wantFrom: day(2025, time.October, 1), wantTo: day(2025, time.October, 31),
		},
		{
			name:    "current month override ignores deposit",
			payment: day(2026, time.January, 25), deposit: 1, current: true,
			wantFrom: day(2026, time.January, 1), wantTo: day(2026, time.January, 31),
		},
		{
			name:    "zero offset stays in payment month",
			payment: day(2026, time.June, 30),
			wantFrom: day(2026, time.June, 1), wantTo: day(2026, time.June, 30),
		},
		{
			name:    "payment on Jan 31 targets February, not the 31st",
			payment: day(2026, time.January, 31), deposit: 1,
			wantFrom: day(2026, time.February, 1), wantTo: day(2026, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := mustCalc(t, tt.payment, tt.deposit, tt.late, tt.current)
			from, to := calc.Calculate()
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestCalculate_PeriodAlwaysOneFullMonth(t *testing.T) {
	// Every output period starts on day 1 and ends on the last day of the
	// same month, whatever the inputs.
	payment := day(2023, time.November, 17)
	for offset := 0; offset <= 30; offset++ {
		calc := mustCalc(t, payment, offset, 0, false)
		from, to := calc.Calculate()

		assert.Equal(t, 1, from.Day())
		assert.Equal(t, from.Month(), to.Month())
		assert.Equal(t, from.Year(), to.Year())
		assert.Equal(t, rentcalc.DaysIn(to.Year(), to.Month()), to.Day())
	}
}

func TestCalculate_OffsetLaw(t *testing.T) {
	// Target month == payment month shifted by exactly (deposit - late).
	payment := day(2026, time.February, 28)
	for deposit := 0; deposit <= 6; deposit++ {
		for late := 0; late <= 6; late++ {
			calc := mustCalc(t, payment, deposit, late, false)
			from, _ := calc.Calculate()

			wantYear, wantMonth := rentcalc.ShiftMonth(2026, time.February, deposit-late)
			assert.Equal(t, wantYear, from.Year(), "deposit=%d late=%d", deposit, late)
			assert.Equal(t, wantMonth, from.Month(), "deposit=%d late=%d", deposit, late)
		}
	}
}

func TestCalculate_OverrideLaw(t *testing.T) {
	// PaidCurrentMonth pins the period to the payment month no matter how
	// large the other parameters are.
	payment := day(2026, time.August, 12)
	for _, deposit := range []int{0, 1, 12, 100} {
		for _, late := range []int{0, 3, 24} {
			calc := mustCalc(t, payment, deposit, late, true)
			from, to := calc.Calculate()

			assert.Equal(t, day(2026, time.August, 1), from)
			assert.Equal(t, day(2026, time.August, 31), to)
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := mustCalc(t, day(2026, time.April, 3), 2, 1, false)

	from1, to1 := calc.Calculate()
	from2, to2 := calc.Calculate()

	assert.Equal(t, from1, from2)
	assert.Equal(t, to1, to2)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestNew_RejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name    string
		payment time.Time
		deposit int
		late    int
		wantErr error
	}{
		{"zero payment date", time.Time{}, 1, 0, rentcalc.ErrPaymentDateRequired},
		{"negative rent deposit", day(2026, time.January, 5), -1, 0, rentcalc.ErrNegativeRentDeposit},
		{"negative months late", day(2026, time.January, 5), 1, -2, rentcalc.ErrNegativeMonthsLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := rentcalc.New(tt.payment, tt.deposit, tt.late, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, calc)
		})
	}
}

func TestPeriod_ConvenienceWrapper(t *testing.T) {
	from, to, err := rentcalc.Period(day(2026, time.January, 5), 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.February, 1), from)
	assert.Equal(t, day(2026, time.February, 28), to)

	_, _, err = rentcalc.Period(time.Time{}, 1, 0, false)
	assert.ErrorIs(t, err, rentcalc.ErrPaymentDateRequired)
}

// =============================================================================
// EXPLAIN
// =============================================================================

func TestExplain_NormalCalculation(t *testing.T) {
	calc := mustCalc(t, day(2026, time.January, 5), 1, 0, false)

	want := "Payment on 2026-01-05 + 1 months - 0 months (offset: 1) -> Period: 2026-02-01 to 2026-02-28"
	assert.Equal(t, want, calc.Explain())
	// Stable across calls: downstream alert reasons embed this string.
	assert.Equal(t, calc.Explain(), calc.Explain())
}

func TestExplain_NegativeOffset(t *testing.T) {
	calc := mustCalc(t, day(2026, time.March, 15), 1, 3, false)

	want := "Payment on 2026-03-15 + 1 months - 3 months (offset: -2) -> Period: 2026-01-01 to 2026-01-31"
	assert.Equal(t, want, calc.Explain())
}

func TestExplain_CurrentMonthOverride(t *testing.T) {
	calc := mustCalc(t, day(2026, time.January, 25), 1, 0, true)

	want := "Payment on 2026-01-25 for current month (PaidCurrentMonth flag set) -> Period: 2026-01-01 to 2026-01-31"
	assert.Equal(t, want, calc.Explain())
}
