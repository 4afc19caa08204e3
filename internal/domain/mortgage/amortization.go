// Package mortgage computes annuity and linear amortization figures for
// mortgage lines. All functions are pure; the caller supplies the clock.
package mortgage

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule is the amortization state of a mortgage line at a given instant.
// InterestPayment and PrincipalRepayment are the split of the *current* month
// on top of the simulated history.
type Schedule struct {
	DurationMonths     int
	MonthlyPayment     decimal.Decimal
	AccumulatedAmount  decimal.Decimal // principal repaid so far
	RemainingAmount    decimal.Decimal
	InterestPayment    decimal.Decimal
	PrincipalRepayment decimal.Decimal
	MonthsPassed       int
	Month              int
}

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// monthsBetween returns the number of whole months from a to b, negative when
// b precedes a. Partial months are truncated on the day of month.
func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

// durationMonths returns the loan duration in whole months, floored at 1.
func durationMonths(start, end time.Time) int {
	n := monthsBetween(start, end)
	if n < 1 {
		return 1
	}
	return n
}

// AnnuitySchedule computes the fixed-payment amortization state.
//
// The monthly payment is M = P*r*(1+r)^n / ((1+r)^n - 1) with r the monthly
// rate and n the duration in months. The balance is simulated month by month
// from start up to min(monthsElapsed, n) and the current month's
// interest/principal split is computed on the remaining balance.
//
// Note: unlike LinearSchedule there is no guard for start > now; a future
// start yields a non-positive MonthsPassed and interest over the full
// principal. Pinned by TestAnnuitySchedule_FutureStartNotGuarded.
func AnnuitySchedule(principal, annualRate decimal.Decimal, start, end, now time.Time) Schedule {
	n := durationMonths(start, end)
	monthlyRate := annualRate.Div(twelve).Div(hundred)

	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	} else {
		// (1+r)^n needs a float power; everything else stays decimal.
		r := monthlyRate.InexactFloat64()
		factor := math.Pow(1+r, float64(n))
		payment = decimal.NewFromFloat(principal.InexactFloat64() * r * factor / (factor - 1)).Round(2)
	}

	monthsPassed := monthsBetween(start, now)
	if monthsPassed > n {
		monthsPassed = n
	}

	remaining := principal
	for m := 0; m < monthsPassed; m++ {
		interest := remaining.Mul(monthlyRate)
		remaining = remaining.Sub(payment.Sub(interest))
	}
	if remaining.LessThan(decimal.Zero) {
		remaining = decimal.Zero
	}

	interest := remaining.Mul(monthlyRate).Round(2)
	month := monthsPassed + 1
	if month > n {
		month = n
	}

	return Schedule{
		DurationMonths:     n,
		MonthlyPayment:     payment,
		AccumulatedAmount:  principal.Sub(remaining).Round(2),
		RemainingAmount:    remaining.Round(2),
		InterestPayment:    interest,
		PrincipalRepayment: payment.Sub(interest).Round(2),
		MonthsPassed:       monthsPassed,
		Month:              month,
	}
}

// LinearSchedule computes the fixed-principal amortization state: P/n
// principal per month, interest on the declining balance. The total monthly
// payment therefore strictly decreases over the loan's life.
//
// When the loan has not started yet (start after now) the all-zero Schedule is
// returned: no payments have begun.
func LinearSchedule(principal, annualRate decimal.Decimal, start, end, now time.Time) Schedule {
	if start.After(now) {
		return Schedule{}
	}

	n := durationMonths(start, end)
	monthlyRate := annualRate.Div(twelve).Div(hundred)
	monthlyPrincipal := principal.Div(decimal.NewFromInt(int64(n)))

	monthsPassed := monthsBetween(start, now)
	if monthsPassed > n {
		monthsPassed = n
	}

	accumulated := monthlyPrincipal.Mul(decimal.NewFromInt(int64(monthsPassed)))
	remaining := principal.Sub(accumulated)
	if remaining.LessThan(decimal.Zero) {
		remaining = decimal.Zero
	}

	interest := remaining.Mul(monthlyRate).Round(2)
	month := monthsPassed + 1
	if month > n {
		month = n
	}

	return Schedule{
		DurationMonths:     n,
		MonthlyPayment:     monthlyPrincipal.Add(interest).Round(2),
		AccumulatedAmount:  accumulated.Round(2),
		RemainingAmount:    remaining.Round(2),
		InterestPayment:    interest,
		PrincipalRepayment: monthlyPrincipal.Round(2),
		MonthsPassed:       monthsPassed,
		Month:              month,
	}
}

// ScheduleFor dispatches on the mortgage type constant. Unknown types fall
// back to annuity, the dominant mortgage form.
func ScheduleFor(mortgageType string, principal, annualRate decimal.Decimal, start, end, now time.Time) Schedule {
	if mortgageType == "Linear" {
		return LinearSchedule(principal, annualRate, start, end, now)
	}
	return AnnuitySchedule(principal, annualRate, start, end, now)
}
