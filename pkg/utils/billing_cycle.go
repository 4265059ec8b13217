package utils

import (
	"time"

	"github.com/shopspring/decimal"

	dbm "subtrack/internal/models/db_models"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	weeksPerYear  = decimal.NewFromInt(52)
)

// NextRenewal returns when a charge made at chargedAt on the given cycle is
// expected to recur, or nil when the cycle does not recur.
func NextRenewal(chargedAt time.Time, cycle dbm.BillingCycle) *time.Time {
	var next time.Time
	switch cycle {
	case dbm.CycleMonthly:
		next = AddMonthsClamped(chargedAt, 1)
	case dbm.CycleYearly:
		next = AddMonthsClamped(chargedAt, 12)
	case dbm.CycleWeekly:
		next = chargedAt.AddDate(0, 0, 7)
	default:
		return nil
	}
	return &next
}

// MonthlyAmount normalizes a charge amount to its monthly equivalent.
// Non-recurring cycles are not a monthly obligation and yield zero.
func MonthlyAmount(cycle dbm.BillingCycle, amount decimal.Decimal) decimal.Decimal {
	switch cycle {
	case dbm.CycleMonthly:
		return amount
	case dbm.CycleYearly:
		return amount.Div(monthsPerYear)
	case dbm.CycleWeekly:
		return amount.Mul(weeksPerYear).Div(monthsPerYear)
	default:
		return decimal.Zero
	}
}

// CyclePeriodEnd advances t by n whole cycle periods. Non-recurring cycles
// return t unchanged.
func CyclePeriodEnd(t time.Time, cycle dbm.BillingCycle, n int) time.Time {
	switch cycle {
	case dbm.CycleMonthly:
		return AddMonthsClamped(t, n)
	case dbm.CycleYearly:
		return AddMonthsClamped(t, 12*n)
	case dbm.CycleWeekly:
		return t.AddDate(0, 0, 7*n)
	default:
		return t
	}
}

// AddMonthsClamped adds months to t, clamping the day to the last valid day
// of the target month (Jan 31 + 1 month is Feb 28 or 29, not Mar 2).
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
