/*
rules.go - The threshold algorithms

DISPATCH PRIORITY:
  1. Exempt employee        -> exempt_no_calculation, all regular
  2. Manual override flag   -> manual_override, all regular
  3. Contractor             -> exempt_no_calculation, all regular
  4. Weekly-cumulative      -> full_time, temporary, intern, seasonal,
                               and any unrecognized type (fail-safe toward
                               the stricter path)
  5. Daily-tiered           -> part_time

  The override flag is caller-supplied state on the day record, not an
  employee attribute: it is the administrative final word and skips all
  threshold logic.

ROUNDING:
  Every output component passes through clock.Round4. The stored total is
  Round4(regular + overtime + doubleOvertime) - a derived value, never an
  independently rounded copy of the input, which preserves the sum
  invariant on DayRecord.
*/
package overtime

import (
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/payroll"
)

// Statutory thresholds, in hours.
var (
	weeklyOvertimeThreshold      = decimal.NewFromInt(40)
	dailyOvertimeThreshold       = decimal.NewFromInt(8)
	dailyDoubleOvertimeThreshold = decimal.NewFromInt(12)
)

// Split is the outcome of classifying one day's hours.
type Split struct {
	Regular        decimal.Decimal
	Overtime       decimal.Decimal
	DoubleOvertime decimal.Decimal
	Total          decimal.Decimal
	Method         CalculationMethod

	// WeeklyTotal is the cumulative week total including this day.
	// Set only on the weekly-cumulative path.
	WeeklyTotal *decimal.Decimal
}

// Classify splits one day's hours into regular/overtime/double-overtime
// per the employee's classification. weekOtherDays is the cumulative
// total of the week's other days; it is only consulted on the
// weekly-cumulative path.
//
// Classify is pure: same inputs, same split, every time. The cascade
// depends on that for idempotence.
func Classify(emp payroll.Employee, totalToday, weekOtherDays decimal.Decimal, manualOverride bool) Split {
	switch {
	case emp.IsExempt:
		return allRegular(totalToday, MethodExemptNoCalculation)

	case manualOverride:
		return allRegular(totalToday, MethodManualOverride)

	case emp.EmploymentType == payroll.EmploymentContractor:
		return allRegular(totalToday, MethodExemptNoCalculation)

	case emp.EmploymentType.UsesWeeklyThreshold():
		return weeklyCumulative(totalToday, weekOtherDays)

	default:
		return dailyTiered(totalToday)
	}
}

// allRegular short-circuits: the full day is regular time.
func allRegular(totalToday decimal.Decimal, method CalculationMethod) Split {
	regular := clock.Round4(totalToday)
	return Split{
		Regular:        regular,
		Overtime:       decimal.Zero,
		DoubleOvertime: decimal.Zero,
		Total:          regular,
		Method:         method,
	}
}

// weeklyCumulative applies the 40h running-week threshold. Hours pushing
// the week total past 40 become overtime; there is no double-overtime
// tier on this path.
func weeklyCumulative(totalToday, weekOtherDays decimal.Decimal) Split {
	newTotal := weekOtherDays.Add(totalToday)

	overtime := decimal.Zero
	if newTotal.GreaterThan(weeklyOvertimeThreshold) {
		over := newTotal.Sub(weeklyOvertimeThreshold)
		overtime = decimal.Min(totalToday, over)
	}
	regular := totalToday.Sub(overtime)

	return rounded(regular, overtime, decimal.Zero, MethodWeeklyCumulative, &newTotal)
}

// dailyTiered applies the per-day 8h/12h tiers, evaluated against the
// single day alone.
func dailyTiered(totalToday decimal.Decimal) Split {
	var regular, overtime, double decimal.Decimal

	switch {
	case totalToday.LessThanOrEqual(dailyOvertimeThreshold):
		regular = totalToday
	case totalToday.LessThanOrEqual(dailyDoubleOvertimeThreshold):
		regular = dailyOvertimeThreshold
		overtime = totalToday.Sub(dailyOvertimeThreshold)
	default:
		regular = dailyOvertimeThreshold
		overtime = dailyDoubleOvertimeThreshold.Sub(dailyOvertimeThreshold)
		double = totalToday.Sub(dailyDoubleOvertimeThreshold)
	}

	return rounded(regular, overtime, double, MethodDailyThreshold, nil)
}

func rounded(regular, overtime, double decimal.Decimal, method CalculationMethod, weeklyTotal *decimal.Decimal) Split {
	r := clock.Round4(regular)
	o := clock.Round4(overtime)
	d := clock.Round4(double)
	return Split{
		Regular:        r,
		Overtime:       o,
		DoubleOvertime: d,
		Total:          clock.Round4(r.Add(o).Add(d)),
		Method:         method,
		WeeklyTotal:    weeklyTotal,
	}
}
