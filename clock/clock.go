/*
Package clock provides the time arithmetic for the overtime engine.

PURPOSE:
  Pure functions for converting clock-time strings ("HH:MM") into minute
  offsets, computing elapsed shift duration (including overnight shifts
  that cross midnight), and rounding durations to payroll quarter-hour
  increments.

KEY CONCEPTS:
  - Minute offset: minutes since midnight, 0..1439
  - Overnight shift: timeOut earlier than timeIn means the shift crossed
    midnight; a day's worth of minutes is added before subtracting
  - Quarter-hour rounding: nearest 0.25h, ties away from zero

DESIGN PRINCIPLES:
  1. Purity: every function here is total and referentially transparent.
     The rule engine and the weekly cascade call these repeatedly over the
     same inputs and must get identical results.
  2. Precision: decimal.Decimal for all hour quantities. Floats appear
     only at ingress, guarded by HoursFromFloat.

SEE ALSO:
  - week.go: Monday-Sunday week windows and date helpers
  - overtime/rules.go: consumes these functions for classification
*/
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// MalformedTimeError reports a clock string that does not parse as
// a 24-hour "HH:MM" value.
type MalformedTimeError struct {
	Value string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: expected HH:MM in 00:00-23:59", e.Value)
}

// ToMinutes converts a clock-time string "HH:MM" into minutes since
// midnight. Hours must be 0-23 and minutes 0-59.
func ToMinutes(value string) (int, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, &MalformedTimeError{Value: value}
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, &MalformedTimeError{Value: value}
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, &MalformedTimeError{Value: value}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, &MalformedTimeError{Value: value}
	}
	return hours*minutesPerHour + minutes, nil
}

// ElapsedHours computes the hours worked between two clock times, minus
// break time. If timeOut is earlier than timeIn the shift is treated as
// crossing midnight. The result never goes below zero.
func ElapsedHours(timeIn, timeOut string, breakHours decimal.Decimal) (decimal.Decimal, error) {
	inMinutes, err := ToMinutes(timeIn)
	if err != nil {
		return decimal.Zero, err
	}
	outMinutes, err := ToMinutes(timeOut)
	if err != nil {
		return decimal.Zero, err
	}

	if outMinutes < inMinutes {
		outMinutes += minutesPerDay
	}

	worked := decimal.NewFromInt(int64(outMinutes - inMinutes)).
		Div(decimal.NewFromInt(minutesPerHour)).
		Sub(breakHours)
	if worked.IsNegative() {
		return decimal.Zero, nil
	}
	return worked, nil
}

// Round4 rounds an hour quantity to the nearest 0.25, ties away from zero.
// decimal's Round uses half-away-from-zero, which is exactly the payroll
// rounding rule here.
func Round4(hours decimal.Decimal) decimal.Decimal {
	return hours.Mul(decimal.NewFromInt(4)).Round(0).Div(decimal.NewFromInt(4))
}

// HoursFromFloat converts a float hour quantity into a decimal.
// Non-finite input (NaN, +-Inf) yields zero; decimal.NewFromFloat panics
// on those, and callers feed this from untrusted JSON numbers.
func HoursFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
