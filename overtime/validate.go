/*
validate.go - Timesheet entry validation

Validation runs before anything is written: a failed entry produces the
specific rules violated and no partial write.
*/
package overtime

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/clock"
)

// maxOvernightShiftMinutes bounds what counts as a plausible overnight
// shift. A timeOut earlier than timeIn wraps past midnight; wraps longer
// than 16 hours are far more likely a typo than a legal shift.
const maxOvernightShiftMinutes = 16 * 60

var maxDayHours = decimal.NewFromInt(24)

// EntryInput is a candidate timesheet entry as submitted by a caller.
type EntryInput struct {
	EmployeeID    string
	Date          string // YYYY-MM-DD
	TimeIn        string // HH:MM
	TimeOut       string // HH:MM
	BreakDuration decimal.Decimal // hours
}

// ValidationResult is the validateTimesheetEntry contract.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Err converts a failed result into a ValidationError, nil otherwise.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Violations: r.Errors}
}

// ValidateEntry checks a timesheet entry against the submission rules:
// employee and date present, parseable clock times, timeOut after timeIn
// unless plausibly an overnight shift, total at most 24h, and a
// non-negative break.
func ValidateEntry(entry EntryInput) ValidationResult {
	var violations []string

	if entry.EmployeeID == "" {
		violations = append(violations, "employee id is required")
	}
	if entry.Date == "" {
		violations = append(violations, "date is required")
	} else if _, err := clock.ParseDate(entry.Date); err != nil {
		violations = append(violations, fmt.Sprintf("date %q is not a valid YYYY-MM-DD date", entry.Date))
	}
	if entry.BreakDuration.IsNegative() {
		violations = append(violations, "break duration must not be negative")
	}

	inMinutes, inErr := clock.ToMinutes(entry.TimeIn)
	if inErr != nil {
		violations = append(violations, inErr.Error())
	}
	outMinutes, outErr := clock.ToMinutes(entry.TimeOut)
	if outErr != nil {
		violations = append(violations, outErr.Error())
	}

	if inErr == nil && outErr == nil {
		switch {
		case outMinutes == inMinutes:
			violations = append(violations, "time out must be after time in")
		case outMinutes < inMinutes:
			// Overnight wrap. Plausible only up to the shift-length bound.
			if outMinutes+24*60-inMinutes > maxOvernightShiftMinutes {
				violations = append(violations, "time out must be after time in (shift too long to be an overnight shift)")
			}
		}

		if len(violations) == 0 {
			total, err := clock.ElapsedHours(entry.TimeIn, entry.TimeOut, entry.BreakDuration)
			if err == nil && total.GreaterThan(maxDayHours) {
				violations = append(violations, "total hours must not exceed 24")
			}
		}
	}

	return ValidationResult{IsValid: len(violations) == 0, Errors: violations}
}
