package overtime_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/overtime"
)

func entry(timeIn, timeOut string) overtime.EntryInput {
	return overtime.EntryInput{
		EmployeeID: "emp-1",
		Date:       "2025-03-12",
		TimeIn:     timeIn,
		TimeOut:    timeOut,
	}
}

func TestValidateEntry_ValidStandardDay(t *testing.T) {
	res := overtime.ValidateEntry(entry("09:00", "17:30"))
	if !res.IsValid {
		t.Errorf("expected valid entry, got %v", res.Errors)
	}
	if res.Err() != nil {
		t.Error("valid result must convert to a nil error")
	}
}

func TestValidateEntry_ValidOvernightShift(t *testing.T) {
	// 22:00-06:00 wraps 8 hours past midnight; well within plausibility.
	res := overtime.ValidateEntry(entry("22:00", "06:00"))
	if !res.IsValid {
		t.Errorf("expected valid overnight entry, got %v", res.Errors)
	}
}

func TestValidateEntry_ImplausibleWrapRejected(t *testing.T) {
	// GIVEN: 08:00-07:00, a 23-hour wrap
	// WHEN: Validating
	// THEN: Rejected; far more likely a typo than a legal shift

	res := overtime.ValidateEntry(entry("08:00", "07:00"))
	if res.IsValid {
		t.Fatal("a 23-hour wrap should not validate")
	}
}

func TestValidateEntry_EqualTimesRejected(t *testing.T) {
	res := overtime.ValidateEntry(entry("09:00", "09:00"))
	if res.IsValid {
		t.Fatal("time out equal to time in should not validate")
	}
	if !strings.Contains(strings.Join(res.Errors, "; "), "time out must be after time in") {
		t.Errorf("expected ordering violation, got %v", res.Errors)
	}
}

func TestValidateEntry_CollectsAllViolations(t *testing.T) {
	// GIVEN: An entry violating several rules at once
	// WHEN: Validating
	// THEN: Every violated rule is reported; nothing short-circuits

	res := overtime.ValidateEntry(overtime.EntryInput{
		TimeIn:        "25:00",
		TimeOut:       "xx",
		BreakDuration: decimal.NewFromInt(-1),
	})
	if res.IsValid {
		t.Fatal("expected invalid entry")
	}
	if len(res.Errors) < 4 {
		t.Errorf("expected at least 4 violations (employee, date, break, times), got %v", res.Errors)
	}
}

func TestValidateEntry_BadDate(t *testing.T) {
	in := entry("09:00", "17:00")
	in.Date = "03/12/2025"

	res := overtime.ValidateEntry(in)
	if res.IsValid {
		t.Fatal("non-ISO date should not validate")
	}
}

func TestValidationResult_ErrWrapsSentinel(t *testing.T) {
	res := overtime.ValidateEntry(overtime.EntryInput{})
	err := res.Err()
	if !errors.Is(err, overtime.ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed in the chain, got %v", err)
	}

	var vErr *overtime.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Violations) == 0 {
		t.Errorf("expected a ValidationError carrying violations, got %v", err)
	}
}
