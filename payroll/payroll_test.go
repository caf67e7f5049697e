package payroll_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/payroll"
)

// failingDirectory simulates a directory outage.
type failingDirectory struct{ err error }

func (d failingDirectory) Get(context.Context, string) (payroll.Employee, error) {
	return payroll.Employee{}, d.err
}

// staticDirectory serves one fixed record.
type staticDirectory struct{ emp payroll.Employee }

func (d staticDirectory) Get(_ context.Context, id string) (payroll.Employee, error) {
	if id != d.emp.ID {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return d.emp, nil
}

// =============================================================================
// EMPLOYMENT TYPE
// =============================================================================

func TestParseEmploymentType_UnknownBecomesUnrecognized(t *testing.T) {
	// GIVEN: A directory value this build does not know
	// WHEN: Parsing it
	// THEN: It maps to the explicit unrecognized case, which still routes
	//       to the weekly rule

	got := payroll.ParseEmploymentType("gig_worker")
	if got != payroll.EmploymentUnrecognized {
		t.Errorf("expected unrecognized, got %s", got)
	}
	if !got.UsesWeeklyThreshold() {
		t.Error("unrecognized must use the weekly threshold")
	}
}

func TestUsesWeeklyThreshold_ByType(t *testing.T) {
	weekly := []payroll.EmploymentType{
		payroll.EmploymentFullTime,
		payroll.EmploymentTemporary,
		payroll.EmploymentIntern,
		payroll.EmploymentSeasonal,
		payroll.EmploymentUnrecognized,
	}
	for _, ty := range weekly {
		if !ty.UsesWeeklyThreshold() {
			t.Errorf("%s should use the weekly threshold", ty)
		}
	}

	if payroll.EmploymentPartTime.UsesWeeklyThreshold() {
		t.Error("part_time uses daily tiers, not the weekly threshold")
	}
	if payroll.EmploymentContractor.UsesWeeklyThreshold() {
		t.Error("contractors are never on the weekly threshold")
	}
}

func TestOvertimeEligible(t *testing.T) {
	exempt := payroll.Employee{EmploymentType: payroll.EmploymentFullTime, IsExempt: true}
	if exempt.OvertimeEligible() {
		t.Error("exempt employees are not overtime-eligible")
	}

	contractor := payroll.Employee{EmploymentType: payroll.EmploymentContractor}
	if contractor.OvertimeEligible() {
		t.Error("contractors are not overtime-eligible")
	}

	fullTime := payroll.Employee{EmploymentType: payroll.EmploymentFullTime}
	if !fullTime.OvertimeEligible() {
		t.Error("non-exempt full_time is overtime-eligible")
	}
}

// =============================================================================
// RESOLVE
// =============================================================================

func TestResolve_LookupFailureNeverFabricatesProfile(t *testing.T) {
	// GIVEN: A directory that fails every lookup
	// WHEN: Resolving a profile
	// THEN: The failure surfaces as EmployeeLookupFailedError; no default
	//       classification is substituted

	dir := failingDirectory{err: errors.New("directory timeout")}

	_, err := payroll.Resolve(context.Background(), dir, "emp-1")
	var lookupErr *payroll.EmployeeLookupFailedError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected EmployeeLookupFailedError, got %v", err)
	}
	if lookupErr.EmployeeID != "emp-1" {
		t.Errorf("error should name the employee, got %q", lookupErr.EmployeeID)
	}
}

func TestResolve_UnknownEmployee(t *testing.T) {
	dir := staticDirectory{emp: payroll.Employee{ID: "emp-1"}}

	_, err := payroll.Resolve(context.Background(), dir, "emp-unknown")
	if !errors.Is(err, payroll.ErrEmployeeNotFound) {
		t.Errorf("expected wrapped ErrEmployeeNotFound, got %v", err)
	}
}

func TestResolve_DefaultsApplyOnlyToFoundRecords(t *testing.T) {
	// GIVEN: A found record missing the optional multiplier and pay type
	// WHEN: Resolving
	// THEN: Multiplier defaults to 1.5 and pay type to hourly

	dir := staticDirectory{emp: payroll.Employee{
		ID:             "emp-1",
		EmploymentType: payroll.EmploymentFullTime,
	}}

	emp, err := payroll.Resolve(context.Background(), dir, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !emp.OvertimeMultiplier.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("expected default multiplier 1.5, got %s", emp.OvertimeMultiplier)
	}
	if emp.PayType != payroll.PayHourly {
		t.Errorf("expected default pay type hourly, got %s", emp.PayType)
	}
}

func TestResolve_NormalizesUnknownEmploymentType(t *testing.T) {
	dir := staticDirectory{emp: payroll.Employee{
		ID:             "emp-1",
		EmploymentType: payroll.EmploymentType("freelancer"),
	}}

	emp, err := payroll.Resolve(context.Background(), dir, "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emp.EmploymentType != payroll.EmploymentUnrecognized {
		t.Errorf("expected unrecognized, got %s", emp.EmploymentType)
	}
}
