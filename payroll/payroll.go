/*
Package payroll models employee payroll classification and the external
employee directory.

PURPOSE:
  The overtime rules dispatch on employment attributes: employment type,
  exemption, pay type, and the overtime multiplier. This package owns
  those types and the adapter that resolves a profile snapshot from the
  external directory.

DESIGN PRINCIPLES:
  1. Closed variant: EmploymentType covers the six known categories plus
     an explicit Unrecognized case. Unrecognized routes to the stricter
     weekly-cumulative path, never silently to zero overtime.
  2. No silent defaults on failure: a lookup failure surfaces
     EmployeeLookupFailedError. Fabricating a stand-in profile during a
     directory outage would misclassify real payroll. Defaults apply only
     to genuinely optional fields on a record that was actually found.
  3. Snapshot semantics: the engine reads one profile per calculation and
     never mutates it; the directory owns the data.

SEE ALSO:
  - overtime/rules.go: classification dispatch over these types
  - store/memory, store/sqlite, store/postgres: Directory implementations
*/
package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYMENT CLASSIFICATION
// =============================================================================

// EmploymentType is a closed variant over the known payroll categories.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentTemporary  EmploymentType = "temporary"
	EmploymentContractor EmploymentType = "contractor"
	EmploymentIntern     EmploymentType = "intern"
	EmploymentSeasonal   EmploymentType = "seasonal"

	// EmploymentUnrecognized is the fail-safe case for types this build
	// does not know. It is classified under the weekly-cumulative rule:
	// the strict path that can still produce overtime.
	EmploymentUnrecognized EmploymentType = "unrecognized"
)

// ParseEmploymentType maps a directory string onto the closed variant.
// Unknown values become EmploymentUnrecognized.
func ParseEmploymentType(s string) EmploymentType {
	switch EmploymentType(s) {
	case EmploymentFullTime, EmploymentPartTime, EmploymentTemporary,
		EmploymentContractor, EmploymentIntern, EmploymentSeasonal:
		return EmploymentType(s)
	default:
		return EmploymentUnrecognized
	}
}

// UsesWeeklyThreshold reports whether the type is classified under the
// weekly-cumulative 40h rule. Part-time uses daily tiers; contractors are
// never overtime-eligible.
func (t EmploymentType) UsesWeeklyThreshold() bool {
	switch t {
	case EmploymentFullTime, EmploymentTemporary, EmploymentIntern,
		EmploymentSeasonal, EmploymentUnrecognized:
		return true
	default:
		return false
	}
}

// PayType distinguishes hourly from salaried employees.
type PayType string

const (
	PayHourly   PayType = "hourly"
	PaySalaried PayType = "salaried"
)

// DefaultOvertimeMultiplier applies when the directory record carries no
// multiplier. Time-and-a-half.
var DefaultOvertimeMultiplier = decimal.NewFromFloat(1.5)

// Employee is a read-only snapshot of a directory record at calculation
// time.
type Employee struct {
	ID                 string
	Name               string
	EmploymentType     EmploymentType
	IsExempt           bool
	PayType            PayType
	HourlyRate         decimal.Decimal
	SalaryAmount       decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

// OvertimeEligible reports whether any threshold rule applies at all.
func (e Employee) OvertimeEligible() bool {
	return !e.IsExempt && e.EmploymentType != EmploymentContractor
}

// =============================================================================
// DIRECTORY - external collaborator
// =============================================================================

// ErrEmployeeNotFound is returned by Directory implementations for an
// unknown employee ID.
var ErrEmployeeNotFound = errors.New("employee not found")

// Directory is the external employee directory. The engine only reads.
type Directory interface {
	Get(ctx context.Context, employeeID string) (Employee, error)
}

// DirectoryAdmin extends Directory with the write used to seed and
// maintain records. The engine never uses it; the API surface does.
type DirectoryAdmin interface {
	Directory
	Put(ctx context.Context, e Employee) error
}

// EmployeeLookupFailedError wraps any directory failure: unknown ID or
// transport error. Callers must not substitute a default classification.
type EmployeeLookupFailedError struct {
	EmployeeID string
	Err        error
}

func (e *EmployeeLookupFailedError) Error() string {
	return fmt.Sprintf("employee lookup failed for %q: %v", e.EmployeeID, e.Err)
}

func (e *EmployeeLookupFailedError) Unwrap() error { return e.Err }

// Resolve fetches a profile snapshot and normalizes optional attributes.
// Failures surface as EmployeeLookupFailedError.
func Resolve(ctx context.Context, dir Directory, employeeID string) (Employee, error) {
	emp, err := dir.Get(ctx, employeeID)
	if err != nil {
		return Employee{}, &EmployeeLookupFailedError{EmployeeID: employeeID, Err: err}
	}

	emp.EmploymentType = ParseEmploymentType(string(emp.EmploymentType))
	if emp.OvertimeMultiplier.IsZero() {
		emp.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	if emp.PayType == "" {
		emp.PayType = PayHourly
	}
	return emp, nil
}
