/*
Package overtime is the core rule engine: it turns worked hours into
payroll-grade regular/overtime/double-overtime splits and keeps a week's
day records consistent through the recalculation cascade.

KEY CONCEPTS:
  - DayRecord: one employee-date pair with the derived hour split
  - CalculationMethod: which rule produced a record
  - Weekly-cumulative: 40h running threshold across a Monday-Sunday week
  - Daily-tiered: 8h overtime / 12h double-overtime per single day
  - Cascade: in-order re-derivation of a whole week after any change

INVARIANT (every record):
  TotalHours == Round4(RegularHours) + Round4(OvertimeHours) +
                Round4(DoubleOvertimeHours)
  and every component is a non-negative multiple of 0.25.

SEE ALSO:
  - rules.go: the classification dispatch
  - engine.go: entry calculation and the weekly cascade
  - validate.go: timesheet entry validation
*/
package overtime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATION METHOD
// =============================================================================

// CalculationMethod names the rule that produced a day record.
type CalculationMethod string

const (
	MethodWeeklyCumulative    CalculationMethod = "weekly_cumulative"
	MethodDailyThreshold      CalculationMethod = "daily_threshold"
	MethodManualOverride      CalculationMethod = "manual_override"
	MethodExemptNoCalculation CalculationMethod = "exempt_no_calculation"
)

// =============================================================================
// DAY RECORD
// =============================================================================

// DayRecord is one employee-date pair with its derived hour split. The
// Timesheet Store owns persistence; the engine re-reads current state on
// every calculation and never caches records across calls.
type DayRecord struct {
	ID         string
	EmployeeID string
	Date       time.Time

	TimeIn        string
	TimeOut       string
	BreakDuration decimal.Decimal // hours

	RegularHours        decimal.Decimal
	OvertimeHours       decimal.Decimal
	DoubleOvertimeHours decimal.Decimal
	TotalHours          decimal.Decimal

	CalculationMethod CalculationMethod
	IsManualOverride  bool

	// WeeklyHoursAtCalculation is a snapshot, not a live reference, of the
	// cumulative week total at the moment this record was last computed.
	// Nil outside the weekly-cumulative path.
	WeeklyHoursAtCalculation *decimal.Decimal

	UpdatedAt time.Time
}

// =============================================================================
// TIMESHEET STORE - external collaborator
// =============================================================================

// TimesheetStore persists day records. Implementations must serialize
// writes so concurrent cascades for the same employee and week cannot
// interleave lost updates (see engine.go week lock).
type TimesheetStore interface {
	// QueryByEmployeeAndDateRange returns the records with start <= date
	// <= end, ordered by date ascending.
	QueryByEmployeeAndDateRange(ctx context.Context, employeeID string, start, end time.Time) ([]DayRecord, error)

	// Upsert creates or replaces the record for (EmployeeID, Date),
	// keeping the existing identity. The stored record is returned.
	Upsert(ctx context.Context, rec DayRecord) (DayRecord, error)
}
