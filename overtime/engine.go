/*
engine.go - Entry calculation and the weekly recalculation cascade

PURPOSE:
  The Engine wires the pure rules to the external collaborators: the
  employee directory and the timesheet store. Both are injected; there is
  no ambient process-wide handle.

DATA FLOW:
  punch-out / manual entry
    -> clock.ElapsedHours (total hours)
    -> payroll.Resolve (classification snapshot)
    -> Classify (hour split)
    -> TimesheetStore.Upsert (day record)
  Any change to a day inside a week is followed by RecalculateWeek over
  that week's stored records.

CONCURRENCY:
  Two concurrent cascades for the same employee and week are a
  lost-update hazard: one can read stale totals after the other has
  written. RecalculateWeek serializes per (employeeID, weekStart) with a
  keyed mutex; a second caller waits for the first to complete. A
  single-day calculation does not take the week lock; its cascade trigger
  is ordered after the day write commits.

FAILURE:
  A cascade that fails mid-walk aborts and reports the last successfully
  written date via CascadeError. Already-written days hold fresh values,
  later days are stale; because the walk is idempotent, the recovery is a
  full retry of the week.
*/
package overtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/metrics"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// writeTolerance is the hour delta below which a cascade skips the
// write-back. Quarter-hour components either match exactly or differ by
// at least 0.25, so 0.01 only filters true no-ops.
var writeTolerance = decimal.NewFromFloat(0.01)

// Engine performs overtime calculations against injected collaborators.
type Engine struct {
	directory  payroll.Directory
	timesheets TimesheetStore
	punches    punch.Store
	logger     *slog.Logger

	locksMu   sync.Mutex
	weekLocks map[weekKey]*sync.Mutex
}

type weekKey struct {
	EmployeeID string
	WeekStart  string
}

// NewEngine creates an engine. punches may be nil when the punch-log
// surface is not used; logger nil falls back to slog.Default().
func NewEngine(directory payroll.Directory, timesheets TimesheetStore, punches punch.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		directory:  directory,
		timesheets: timesheets,
		punches:    punches,
		logger:     logger,
		weekLocks:  make(map[weekKey]*sync.Mutex),
	}
}

// CalculateHoursWorked computes quarter-hour-rounded hours between two
// clock times minus break time. Pure; no store access.
func CalculateHoursWorked(timeIn, timeOut string, breakHours decimal.Decimal) (decimal.Decimal, error) {
	worked, err := clock.ElapsedHours(timeIn, timeOut, breakHours)
	if err != nil {
		return decimal.Zero, err
	}
	return clock.Round4(worked), nil
}

// CalculationInput describes one day to calculate.
type CalculationInput struct {
	EmployeeID       string
	Date             time.Time
	TimeIn           string
	TimeOut          string
	BreakHours       decimal.Decimal
	IsManualOverride bool
}

// CalculateEntry performs the full classification for one employee-day
// and upserts the resulting record. Weekly context is fetched only for
// employment types on the weekly-cumulative path; the sum excludes the
// day being calculated so recalculating an existing day never counts
// itself twice.
func (e *Engine) CalculateEntry(ctx context.Context, in CalculationInput) (DayRecord, error) {
	e.logger.Debug("calculation started",
		"employee_id", in.EmployeeID,
		"date", clock.FormatDate(in.Date),
		"manual_override", in.IsManualOverride)

	emp, err := payroll.Resolve(ctx, e.directory, in.EmployeeID)
	if err != nil {
		return DayRecord{}, err
	}

	total, err := clock.ElapsedHours(in.TimeIn, in.TimeOut, in.BreakHours)
	if err != nil {
		return DayRecord{}, err
	}

	weekOther := decimal.Zero
	if e.needsWeeklyContext(emp, in.IsManualOverride) {
		weekOther, err = e.weekOtherDaysTotal(ctx, in.EmployeeID, in.Date)
		if err != nil {
			return DayRecord{}, err
		}
	}

	split := Classify(emp, total, weekOther, in.IsManualOverride)

	rec := DayRecord{
		EmployeeID:               in.EmployeeID,
		Date:                     clock.Day(in.Date),
		TimeIn:                   in.TimeIn,
		TimeOut:                  in.TimeOut,
		BreakDuration:            in.BreakHours,
		RegularHours:             split.Regular,
		OvertimeHours:            split.Overtime,
		DoubleOvertimeHours:      split.DoubleOvertime,
		TotalHours:               split.Total,
		CalculationMethod:        split.Method,
		IsManualOverride:         in.IsManualOverride,
		WeeklyHoursAtCalculation: split.WeeklyTotal,
	}

	saved, err := e.timesheets.Upsert(ctx, rec)
	if err != nil {
		return DayRecord{}, &StoreError{Op: "upsert day record", Err: err}
	}

	metrics.ObserveCalculation(string(split.Method))
	e.logger.Info("classification result",
		"employee_id", in.EmployeeID,
		"date", clock.FormatDate(rec.Date),
		"method", string(split.Method),
		"regular", split.Regular.String(),
		"overtime", split.Overtime.String(),
		"double_overtime", split.DoubleOvertime.String())

	return saved, nil
}

// NeedsCascade reports whether a change to this employee's day records
// should be followed by a week recalculation. Only the weekly-cumulative
// path has cross-day state.
func (e *Engine) NeedsCascade(ctx context.Context, employeeID string) (bool, error) {
	emp, err := payroll.Resolve(ctx, e.directory, employeeID)
	if err != nil {
		return false, err
	}
	return emp.OvertimeEligible() && emp.EmploymentType.UsesWeeklyThreshold(), nil
}

// RecalculateWeek re-derives every day record in the Monday-Sunday week
// containing anyDateInWeek, in ascending date order, and returns the
// records it rewrote.
//
// The ordering is load-bearing: cumulative overtime depends on sequence,
// so the walk always starts from the first day of the week regardless of
// which day changed. Manual-override records contribute their hours to
// the running total but are never rewritten. Running the cascade twice
// over an unchanged week writes nothing the second time.
func (e *Engine) RecalculateWeek(ctx context.Context, employeeID string, anyDateInWeek time.Time) ([]DayRecord, error) {
	emp, err := payroll.Resolve(ctx, e.directory, employeeID)
	if err != nil {
		return nil, err
	}

	week := clock.WeekWindowFor(anyDateInWeek)

	if !emp.OvertimeEligible() {
		// Exempt and contractor records ignore weekly state by
		// construction; nothing to re-derive.
		e.logger.Debug("cascade skipped",
			"employee_id", employeeID,
			"week_start", clock.FormatDate(week.Start),
			"employment_type", string(emp.EmploymentType),
			"is_exempt", emp.IsExempt)
		return nil, nil
	}

	unlock := e.lockWeek(employeeID, week.Start)
	defer unlock()

	started := time.Now()

	records, err := e.timesheets.QueryByEmployeeAndDateRange(ctx, employeeID, week.Start, week.End)
	if err != nil {
		return nil, &StoreError{Op: "query week records", Err: err}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	cumulative := decimal.Zero
	var updated []DayRecord
	var lastWritten *time.Time

	for _, rec := range records {
		if rec.IsManualOverride {
			// Manual entries are inputs to, never outputs of, the cascade.
			cumulative = cumulative.Add(rec.TotalHours)
			continue
		}

		split := Classify(emp, rec.TotalHours, cumulative, false)
		if splitDiffers(rec, split) {
			rec.RegularHours = split.Regular
			rec.OvertimeHours = split.Overtime
			rec.DoubleOvertimeHours = split.DoubleOvertime
			rec.TotalHours = split.Total
			rec.CalculationMethod = split.Method
			rec.WeeklyHoursAtCalculation = split.WeeklyTotal

			saved, err := e.timesheets.Upsert(ctx, rec)
			if err != nil {
				return updated, &CascadeError{
					EmployeeID:      employeeID,
					WeekStart:       week.Start,
					LastWrittenDate: lastWritten,
					Err:             &StoreError{Op: "upsert day record", Err: err},
				}
			}
			day := saved.Date
			lastWritten = &day
			updated = append(updated, saved)
			metrics.ObserveCalculation(string(split.Method))
		}

		cumulative = cumulative.Add(rec.TotalHours)
	}

	metrics.ObserveCascade(time.Since(started), len(updated))
	e.logger.Info("cascade completed",
		"employee_id", employeeID,
		"week_start", clock.FormatDate(week.Start),
		"records", len(records),
		"rewritten", len(updated),
		"week_total", cumulative.String())

	return updated, nil
}

// CompletePunchOut turns a day's punch sequence into a day record: first
// clock-in to last clock-out, with break time derived from the punch
// intervals. The caller passes the day that owns the shift (the clock-in
// day for overnight shifts).
func (e *Engine) CompletePunchOut(ctx context.Context, employeeID string, day, now time.Time) (DayRecord, error) {
	if e.punches == nil {
		return DayRecord{}, fmt.Errorf("punch log not configured")
	}

	punches, err := e.punches.ListByDay(ctx, employeeID, day)
	if err != nil {
		return DayRecord{}, &StoreError{Op: "list punches", Err: err}
	}

	firstIn, lastOut, ok := shiftBounds(punches)
	if !ok {
		return DayRecord{}, &ValidationError{Violations: []string{"day has no completed clock-in/clock-out pair"}}
	}

	worked := punch.WorkedHours(punches, now)
	span := decimal.NewFromInt(int64(lastOut.At.Sub(firstIn.At) / time.Second)).
		Div(decimal.NewFromInt(3600))
	breakHours := span.Sub(worked)
	if breakHours.IsNegative() {
		breakHours = decimal.Zero
	}

	return e.CalculateEntry(ctx, CalculationInput{
		EmployeeID: employeeID,
		Date:       day,
		TimeIn:     firstIn.At.Format("15:04"),
		TimeOut:    lastOut.At.Format("15:04"),
		BreakHours: breakHours,
	})
}

// =============================================================================
// INTERNAL
// =============================================================================

// shiftBounds finds the first clock-in and last clock-out of a day.
func shiftBounds(punches []punch.Punch) (firstIn, lastOut punch.Punch, ok bool) {
	var haveIn, haveOut bool
	for _, p := range punches {
		switch p.Type {
		case punch.TypeIn:
			if !haveIn || p.At.Before(firstIn.At) {
				firstIn = p
				haveIn = true
			}
		case punch.TypeOut:
			if !haveOut || p.At.After(lastOut.At) {
				lastOut = p
				haveOut = true
			}
		}
	}
	return firstIn, lastOut, haveIn && haveOut && lastOut.At.After(firstIn.At)
}

func (e *Engine) needsWeeklyContext(emp payroll.Employee, manualOverride bool) bool {
	return !manualOverride && emp.OvertimeEligible() && emp.EmploymentType.UsesWeeklyThreshold()
}

// weekOtherDaysTotal sums stored totals for the week excluding the given
// date.
func (e *Engine) weekOtherDaysTotal(ctx context.Context, employeeID string, date time.Time) (decimal.Decimal, error) {
	week := clock.WeekWindowFor(date)
	records, err := e.timesheets.QueryByEmployeeAndDateRange(ctx, employeeID, week.Start, week.End)
	if err != nil {
		return decimal.Zero, &StoreError{Op: "query week records", Err: err}
	}

	total := decimal.Zero
	for _, rec := range records {
		if !clock.SameDay(rec.Date, date) {
			total = total.Add(rec.TotalHours)
		}
	}
	return total, nil
}

// splitDiffers reports whether a recomputed split moves any stored
// component beyond the write tolerance, or changes the method.
func splitDiffers(rec DayRecord, split Split) bool {
	return rec.CalculationMethod != split.Method ||
		rec.RegularHours.Sub(split.Regular).Abs().GreaterThan(writeTolerance) ||
		rec.OvertimeHours.Sub(split.Overtime).Abs().GreaterThan(writeTolerance) ||
		rec.DoubleOvertimeHours.Sub(split.DoubleOvertime).Abs().GreaterThan(writeTolerance)
}

// lockWeek serializes cascades per (employee, week). Returns the unlock.
func (e *Engine) lockWeek(employeeID string, weekStart time.Time) func() {
	k := weekKey{EmployeeID: employeeID, WeekStart: clock.FormatDate(weekStart)}

	e.locksMu.Lock()
	l, ok := e.weekLocks[k]
	if !ok {
		l = &sync.Mutex{}
		e.weekLocks[k] = l
	}
	e.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
