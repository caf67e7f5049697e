// Package memory provides in-memory implementations of the directory,
// timesheet, and punch-log interfaces, for tests and dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// =============================================================================
// MEMORY STORE - single struct backing all three interfaces
// =============================================================================

type recordKey struct {
	EmployeeID string
	Date       string
}

type punchKey struct {
	EmployeeID string
	Day        string
}

// Store implements payroll.DirectoryAdmin, overtime.TimesheetStore, and
// punch.Store over mutex-guarded maps.
type Store struct {
	mu        sync.RWMutex
	employees map[string]payroll.Employee
	records   map[recordKey]overtime.DayRecord
	punches   map[punchKey][]punch.Punch
}

func New() *Store {
	return &Store{
		employees: make(map[string]payroll.Employee),
		records:   make(map[recordKey]overtime.DayRecord),
		punches:   make(map[punchKey][]punch.Punch),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) Get(_ context.Context, employeeID string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[employeeID]
	if !ok {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *Store) Put(_ context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

func (s *Store) QueryByEmployeeAndDateRange(_ context.Context, employeeID string, start, end time.Time) ([]overtime.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []overtime.DayRecord
	for k, rec := range s.records {
		if k.EmployeeID != employeeID {
			continue
		}
		if rec.Date.Before(clock.Day(start)) || rec.Date.After(clock.Day(end)) {
			continue
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (s *Store) Upsert(_ context.Context, rec overtime.DayRecord) (overtime.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Date = clock.Day(rec.Date)
	k := recordKey{EmployeeID: rec.EmployeeID, Date: clock.FormatDate(rec.Date)}

	if existing, ok := s.records[k]; ok {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.UpdatedAt = time.Now().UTC()

	s.records[k] = rec
	return rec, nil
}

// =============================================================================
// PUNCH LOG
// =============================================================================

func (s *Store) Append(_ context.Context, p punch.Punch) (punch.Punch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	k := punchKey{EmployeeID: p.EmployeeID, Day: clock.FormatDate(p.At)}
	s.punches[k] = append(s.punches[k], p)
	return p, nil
}

func (s *Store) ListByDay(_ context.Context, employeeID string, day time.Time) ([]punch.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k := punchKey{EmployeeID: employeeID, Day: clock.FormatDate(day)}
	result := make([]punch.Punch, len(s.punches[k]))
	copy(result, s.punches[k])
	sort.Slice(result, func(i, j int) bool {
		return result[i].At.Before(result[j].At)
	})
	return result, nil
}
