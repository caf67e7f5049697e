/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  payroll.DirectoryAdmin:  employee directory records
  overtime.TimesheetStore: day records (one row per employee-date)
  punch.Store:             append-only punch log

KEY TABLES:
  employees:   payroll classification snapshots
  day_records: derived hour splits; UNIQUE(employee_id, date) keeps one
               record per employee-day across upserts
  punches:     immutable clock events; no UPDATE or DELETE statements
               exist for this table

PRECISION:
  Hour quantities are stored as TEXT decimals and parsed back through
  shopspring/decimal. Floating-point columns would reintroduce the drift
  the engine exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. SQLite is
  opened in WAL mode: multiple readers don't block and a single writer
  commits at a time, which also backs the cascade's per-week
  serialization across processes.

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - overtime/types.go, payroll/payroll.go, punch/store.go: interfaces
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employee directory snapshots
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL,
		is_exempt INTEGER NOT NULL DEFAULT 0,
		pay_type TEXT NOT NULL DEFAULT 'hourly',
		hourly_rate TEXT NOT NULL DEFAULT '0',
		salary_amount TEXT NOT NULL DEFAULT '0',
		overtime_multiplier TEXT NOT NULL DEFAULT '1.5',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Day records: one row per employee-date, replaced in place by
	-- recalculation
	CREATE TABLE IF NOT EXISTS day_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		time_in TEXT NOT NULL DEFAULT '',
		time_out TEXT NOT NULL DEFAULT '',
		break_hours TEXT NOT NULL DEFAULT '0',
		regular_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		double_overtime_hours TEXT NOT NULL DEFAULT '0',
		total_hours TEXT NOT NULL DEFAULT '0',
		calculation_method TEXT NOT NULL,
		is_manual_override INTEGER NOT NULL DEFAULT 0,
		weekly_hours_at_calculation TEXT,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	-- Week-window queries (hot path: every calculation and cascade)
	CREATE INDEX IF NOT EXISTS idx_day_records_employee_date
		ON day_records(employee_id, date);

	-- Punch log (append-only; immutable clock events)
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		punch_type TEXT NOT NULL,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_punches_employee_at
		ON punches(employee_id, at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) Get(ctx context.Context, employeeID string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, employment_type, is_exempt, pay_type,
		       hourly_rate, salary_amount, overtime_multiplier
		FROM employees WHERE id = ?`, employeeID)

	var emp payroll.Employee
	var employmentType, payType string
	var isExempt int
	var hourlyRate, salaryAmount, multiplier string

	err := row.Scan(&emp.ID, &emp.Name, &employmentType, &isExempt, &payType,
		&hourlyRate, &salaryAmount, &multiplier)
	if err == sql.ErrNoRows {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("get employee: %w", err)
	}

	emp.EmploymentType = payroll.ParseEmploymentType(employmentType)
	emp.IsExempt = isExempt != 0
	emp.PayType = payroll.PayType(payType)
	if emp.HourlyRate, err = parseDecimal(hourlyRate); err != nil {
		return payroll.Employee{}, err
	}
	if emp.SalaryAmount, err = parseDecimal(salaryAmount); err != nil {
		return payroll.Employee{}, err
	}
	if emp.OvertimeMultiplier, err = parseDecimal(multiplier); err != nil {
		return payroll.Employee{}, err
	}
	return emp, nil
}

func (s *Store) Put(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, employment_type, is_exempt, pay_type,
		                       hourly_rate, salary_amount, overtime_multiplier,
		                       created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			employment_type = excluded.employment_type,
			is_exempt = excluded.is_exempt,
			pay_type = excluded.pay_type,
			hourly_rate = excluded.hourly_rate,
			salary_amount = excluded.salary_amount,
			overtime_multiplier = excluded.overtime_multiplier,
			updated_at = excluded.updated_at`,
		e.ID, e.Name, string(e.EmploymentType), boolToInt(e.IsExempt), string(e.PayType),
		e.HourlyRate.String(), e.SalaryAmount.String(), e.OvertimeMultiplier.String(),
		now, now)
	if err != nil {
		return fmt.Errorf("put employee: %w", err)
	}
	return nil
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

func (s *Store) QueryByEmployeeAndDateRange(ctx context.Context, employeeID string, start, end time.Time) ([]overtime.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, time_in, time_out, break_hours,
		       regular_hours, overtime_hours, double_overtime_hours,
		       total_hours, calculation_method, is_manual_override,
		       weekly_hours_at_calculation, updated_at
		FROM day_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		employeeID, clock.FormatDate(start), clock.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("query day records: %w", err)
	}
	defer rows.Close()

	var records []overtime.DayRecord
	for rows.Next() {
		rec, err := scanDayRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, rec overtime.DayRecord) (overtime.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Date = clock.Day(rec.Date)
	rec.UpdatedAt = time.Now().UTC()

	// Keep the existing identity on replace.
	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM day_records WHERE employee_id = ? AND date = ?`,
		rec.EmployeeID, clock.FormatDate(rec.Date)).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
	case err != nil:
		return overtime.DayRecord{}, fmt.Errorf("upsert day record: %w", err)
	default:
		rec.ID = existingID
	}

	var weekly sql.NullString
	if rec.WeeklyHoursAtCalculation != nil {
		weekly = sql.NullString{String: rec.WeeklyHoursAtCalculation.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO day_records (id, employee_id, date, time_in, time_out,
		                         break_hours, regular_hours, overtime_hours,
		                         double_overtime_hours, total_hours,
		                         calculation_method, is_manual_override,
		                         weekly_hours_at_calculation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			time_in = excluded.time_in,
			time_out = excluded.time_out,
			break_hours = excluded.break_hours,
			regular_hours = excluded.regular_hours,
			overtime_hours = excluded.overtime_hours,
			double_overtime_hours = excluded.double_overtime_hours,
			total_hours = excluded.total_hours,
			calculation_method = excluded.calculation_method,
			is_manual_override = excluded.is_manual_override,
			weekly_hours_at_calculation = excluded.weekly_hours_at_calculation,
			updated_at = excluded.updated_at`,
		rec.ID, rec.EmployeeID, clock.FormatDate(rec.Date), rec.TimeIn, rec.TimeOut,
		rec.BreakDuration.String(), rec.RegularHours.String(), rec.OvertimeHours.String(),
		rec.DoubleOvertimeHours.String(), rec.TotalHours.String(),
		string(rec.CalculationMethod), boolToInt(rec.IsManualOverride),
		weekly, rec.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return overtime.DayRecord{}, fmt.Errorf("upsert day record: %w", err)
	}
	return rec, nil
}

// =============================================================================
// PUNCH LOG
// =============================================================================

func (s *Store) Append(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO punches (id, employee_id, punch_type, at) VALUES (?, ?, ?, ?)`,
		p.ID, p.EmployeeID, string(p.Type), p.At.UTC().Format(time.RFC3339))
	if err != nil {
		return punch.Punch{}, fmt.Errorf("append punch: %w", err)
	}
	return p, nil
}

func (s *Store) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]punch.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dayStart := clock.Day(day)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, punch_type, at
		FROM punches
		WHERE employee_id = ? AND at >= ? AND at < ?
		ORDER BY at ASC`,
		employeeID,
		dayStart.Format(time.RFC3339),
		dayStart.AddDate(0, 0, 1).Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.Punch
	for rows.Next() {
		var p punch.Punch
		var punchType, at string
		if err := rows.Scan(&p.ID, &p.EmployeeID, &punchType, &at); err != nil {
			return nil, fmt.Errorf("scan punch: %w", err)
		}
		p.Type = punch.Type(punchType)
		if p.At, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parse punch timestamp: %w", err)
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func scanDayRecord(rows *sql.Rows) (overtime.DayRecord, error) {
	var rec overtime.DayRecord
	var date, breakHours, regular, ot, dot, total, method, updatedAt string
	var isOverride int
	var weekly sql.NullString

	err := rows.Scan(&rec.ID, &rec.EmployeeID, &date, &rec.TimeIn, &rec.TimeOut,
		&breakHours, &regular, &ot, &dot, &total, &method, &isOverride,
		&weekly, &updatedAt)
	if err != nil {
		return overtime.DayRecord{}, fmt.Errorf("scan day record: %w", err)
	}

	if rec.Date, err = clock.ParseDate(date); err != nil {
		return overtime.DayRecord{}, fmt.Errorf("parse record date: %w", err)
	}
	if rec.BreakDuration, err = parseDecimal(breakHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.RegularHours, err = parseDecimal(regular); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.OvertimeHours, err = parseDecimal(ot); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.DoubleOvertimeHours, err = parseDecimal(dot); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.TotalHours, err = parseDecimal(total); err != nil {
		return overtime.DayRecord{}, err
	}
	rec.CalculationMethod = overtime.CalculationMethod(method)
	rec.IsManualOverride = isOverride != 0
	if weekly.Valid {
		w, err := parseDecimal(weekly.String)
		if err != nil {
			return overtime.DayRecord{}, err
		}
		rec.WeeklyHoursAtCalculation = &w
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return overtime.DayRecord{}, fmt.Errorf("parse record timestamp: %w", err)
	}
	return rec, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
