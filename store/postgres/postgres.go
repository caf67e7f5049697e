/*
Package postgres provides a gorm/PostgreSQL-backed implementation of the
storage interfaces, for deployments that share a database with the rest
of the HR stack.

Implements the same three interfaces as store/sqlite; hour quantities are
stored as text decimals for the same precision reasons. Per-week write
serialization is carried by database transactions here rather than a
process-wide mutex.
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// Store implements all storage interfaces using gorm over PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New connects and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&employeeModel{}, &dayRecordModel{}, &punchModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// =============================================================================
// MODELS
// =============================================================================

type employeeModel struct {
	ID                 string `gorm:"primaryKey"`
	Name               string
	EmploymentType     string
	IsExempt           bool
	PayType            string
	HourlyRate         string
	SalaryAmount       string
	OvertimeMultiplier string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (employeeModel) TableName() string { return "employees" }

type dayRecordModel struct {
	ID                       string `gorm:"primaryKey"`
	EmployeeID               string `gorm:"uniqueIndex:idx_day_records_employee_date"`
	Date                     string `gorm:"uniqueIndex:idx_day_records_employee_date"`
	TimeIn                   string
	TimeOut                  string
	BreakHours               string
	RegularHours             string
	OvertimeHours            string
	DoubleOvertimeHours      string
	TotalHours               string
	CalculationMethod        string
	IsManualOverride         bool
	WeeklyHoursAtCalculation *string
	UpdatedAt                time.Time
}

func (dayRecordModel) TableName() string { return "day_records" }

type punchModel struct {
	ID         string `gorm:"primaryKey"`
	EmployeeID string `gorm:"index:idx_punches_employee_at"`
	PunchType  string
	At         time.Time `gorm:"index:idx_punches_employee_at"`
}

func (punchModel) TableName() string { return "punches" }

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) Get(ctx context.Context, employeeID string) (payroll.Employee, error) {
	var m employeeModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", employeeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("get employee: %w", err)
	}

	emp := payroll.Employee{
		ID:             m.ID,
		Name:           m.Name,
		EmploymentType: payroll.ParseEmploymentType(m.EmploymentType),
		IsExempt:       m.IsExempt,
		PayType:        payroll.PayType(m.PayType),
	}
	if emp.HourlyRate, err = parseDecimal(m.HourlyRate); err != nil {
		return payroll.Employee{}, err
	}
	if emp.SalaryAmount, err = parseDecimal(m.SalaryAmount); err != nil {
		return payroll.Employee{}, err
	}
	if emp.OvertimeMultiplier, err = parseDecimal(m.OvertimeMultiplier); err != nil {
		return payroll.Employee{}, err
	}
	return emp, nil
}

func (s *Store) Put(ctx context.Context, e payroll.Employee) error {
	m := employeeModel{
		ID:                 e.ID,
		Name:               e.Name,
		EmploymentType:     string(e.EmploymentType),
		IsExempt:           e.IsExempt,
		PayType:            string(e.PayType),
		HourlyRate:         e.HourlyRate.String(),
		SalaryAmount:       e.SalaryAmount.String(),
		OvertimeMultiplier: e.OvertimeMultiplier.String(),
	}
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("put employee: %w", err)
	}
	return nil
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

func (s *Store) QueryByEmployeeAndDateRange(ctx context.Context, employeeID string, start, end time.Time) ([]overtime.DayRecord, error) {
	var models []dayRecordModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date <= ?",
			employeeID, clock.FormatDate(start), clock.FormatDate(end)).
		Order("date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query day records: %w", err)
	}

	records := make([]overtime.DayRecord, 0, len(models))
	for _, m := range models {
		rec, err := toDayRecord(m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) Upsert(ctx context.Context, rec overtime.DayRecord) (overtime.DayRecord, error) {
	rec.Date = clock.Day(rec.Date)
	rec.UpdatedAt = time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Keep the existing identity on replace.
		var existing dayRecordModel
		err := tx.Where("employee_id = ? AND date = ?",
			rec.EmployeeID, clock.FormatDate(rec.Date)).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
		case err != nil:
			return err
		default:
			rec.ID = existing.ID
		}
		return tx.Save(toDayRecordModel(rec)).Error
	})
	if err != nil {
		return overtime.DayRecord{}, fmt.Errorf("upsert day record: %w", err)
	}
	return rec, nil
}

// =============================================================================
// PUNCH LOG
// =============================================================================

func (s *Store) Append(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m := punchModel{ID: p.ID, EmployeeID: p.EmployeeID, PunchType: string(p.Type), At: p.At.UTC()}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return punch.Punch{}, fmt.Errorf("append punch: %w", err)
	}
	return p, nil
}

func (s *Store) ListByDay(ctx context.Context, employeeID string, day time.Time) ([]punch.Punch, error) {
	dayStart := clock.Day(day)
	var models []punchModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND at >= ? AND at < ?",
			employeeID, dayStart, dayStart.AddDate(0, 0, 1)).
		Order("at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list punches: %w", err)
	}

	punches := make([]punch.Punch, 0, len(models))
	for _, m := range models {
		punches = append(punches, punch.Punch{
			ID:         m.ID,
			EmployeeID: m.EmployeeID,
			Type:       punch.Type(m.PunchType),
			At:         m.At,
		})
	}
	return punches, nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toDayRecordModel(rec overtime.DayRecord) *dayRecordModel {
	m := &dayRecordModel{
		ID:                  rec.ID,
		EmployeeID:          rec.EmployeeID,
		Date:                clock.FormatDate(rec.Date),
		TimeIn:              rec.TimeIn,
		TimeOut:             rec.TimeOut,
		BreakHours:          rec.BreakDuration.String(),
		RegularHours:        rec.RegularHours.String(),
		OvertimeHours:       rec.OvertimeHours.String(),
		DoubleOvertimeHours: rec.DoubleOvertimeHours.String(),
		TotalHours:          rec.TotalHours.String(),
		CalculationMethod:   string(rec.CalculationMethod),
		IsManualOverride:    rec.IsManualOverride,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.WeeklyHoursAtCalculation != nil {
		weekly := rec.WeeklyHoursAtCalculation.String()
		m.WeeklyHoursAtCalculation = &weekly
	}
	return m
}

func toDayRecord(m dayRecordModel) (overtime.DayRecord, error) {
	rec := overtime.DayRecord{
		ID:                m.ID,
		EmployeeID:        m.EmployeeID,
		TimeIn:            m.TimeIn,
		TimeOut:           m.TimeOut,
		CalculationMethod: overtime.CalculationMethod(m.CalculationMethod),
		IsManualOverride:  m.IsManualOverride,
		UpdatedAt:         m.UpdatedAt,
	}

	var err error
	if rec.Date, err = clock.ParseDate(m.Date); err != nil {
		return overtime.DayRecord{}, fmt.Errorf("parse record date: %w", err)
	}
	if rec.BreakDuration, err = parseDecimal(m.BreakHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.RegularHours, err = parseDecimal(m.RegularHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.OvertimeHours, err = parseDecimal(m.OvertimeHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.DoubleOvertimeHours, err = parseDecimal(m.DoubleOvertimeHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if rec.TotalHours, err = parseDecimal(m.TotalHours); err != nil {
		return overtime.DayRecord{}, err
	}
	if m.WeeklyHoursAtCalculation != nil {
		w, err := parseDecimal(*m.WeeklyHoursAtCalculation)
		if err != nil {
			return overtime.DayRecord{}, err
		}
		rec.WeeklyHoursAtCalculation = &w
	}
	return rec, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}
