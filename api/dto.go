/*
dto.go - Request/response data structures for the HTTP API

All hour quantities cross the wire as float64 and are converted to
decimals at the boundary (see hours helpers in handlers.go). Dates are
YYYY-MM-DD strings, clock times HH:MM.
*/
package api

// =============================================================================
// EMPLOYEES
// =============================================================================

// UpsertEmployeeRequest seeds or updates a directory record.
type UpsertEmployeeRequest struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	EmploymentType     string  `json:"employment_type"`
	IsExempt           bool    `json:"is_exempt"`
	PayType            string  `json:"pay_type,omitempty"`
	HourlyRate         float64 `json:"hourly_rate,omitempty"`
	SalaryAmount       float64 `json:"salary_amount,omitempty"`
	OvertimeMultiplier float64 `json:"overtime_multiplier,omitempty"`
}

// EmployeeDTO is the wire form of a directory record.
type EmployeeDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	EmploymentType     string  `json:"employment_type"`
	IsExempt           bool    `json:"is_exempt"`
	PayType            string  `json:"pay_type"`
	HourlyRate         float64 `json:"hourly_rate"`
	SalaryAmount       float64 `json:"salary_amount"`
	OvertimeMultiplier float64 `json:"overtime_multiplier"`
}

// =============================================================================
// PUNCHES
// =============================================================================

// PunchRequest records one clock event.
type PunchRequest struct {
	Type string `json:"type"`         // in | break | out
	At   string `json:"at,omitempty"` // RFC3339; defaults to now
}

// PunchDTO is the wire form of a recorded punch.
type PunchDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	At         string `json:"at"`
}

// PunchResponse is returned after a punch is accepted. Record is set only
// when an "out" punch completed the day.
type PunchResponse struct {
	Punch  PunchDTO      `json:"punch"`
	Status StatusDTO     `json:"status"`
	Record *DayRecordDTO `json:"record,omitempty"`
}

// StatusDTO is the currentStatus contract on the wire.
type StatusDTO struct {
	Status       string `json:"status"`
	CanClockIn   bool   `json:"can_clock_in"`
	CanTakeBreak bool   `json:"can_take_break"`
	CanClockOut  bool   `json:"can_clock_out"`
}

// ValidatePunchRequest checks a transition without recording anything.
type ValidatePunchRequest struct {
	Punches []PunchDTO `json:"punches"`
	Type    string     `json:"type"`
}

// TransitionDTO is the validateTransition contract on the wire.
type TransitionDTO struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// =============================================================================
// ENTRIES
// =============================================================================

// EntryRequest submits one timesheet day for calculation.
type EntryRequest struct {
	EmployeeID       string  `json:"employee_id"`
	Date             string  `json:"date"`
	TimeIn           string  `json:"time_in"`
	TimeOut          string  `json:"time_out"`
	BreakDuration    float64 `json:"break_duration"`
	IsManualOverride bool    `json:"is_manual_override"`
}

// ValidationDTO is the validateTimesheetEntry contract on the wire.
type ValidationDTO struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// HoursRequest computes worked hours without touching any store.
type HoursRequest struct {
	TimeIn        string  `json:"time_in"`
	TimeOut       string  `json:"time_out"`
	BreakDuration float64 `json:"break_duration"`
}

// HoursDTO carries a single rounded hour quantity.
type HoursDTO struct {
	Hours float64 `json:"hours"`
}

// DayRecordDTO is the wire form of a stored day record.
type DayRecordDTO struct {
	ID                  string   `json:"id"`
	EmployeeID          string   `json:"employee_id"`
	Date                string   `json:"date"`
	TimeIn              string   `json:"time_in"`
	TimeOut             string   `json:"time_out"`
	BreakDuration       float64  `json:"break_duration"`
	RegularHours        float64  `json:"regular_hours"`
	OvertimeHours       float64  `json:"overtime_hours"`
	DoubleOvertimeHours float64  `json:"double_overtime_hours"`
	TotalHours          float64  `json:"total_hours"`
	CalculationMethod   string   `json:"calculation_method"`
	IsManualOverride    bool     `json:"is_manual_override"`
	WeeklyHours         *float64 `json:"weekly_hours_at_calculation,omitempty"`
	UpdatedAt           string   `json:"updated_at"`
}

// =============================================================================
// WEEKS
// =============================================================================

// RecalculateRequest triggers the weekly cascade.
type RecalculateRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // any date inside the week
}

// WeekDTO is a week's stored records plus the window that contains them.
type WeekDTO struct {
	WeekStart string         `json:"week_start"`
	WeekEnd   string         `json:"week_end"`
	Records   []DayRecordDTO `json:"records"`
}

// RecalculateResponse reports what the cascade rewrote.
type RecalculateResponse struct {
	WeekStart string         `json:"week_start"`
	WeekEnd   string         `json:"week_end"`
	Rewritten []DayRecordDTO `json:"rewritten"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
