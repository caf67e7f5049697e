/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes the overtime engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    POST   /api/employees                      Seed/update directory record
    GET    /api/employees/{id}                 Get directory record
    POST   /api/employees/{id}/punches         Record a punch
    GET    /api/employees/{id}/punches?date=   Day's punch sequence
    GET    /api/employees/{id}/status?date=    Derived clock status
    GET    /api/employees/{id}/week?date=      Week's day records

  Calculations:
    POST   /api/entries                        Calculate one timesheet day
    POST   /api/entries/validate               Validate without writing
    POST   /api/hours                          Pure hours computation
    POST   /api/punches/validate               Stateless transition check
    POST   /api/weeks/recalculate              Run the weekly cascade

ERROR HANDLING:
  Errors map onto status codes by category:
  - 400: validation failures, malformed times or dates
  - 404: unknown employee
  - 409: illegal punch transition
  - 503: timesheet store unavailable (retryable)
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/metrics"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine     *overtime.Engine
	Directory  payroll.DirectoryAdmin
	Timesheets overtime.TimesheetStore
	Punches    punch.Store
	Logger     *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewHandler creates a handler over the engine and its stores.
func NewHandler(engine *overtime.Engine, directory payroll.DirectoryAdmin, timesheets overtime.TimesheetStore, punches punch.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Engine:     engine,
		Directory:  directory,
		Timesheets: timesheets,
		Punches:    punches,
		Logger:     logger,
		now:        time.Now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// UpsertEmployee seeds or updates a directory record.
func (h *Handler) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Employee id is required", nil)
		return
	}

	emp := payroll.Employee{
		ID:                 req.ID,
		Name:               req.Name,
		EmploymentType:     payroll.ParseEmploymentType(req.EmploymentType),
		IsExempt:           req.IsExempt,
		PayType:            payroll.PayType(req.PayType),
		HourlyRate:         clock.HoursFromFloat(req.HourlyRate),
		SalaryAmount:       clock.HoursFromFloat(req.SalaryAmount),
		OvertimeMultiplier: clock.HoursFromFloat(req.OvertimeMultiplier),
	}

	if err := h.Directory.Put(r.Context(), emp); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single directory record.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := payroll.Resolve(r.Context(), h.Directory, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

// RecordPunch validates and appends one punch. An "out" punch completes
// the day: worked hours are derived from the punch intervals, the day is
// classified and stored, and the weekly cascade runs when the employee is
// on the weekly-cumulative path.
func (h *Handler) RecordPunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ptype, err := punch.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid punch type", err)
		return
	}

	at := h.now()
	if req.At != "" {
		at, err = time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid punch timestamp (use RFC3339)", err)
			return
		}
	}

	// Existence check before touching the punch log.
	if _, err := payroll.Resolve(ctx, h.Directory, id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	existing, err := h.Punches.ListByDay(ctx, id, at)
	if err != nil {
		h.writeDomainError(w, &overtime.StoreError{Op: "list punches", Err: err})
		return
	}

	if res := punch.ValidateTransition(existing, ptype); !res.Valid {
		metrics.ObservePunchRejected()
		writeError(w, http.StatusConflict, res.Message, nil)
		return
	}

	saved, err := h.Punches.Append(ctx, punch.Punch{EmployeeID: id, Type: ptype, At: at})
	if err != nil {
		h.writeDomainError(w, &overtime.StoreError{Op: "append punch", Err: err})
		return
	}

	resp := PunchResponse{
		Punch:  toPunchDTO(saved),
		Status: toStatusDTO(punch.CurrentStatus(append(existing, saved))),
	}

	if ptype == punch.TypeOut {
		rec, err := h.Engine.CompletePunchOut(ctx, id, at, at)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		dto := toDayRecordDTO(rec)
		resp.Record = &dto

		// Cascade is ordered after the day write commits.
		if err := h.cascadeIfNeeded(ctx, id, rec.Date); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListPunches returns a day's punch sequence in time order.
func (h *Handler) ListPunches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	punches, err := h.Punches.ListByDay(r.Context(), id, day)
	if err != nil {
		h.writeDomainError(w, &overtime.StoreError{Op: "list punches", Err: err})
		return
	}

	dtos := make([]PunchDTO, len(punches))
	for i, p := range punches {
		dtos[i] = toPunchDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStatus derives the clock status for a day.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	punches, err := h.Punches.ListByDay(r.Context(), id, day)
	if err != nil {
		h.writeDomainError(w, &overtime.StoreError{Op: "list punches", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, toStatusDTO(punch.CurrentStatus(punches)))
}

// ValidatePunch checks a transition without recording anything.
func (h *Handler) ValidatePunch(w http.ResponseWriter, r *http.Request) {
	var req ValidatePunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ptype, err := punch.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid punch type", err)
		return
	}

	punches := make([]punch.Punch, 0, len(req.Punches))
	for _, dto := range req.Punches {
		at, err := time.Parse(time.RFC3339, dto.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid punch timestamp (use RFC3339)", err)
			return
		}
		punches = append(punches, punch.Punch{
			ID:         dto.ID,
			EmployeeID: dto.EmployeeID,
			Type:       punch.Type(dto.Type),
			At:         at,
		})
	}

	res := punch.ValidateTransition(punches, ptype)
	writeJSON(w, http.StatusOK, TransitionDTO{Valid: res.Valid, Message: res.Message})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// CreateEntry validates and calculates one timesheet day, then runs the
// weekly cascade when the employee is on the weekly-cumulative path.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	breakHours := clock.HoursFromFloat(req.BreakDuration)
	result := overtime.ValidateEntry(overtime.EntryInput{
		EmployeeID:    req.EmployeeID,
		Date:          req.Date,
		TimeIn:        req.TimeIn,
		TimeOut:       req.TimeOut,
		BreakDuration: breakHours,
	})
	if err := result.Err(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	date, err := clock.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Engine.CalculateEntry(ctx, overtime.CalculationInput{
		EmployeeID:       req.EmployeeID,
		Date:             date,
		TimeIn:           req.TimeIn,
		TimeOut:          req.TimeOut,
		BreakHours:       breakHours,
		IsManualOverride: req.IsManualOverride,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.cascadeIfNeeded(ctx, req.EmployeeID, rec.Date); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDayRecordDTO(rec))
}

// ValidateTimesheetEntry validates without writing. Always 200; the
// verdict is in the body.
func (h *Handler) ValidateTimesheetEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result := overtime.ValidateEntry(overtime.EntryInput{
		EmployeeID:    req.EmployeeID,
		Date:          req.Date,
		TimeIn:        req.TimeIn,
		TimeOut:       req.TimeOut,
		BreakDuration: clock.HoursFromFloat(req.BreakDuration),
	})

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, ValidationDTO{IsValid: result.IsValid, Errors: errs})
}

// CalculateHours computes quarter-hour-rounded worked hours. Pure.
func (h *Handler) CalculateHours(w http.ResponseWriter, r *http.Request) {
	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hours, err := overtime.CalculateHoursWorked(req.TimeIn, req.TimeOut, clock.HoursFromFloat(req.BreakDuration))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HoursDTO{Hours: hours.InexactFloat64()})
}

// =============================================================================
// WEEK HANDLERS
// =============================================================================

// RecalculateWeek runs the cascade for the week containing the date.
func (h *Handler) RecalculateWeek(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := clock.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	rewritten, err := h.Engine.RecalculateWeek(r.Context(), req.EmployeeID, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	week := clock.WeekWindowFor(date)
	dtos := make([]DayRecordDTO, len(rewritten))
	for i, rec := range rewritten {
		dtos[i] = toDayRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, RecalculateResponse{
		WeekStart: clock.FormatDate(week.Start),
		WeekEnd:   clock.FormatDate(week.End),
		Rewritten: dtos,
	})
}

// GetWeek returns the stored day records of the week containing the date.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	day, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	week := clock.WeekWindowFor(day)
	records, err := h.Timesheets.QueryByEmployeeAndDateRange(r.Context(), id, week.Start, week.End)
	if err != nil {
		h.writeDomainError(w, &overtime.StoreError{Op: "query week records", Err: err})
		return
	}

	dtos := make([]DayRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toDayRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, WeekDTO{
		WeekStart: clock.FormatDate(week.Start),
		WeekEnd:   clock.FormatDate(week.End),
		Records:   dtos,
	})
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// cascadeIfNeeded runs the weekly cascade after a day write for employees
// whose classification has cross-day state.
func (h *Handler) cascadeIfNeeded(ctx context.Context, employeeID string, date time.Time) error {
	needs, err := h.Engine.NeedsCascade(ctx, employeeID)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}
	_, err = h.Engine.RecalculateWeek(ctx, employeeID, date)
	return err
}

// dateParam reads the ?date= query parameter, defaulting to today.
func (h *Handler) dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.now(), nil
	}
	return clock.ParseDate(raw)
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var transition *punch.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		metrics.ObservePunchRejected()
		writeError(w, http.StatusConflict, transition.Message, nil)
	case overtime.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Employee not found", err)
	case overtime.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case overtime.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, "Store unavailable, retry later", err)
	default:
		h.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                 e.ID,
		Name:               e.Name,
		EmploymentType:     string(e.EmploymentType),
		IsExempt:           e.IsExempt,
		PayType:            string(e.PayType),
		HourlyRate:         e.HourlyRate.InexactFloat64(),
		SalaryAmount:       e.SalaryAmount.InexactFloat64(),
		OvertimeMultiplier: e.OvertimeMultiplier.InexactFloat64(),
	}
}

func toPunchDTO(p punch.Punch) PunchDTO {
	return PunchDTO{
		ID:         p.ID,
		EmployeeID: p.EmployeeID,
		Type:       string(p.Type),
		At:         p.At.Format(time.RFC3339),
	}
}

func toStatusDTO(s punch.StatusInfo) StatusDTO {
	return StatusDTO{
		Status:       string(s.Status),
		CanClockIn:   s.CanClockIn,
		CanTakeBreak: s.CanTakeBreak,
		CanClockOut:  s.CanClockOut,
	}
}

func toDayRecordDTO(rec overtime.DayRecord) DayRecordDTO {
	dto := DayRecordDTO{
		ID:                  rec.ID,
		EmployeeID:          rec.EmployeeID,
		Date:                clock.FormatDate(rec.Date),
		TimeIn:              rec.TimeIn,
		TimeOut:             rec.TimeOut,
		BreakDuration:       rec.BreakDuration.InexactFloat64(),
		RegularHours:        rec.RegularHours.InexactFloat64(),
		OvertimeHours:       rec.OvertimeHours.InexactFloat64(),
		DoubleOvertimeHours: rec.DoubleOvertimeHours.InexactFloat64(),
		TotalHours:          rec.TotalHours.InexactFloat64(),
		CalculationMethod:   string(rec.CalculationMethod),
		IsManualOverride:    rec.IsManualOverride,
		UpdatedAt:           rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.WeeklyHoursAtCalculation != nil {
		weekly := rec.WeeklyHoursAtCalculation.InexactFloat64()
		dto.WeeklyHours = &weekly
	}
	return dto
}
