package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st := memory.New()
	engine := overtime.NewEngine(st, st, st, nil)
	return api.NewRouter(api.NewHandler(engine, st, st, st, nil))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func seedEmployee(t *testing.T, router http.Handler, id, employmentType string, exempt bool) {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/api/employees", api.UpsertEmployeeRequest{
		ID:             id,
		Name:           "Test Employee",
		EmploymentType: employmentType,
		IsExempt:       exempt,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployeeLifecycle(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodGet, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	emp := decode[api.EmployeeDTO](t, rr)
	assert.Equal(t, "emp-1", emp.ID)
	assert.Equal(t, "full_time", emp.EmploymentType)
	// Optional fields on a found record get their defaults.
	assert.Equal(t, 1.5, emp.OvertimeMultiplier)
	assert.Equal(t, "hourly", emp.PayType)
}

func TestGetEmployee_Unknown(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpsertEmployee_MissingID(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/employees", api.UpsertEmployeeRequest{Name: "No ID"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestCreateEntry_WeeklyClassification(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/entries", api.EntryRequest{
		EmployeeID:    "emp-1",
		Date:          "2025-03-10",
		TimeIn:        "09:00",
		TimeOut:       "17:30",
		BreakDuration: 0.5,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rec := decode[api.DayRecordDTO](t, rr)
	assert.Equal(t, 8.0, rec.RegularHours)
	assert.Equal(t, 0.0, rec.OvertimeHours)
	assert.Equal(t, "weekly_cumulative", rec.CalculationMethod)
	require.NotNil(t, rec.WeeklyHours)
	assert.Equal(t, 8.0, *rec.WeeklyHours)
}

func TestCreateEntry_PartTimeDailyTiers(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "part_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/entries", api.EntryRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-10",
		TimeIn:     "06:00",
		TimeOut:    "19:00",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rec := decode[api.DayRecordDTO](t, rr)
	assert.Equal(t, 8.0, rec.RegularHours)
	assert.Equal(t, 4.0, rec.OvertimeHours)
	assert.Equal(t, 1.0, rec.DoubleOvertimeHours)
	assert.Equal(t, "daily_threshold", rec.CalculationMethod)
}

func TestCreateEntry_ValidationFailure(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/entries", api.EntryRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-10",
		TimeIn:     "09:00",
		TimeOut:    "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateEntry_UnknownEmployee(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/entries", api.EntryRequest{
		EmployeeID: "ghost",
		Date:       "2025-03-10",
		TimeIn:     "09:00",
		TimeOut:    "17:00",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestValidateEntry_ReportsViolationsWithoutWriting(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/entries/validate", api.EntryRequest{
		TimeIn:  "25:00",
		TimeOut: "17:00",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	verdict := decode[api.ValidationDTO](t, rr)
	assert.False(t, verdict.IsValid)
	assert.NotEmpty(t, verdict.Errors)
}

func TestCalculateHours(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/hours", api.HoursRequest{
		TimeIn:        "09:00",
		TimeOut:       "17:30",
		BreakDuration: 0.5,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	got := decode[api.HoursDTO](t, rr)
	assert.Equal(t, 8.0, got.Hours)
}

func TestCalculateHours_MalformedTime(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/hours", api.HoursRequest{
		TimeIn:  "9am",
		TimeOut: "17:00",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =============================================================================
// PUNCHES
// =============================================================================

func punchBody(ty string, hour int) api.PunchRequest {
	at := time.Date(2025, time.March, 10, hour, 0, 0, 0, time.UTC)
	return api.PunchRequest{Type: ty, At: at.Format(time.RFC3339)}
}

func TestPunchFlow_FullDay(t *testing.T) {
	// GIVEN: A seeded employee punching in, breaking, and punching out
	// WHEN: The final out punch lands
	// THEN: The day completes with a classified record

	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("in", 9))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decode[api.PunchResponse](t, rr)
	assert.Equal(t, "IN", resp.Status.Status)
	assert.Nil(t, resp.Record)

	rr = doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("break", 12))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("in", 13))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("out", 18))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp = decode[api.PunchResponse](t, rr)
	assert.Equal(t, "OUT", resp.Status.Status)
	require.NotNil(t, resp.Record)
	// 9h span minus 1h break.
	assert.Equal(t, 8.0, resp.Record.RegularHours)

	// The week view shows the completed day.
	rr = doJSON(t, router, http.MethodGet, "/api/employees/emp-1/week?date=2025-03-12", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	week := decode[api.WeekDTO](t, rr)
	assert.Equal(t, "2025-03-10", week.WeekStart)
	assert.Equal(t, "2025-03-16", week.WeekEnd)
	require.Len(t, week.Records, 1)
}

func TestPunchFlow_DoubleClockInRejected(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("in", 9))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("in", 10))
	require.Equal(t, http.StatusConflict, rr.Code)

	errResp := decode[api.ErrorResponse](t, rr)
	assert.Equal(t, "already clocked in", errResp.Error)
}

func TestPunchFlow_OutWithoutIn(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodPost, "/api/employees/emp-1/punches", punchBody("out", 9))
	require.Equal(t, http.StatusConflict, rr.Code)

	errResp := decode[api.ErrorResponse](t, rr)
	assert.Equal(t, "not clocked in", errResp.Error)
}

func TestRecordPunch_UnknownEmployee(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/employees/ghost/punches", punchBody("in", 9))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetStatus_EmptyDay(t *testing.T) {
	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	rr := doJSON(t, router, http.MethodGet, "/api/employees/emp-1/status?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	status := decode[api.StatusDTO](t, rr)
	assert.Equal(t, "OUT", status.Status)
	assert.True(t, status.CanClockIn)
	assert.False(t, status.CanClockOut)
}

func TestValidatePunch_Stateless(t *testing.T) {
	router := newTestRouter(t)

	at := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	rr := doJSON(t, router, http.MethodPost, "/api/punches/validate", api.ValidatePunchRequest{
		Punches: []api.PunchDTO{{EmployeeID: "emp-1", Type: "in", At: at}},
		Type:    "break",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	verdict := decode[api.TransitionDTO](t, rr)
	assert.True(t, verdict.Valid)
}

// =============================================================================
// WEEKS
// =============================================================================

func TestRecalculateWeek_EndToEnd(t *testing.T) {
	// GIVEN: Five 9-hour days entered through the API
	// WHEN: Triggering the cascade
	// THEN: The response names the window; the week view shows Friday
	//       split 4 regular / 5 overtime

	router := newTestRouter(t)
	seedEmployee(t, router, "emp-1", "full_time", false)

	for d := 10; d <= 14; d++ {
		rr := doJSON(t, router, http.MethodPost, "/api/entries", api.EntryRequest{
			EmployeeID: "emp-1",
			Date:       fmt.Sprintf("2025-03-%02d", d),
			TimeIn:     "08:00",
			TimeOut:    "17:00",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := doJSON(t, router, http.MethodPost, "/api/weeks/recalculate", api.RecalculateRequest{
		EmployeeID: "emp-1",
		Date:       "2025-03-12",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decode[api.RecalculateResponse](t, rr)
	assert.Equal(t, "2025-03-10", result.WeekStart)

	rr = doJSON(t, router, http.MethodGet, "/api/employees/emp-1/week?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	week := decode[api.WeekDTO](t, rr)
	require.Len(t, week.Records, 5)

	fri := week.Records[4]
	assert.Equal(t, 4.0, fri.RegularHours)
	assert.Equal(t, 5.0, fri.OvertimeHours)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
