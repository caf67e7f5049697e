package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
	"github.com/warp/overtime-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestEmployeeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID:                 "emp-1",
		Name:               "Dana",
		EmploymentType:     payroll.EmploymentPartTime,
		IsExempt:           false,
		PayType:            payroll.PayHourly,
		HourlyRate:         decimal.NewFromFloat(31.25),
		OvertimeMultiplier: decimal.NewFromFloat(1.5),
	}
	require.NoError(t, st.Put(ctx, emp))

	got, err := st.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.EmploymentType, got.EmploymentType)
	assert.True(t, got.HourlyRate.Equal(emp.HourlyRate), "rate = %s", got.HourlyRate)
	assert.True(t, got.OvertimeMultiplier.Equal(emp.OvertimeMultiplier))
}

func TestEmployeeUpdateInPlace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	emp := payroll.Employee{ID: "emp-1", EmploymentType: payroll.EmploymentFullTime}
	require.NoError(t, st.Put(ctx, emp))

	emp.IsExempt = true
	require.NoError(t, st.Put(ctx, emp))

	got, err := st.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, got.IsExempt)
}

func TestEmployeeNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, payroll.ErrEmployeeNotFound))
}

// =============================================================================
// DAY RECORDS
// =============================================================================

func testRecord(employeeID string, date time.Time, total float64) overtime.DayRecord {
	d := decimal.NewFromFloat(total)
	return overtime.DayRecord{
		EmployeeID:        employeeID,
		Date:              date,
		TimeIn:            "09:00",
		TimeOut:           "17:00",
		RegularHours:      d,
		TotalHours:        d,
		CalculationMethod: overtime.MethodWeeklyCumulative,
	}
}

func TestUpsert_AssignsAndKeepsIdentity(t *testing.T) {
	// GIVEN: A record upserted twice for the same employee-date
	// WHEN: The second write replaces the first
	// THEN: The row identity survives the replace

	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.Upsert(ctx, testRecord("emp-1", day(10), 8))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := st.Upsert(ctx, testRecord("emp-1", day(10), 9.25))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	records, err := st.QueryByEmployeeAndDateRange(ctx, "emp-1", day(10), day(10))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].TotalHours.Equal(decimal.NewFromFloat(9.25)))
}

func TestQueryByEmployeeAndDateRange_OrderedAndScoped(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Insert out of order, plus a different employee and an out-of-range day.
	for _, d := range []int{14, 10, 12} {
		_, err := st.Upsert(ctx, testRecord("emp-1", day(d), 8))
		require.NoError(t, err)
	}
	_, err := st.Upsert(ctx, testRecord("emp-2", day(11), 8))
	require.NoError(t, err)
	_, err = st.Upsert(ctx, testRecord("emp-1", day(20), 8))
	require.NoError(t, err)

	records, err := st.QueryByEmployeeAndDateRange(ctx, "emp-1", day(10), day(16))
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Date.Before(records[i].Date), "records must be date-ascending")
	}
}

func TestDayRecord_PreservesDecimalAndSnapshotFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	weekly := decimal.NewFromFloat(42.25)
	rec := testRecord("emp-1", day(10), 9.25)
	rec.OvertimeHours = decimal.NewFromFloat(2.25)
	rec.BreakDuration = decimal.NewFromFloat(0.5)
	rec.IsManualOverride = true
	rec.WeeklyHoursAtCalculation = &weekly

	_, err := st.Upsert(ctx, rec)
	require.NoError(t, err)

	records, err := st.QueryByEmployeeAndDateRange(ctx, "emp-1", day(10), day(10))
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.True(t, got.OvertimeHours.Equal(rec.OvertimeHours))
	assert.True(t, got.BreakDuration.Equal(rec.BreakDuration))
	assert.True(t, got.IsManualOverride)
	require.NotNil(t, got.WeeklyHoursAtCalculation)
	assert.True(t, got.WeeklyHoursAtCalculation.Equal(weekly))
}

// =============================================================================
// PUNCH LOG
// =============================================================================

func TestPunchLog_AppendAndListByDay(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i, ty := range []punch.Type{punch.TypeIn, punch.TypeBreak, punch.TypeIn, punch.TypeOut} {
		_, err := st.Append(ctx, punch.Punch{
			EmployeeID: "emp-1",
			Type:       ty,
			At:         base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	// Next-day punch must not leak into the listing.
	_, err := st.Append(ctx, punch.Punch{
		EmployeeID: "emp-1",
		Type:       punch.TypeIn,
		At:         base.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	punches, err := st.ListByDay(ctx, "emp-1", day(10))
	require.NoError(t, err)
	require.Len(t, punches, 4)

	assert.Equal(t, punch.TypeIn, punches[0].Type)
	assert.Equal(t, punch.TypeOut, punches[3].Type)
	for _, p := range punches {
		assert.NotEmpty(t, p.ID)
	}
}
