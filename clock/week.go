package clock

import "time"

// =============================================================================
// WEEK WINDOW - Monday-Sunday span scoping a weekly calculation
// =============================================================================

// DateLayout is the canonical wire/storage format for dates.
const DateLayout = "2006-01-02"

// WeekWindow is the Monday-Sunday span containing a date. It is a derived
// concept, never persisted: it only scopes which day records participate
// in a weekly-cumulative calculation or cascade.
type WeekWindow struct {
	Start time.Time // Monday, midnight UTC
	End   time.Time // Sunday, midnight UTC
}

// WeekWindowFor returns the Monday-Sunday window containing date.
func WeekWindowFor(date time.Time) WeekWindow {
	d := Day(date)
	// time.Weekday puts Sunday at 0; shift so Monday is day 0.
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return WeekWindow{Start: start, End: start.AddDate(0, 0, 6)}
}

// Contains reports whether date falls inside the window.
func (w WeekWindow) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Day truncates a timestamp to midnight UTC. Day records and week windows
// compare at day granularity only.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// ParseDate parses a canonical "YYYY-MM-DD" date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// FormatDate renders a date in the canonical layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
