/*
Package punch implements the clock punch status machine.

PURPOSE:
  Derives an employee's current clock status (OUT, IN, BREAK) from the
  ordered sequence of punches recorded for a day, validates whether a new
  punch is legal, and accumulates worked hours from the punch intervals.

STATE MACHINE:
  OUT   --in-->    IN
  IN    --break--> BREAK
  IN    --out-->   OUT
  BREAK --in-->    IN
  BREAK --out-->   OUT

  Any other transition is rejected with InvalidTransitionError.

WORKED TIME:
  Time spent on BREAK is excluded. Entering BREAK closes the current
  working interval; returning IN opens a new one. Clocking OUT directly
  from BREAK discards the break interval without crediting it as worked
  time. If the employee is still IN at evaluation time, the open interval
  is measured against the evaluation instant.

SEE ALSO:
  - store.go: append-only punch log interface
  - overtime/engine.go: completes a day record on punch-out
*/
package punch

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TYPES
// =============================================================================

// Type is the kind of a single punch event.
type Type string

const (
	TypeIn    Type = "in"
	TypeBreak Type = "break"
	TypeOut   Type = "out"
)

// ParseType maps a wire string onto a punch Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeIn, TypeBreak, TypeOut:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown punch type %q", s)
	}
}

// Status is the derived clock status of an employee.
type Status string

const (
	StatusOut   Status = "OUT"
	StatusIn    Status = "IN"
	StatusBreak Status = "BREAK"
)

// Punch is a single immutable clock event. Once recorded it is never
// modified; sequences are ordered by timestamp.
type Punch struct {
	ID         string
	EmployeeID string
	Type       Type
	At         time.Time
}

// StatusInfo is the currentStatus contract: the derived status plus the
// legal next moves.
type StatusInfo struct {
	Status       Status
	CanClockIn   bool
	CanTakeBreak bool
	CanClockOut  bool
}

// TransitionResult is the validateTransition contract.
type TransitionResult struct {
	Valid   bool
	Message string
}

// InvalidTransitionError reports an illegal punch for the current status.
type InvalidTransitionError struct {
	From      Status
	Attempted Type
	Message   string
}

func (e *InvalidTransitionError) Error() string {
	return e.Message
}

// =============================================================================
// STATUS DERIVATION
// =============================================================================

// CurrentStatus derives the clock status from a day's punches. The input
// is sorted by timestamp here; callers may pass punches in any order.
func CurrentStatus(punches []Punch) StatusInfo {
	status := statusAfter(sorted(punches))
	return StatusInfo{
		Status:       status,
		CanClockIn:   CheckTransition(status, TypeIn) == nil,
		CanTakeBreak: CheckTransition(status, TypeBreak) == nil,
		CanClockOut:  CheckTransition(status, TypeOut) == nil,
	}
}

// ValidateTransition checks whether attempting a punch of the given type
// is legal given the day's punches so far.
func ValidateTransition(punches []Punch, attempted Type) TransitionResult {
	status := statusAfter(sorted(punches))
	if err := CheckTransition(status, attempted); err != nil {
		return TransitionResult{Valid: false, Message: err.Error()}
	}
	return TransitionResult{Valid: true, Message: "ok"}
}

// CheckTransition validates a single transition against the table.
// Returns *InvalidTransitionError for illegal moves.
func CheckTransition(current Status, attempted Type) error {
	switch attempted {
	case TypeIn:
		if current != StatusOut && current != StatusBreak {
			return &InvalidTransitionError{From: current, Attempted: attempted, Message: "already clocked in"}
		}
	case TypeBreak:
		if current != StatusIn {
			return &InvalidTransitionError{From: current, Attempted: attempted, Message: "must be clocked in to break"}
		}
	case TypeOut:
		if current == StatusOut {
			return &InvalidTransitionError{From: current, Attempted: attempted, Message: "not clocked in"}
		}
	default:
		return &InvalidTransitionError{From: current, Attempted: attempted, Message: fmt.Sprintf("unknown punch type %q", attempted)}
	}
	return nil
}

// statusAfter replays a sorted punch sequence; the last punch decides.
func statusAfter(punches []Punch) Status {
	if len(punches) == 0 {
		return StatusOut
	}
	switch punches[len(punches)-1].Type {
	case TypeIn:
		return StatusIn
	case TypeBreak:
		return StatusBreak
	default:
		return StatusOut
	}
}

// =============================================================================
// WORKED HOURS
// =============================================================================

// WorkedHours sums the working intervals of a day's punches in hours.
// An interval opens on "in" and closes on "break" or "out". A trailing
// open interval closes at now.
func WorkedHours(punches []Punch, now time.Time) decimal.Decimal {
	ordered := sorted(punches)

	total := decimal.Zero
	var openedAt time.Time
	open := false

	for _, p := range ordered {
		switch p.Type {
		case TypeIn:
			if !open {
				openedAt = p.At
				open = true
			}
		case TypeBreak, TypeOut:
			if open {
				total = total.Add(hoursBetween(openedAt, p.At))
				open = false
			}
		}
	}
	if open && now.After(openedAt) {
		total = total.Add(hoursBetween(openedAt, now))
	}
	return total
}

func hoursBetween(from, to time.Time) decimal.Decimal {
	seconds := int64(to.Sub(from) / time.Second)
	if seconds <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600))
}

func sorted(punches []Punch) []Punch {
	ordered := make([]Punch, len(punches))
	copy(ordered, punches)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})
	return ordered
}
