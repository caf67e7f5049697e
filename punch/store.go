package punch

import (
	"context"
	"time"
)

// Store is the append-only punch log.
//
// INVARIANTS:
//   - Append-only: punches are immutable once recorded. No Update, No Delete.
//   - Corrections happen upstream as manual day-record overrides, never by
//     rewriting the punch history.
type Store interface {
	// Append records a punch. The store assigns an ID when empty.
	Append(ctx context.Context, p Punch) (Punch, error)

	// ListByDay returns the punches for an employee on a calendar day,
	// ordered by timestamp ascending.
	ListByDay(ctx context.Context, employeeID string, day time.Time) ([]Punch, error)
}
