/*
errors.go - Centralized error types for the overtime engine

ERROR CATEGORIES:
  1. Input errors - malformed times, illegal punches, failed validation
     (user-correctable, reported, never retried)
  2. Lookup errors - employee directory failures (reported; the engine
     never substitutes a default classification)
  3. Store errors - transient persistence failures (retryable: every
     calculation is idempotent given identical inputs)
  4. Cascade errors - a week walk aborted partway; the error names the
     last successfully written date so callers can retry the whole week

SEE ALSO:
  - clock.MalformedTimeError, punch.InvalidTransitionError,
    payroll.EmployeeLookupFailedError: wrapped by these helpers
*/
package overtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/overtime-engine/clock"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/punch"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable wraps transient timesheet store failures.
	// Safe to retry with backoff.
	ErrStoreUnavailable = errors.New("timesheet store unavailable")

	// ErrValidationFailed is the root of entry validation failures.
	ErrValidationFailed = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError carries the specific rules an entry violated. Nothing
// is written when validation fails.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Violations)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// StoreError wraps a failed store operation with the operation name.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("timesheet store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return ErrStoreUnavailable }

// CascadeError reports a weekly cascade that aborted partway. Days up to
// and including LastWrittenDate hold fresh values; later days are stale.
// The whole cascade is idempotent, so the safe recovery is a full rerun.
type CascadeError struct {
	EmployeeID      string
	WeekStart       time.Time
	LastWrittenDate *time.Time // nil when nothing was written
	Err             error
}

func (e *CascadeError) Error() string {
	last := "none"
	if e.LastWrittenDate != nil {
		last = clock.FormatDate(*e.LastWrittenDate)
	}
	return fmt.Sprintf("week recalculation aborted for %s (week of %s, last written day: %s): %v",
		e.EmployeeID, clock.FormatDate(e.WeekStart), last, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	var malformed *clock.MalformedTimeError
	var transition *punch.InvalidTransitionError
	return errors.As(err, &malformed) ||
		errors.As(err, &transition) ||
		errors.Is(err, ErrValidationFailed)
}

// IsNotFound returns true if the error indicates a missing employee.
func IsNotFound(err error) bool {
	return errors.Is(err, payroll.ErrEmployeeNotFound)
}
