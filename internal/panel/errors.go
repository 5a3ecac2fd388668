package panel

import (
	"errors"
	"fmt"
	"time"
)

// ErrEntityNotFound is the base error for queries against entities the panel
// has never seen. Use errors.Is against this, or errors.As with
// *EntityNotFoundError for the entity id.
var ErrEntityNotFound = errors.New("entity not found in panel")

// EntityNotFoundError identifies the unknown entity of a failed query.
type EntityNotFoundError struct {
	EntityID string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found in panel", e.EntityID)
}

func (e *EntityNotFoundError) Unwrap() error { return ErrEntityNotFound }

// MissingFieldError reports a flat record without an entity id or timestamp.
// Index is the record's position in the input batch.
type MissingFieldError struct {
	Field string
	Index int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %d: missing required field %q", e.Index, e.Field)
}

// InvalidTimestampError reports a timestamp that could not be parsed into a
// totally ordered value.
type InvalidTimestampError struct {
	Raw    string
	Reason string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Raw, e.Reason)
}

// DuplicateObservationError reports two observations for the same entity at
// the same timestamp under the reject policy.
type DuplicateObservationError struct {
	EntityID  string
	Timestamp time.Time
}

func (e *DuplicateObservationError) Error() string {
	return fmt.Sprintf("duplicate observation for entity %q at %s",
		e.EntityID, e.Timestamp.Format(time.RFC3339))
}

// InvalidParameterError reports an illegal operation parameter (bad duplicate
// policy, lag of zero, window smaller than min_periods and so on). It is
// raised at call time, never deferred into the derived output.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}
