package entity

import "fmt"

// DuplicateMessage is the caller-facing text of an already-registered
// outcome. Distributed UI clients match on it, so it never changes.
const DuplicateMessage = "You have already RSVP'd for this event"

// ValidationError means the client input was malformed; the user can
// correct it and resubmit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ConfigurationError means the requested store reference has no backing
// event configuration. Operator-fixable, fatal to the request.
type ConfigurationError struct {
	Ref string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no event configured for store ref %q", e.Ref)
}

// DuplicateError is the expected already-registered outcome, modeled as
// an error only so it flows through the same return path.
type DuplicateError struct{}

func (e *DuplicateError) Error() string {
	return DuplicateMessage
}

// PersistenceError wraps a failed registry append. The cause is logged
// for operators and never shown to the caller.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("append registration: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
