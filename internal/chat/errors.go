package chat

import (
	"errors"
	"fmt"
)

// Transient validation failures. Together with transport errors these are
// retried identically by the controller; only exhaustion of attempts is
// terminal.
var (
	// ErrEmptyResponse: the completion service returned nothing usable.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMissingMarkupBlock: no recognized fenced markup block was found.
	ErrMissingMarkupBlock = errors.New("missing code block")
)

// ErrBusy is returned when a send arrives while a generation cycle is still
// in flight for the session.
var ErrBusy = errors.New("generation already in progress")

// TransportError wraps a failed completion service call.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FormatError reports a structurally invalid persisted session record. It is
// never retried; restore is aborted with no partial state applied.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "session record: " + e.Reason
}

// ExhaustedRetriesError is the terminal failure after the original attempt
// and every configured retry produced no valid response.
type ExhaustedRetriesError struct {
	Attempts   int
	LastReason string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("no valid response after %d attempts: %s", e.Attempts, e.LastReason)
}

// Notice is the user-facing failure text for the exhausted case.
func (e *ExhaustedRetriesError) Notice() string {
	return fmt.Sprintf("The AI failed to provide a valid SVG response after %d attempts. Please try rephrasing your request.", e.Attempts)
}
