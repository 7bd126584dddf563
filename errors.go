package htmlpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library. Use [errors.Is] to classify a
// failure; the message that follows the sentinel text names the offending
// value.
var (
	// ErrInvalidInput is returned when a local argument fails validation
	// before any request is sent, or when a response body lacks a
	// required field.
	ErrInvalidInput = errors.New("htmlpdf: invalid input")

	// ErrNotReady is returned when an action needs a completed PDF.
	ErrNotReady = errors.New("htmlpdf: not ready")

	// ErrIO is returned when a downloaded PDF cannot be written to disk.
	ErrIO = errors.New("htmlpdf: i/o failure")

	// ErrTransport matches every [*TransportError] and [*StatusError].
	ErrTransport = errors.New("htmlpdf: transport failure")
)

// TransportError carries a failure raised by the HTTP transport itself,
// such as a refused connection or an expired deadline. The original error
// is kept as is and is reachable through [errors.Unwrap] and [errors.As].
type TransportError struct {
	Op  string // HTTP method
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("htmlpdf: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrTransport].
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("htmlpdf: API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("htmlpdf: API returned status %d: %s", e.StatusCode, e.Body)
}

// Is reports whether target is [ErrTransport].
func (e *StatusError) Is(target error) bool { return target == ErrTransport }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
