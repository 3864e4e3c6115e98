package paperapi

import "fmt"

// ErrNotFound indicates the requested paper or attempt does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ErrRejected indicates the service refused the operation, typically an
// illegal state transition (409) or a malformed request (400).
type ErrRejected struct {
	StatusCode int
	Message    string
}

func (e *ErrRejected) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("request rejected: %s", e.Message)
}

// ErrUnavailable indicates the service is down or unreachable.
type ErrUnavailable struct {
	StatusCode int
	Err        error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paper service unavailable: %v", e.Err)
	}
	return fmt.Sprintf("paper service unavailable (status %d)", e.StatusCode)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrDecode indicates the service returned a payload that could not be
// parsed or failed validation.
type ErrDecode struct {
	Op  string
	Err error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("invalid %s response: %v", e.Op, e.Err)
}

func (e *ErrDecode) Unwrap() error { return e.Err }
