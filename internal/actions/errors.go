package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
)

var (
	// ErrNoActiveAttempt is returned by workflows that need an attempt when
	// none is loaded.
	ErrNoActiveAttempt = errors.New("no active attempt")

	// ErrAnswersClosed is returned when an answer is submitted while the
	// attempt does not accept answers.
	ErrAnswersClosed = errors.New("answers are closed for this attempt")

	// ErrUnknownItem is returned for an item that is not part of the paper.
	ErrUnknownItem = errors.New("unknown exercise item")

	// ErrInvalidOption is returned for an option index the item doesn't have.
	ErrInvalidOption = errors.New("invalid option")
)

// TransitionError reports a workflow that the attempt's status does not allow.
type TransitionError struct {
	Op   string
	From paper.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a paper that is %s", e.Op, e.From)
}

// Message turns an error into the human-readable text shown to the student.
func Message(err error) string {
	var (
		nf    *paperapi.ErrNotFound
		rej   *paperapi.ErrRejected
		unav  *paperapi.ErrUnavailable
		dec   *paperapi.ErrDecode
		trans *TransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The paper service took too long to respond."
	case errors.As(err, &nf):
		return fmt.Sprintf("Not found: %s %s.", nf.Resource, nf.ID)
	case errors.As(err, &unav):
		return "The paper service is unavailable. Try again later."
	case errors.As(err, &dec):
		return "The paper service sent data that could not be read."
	case errors.As(err, &rej):
		if rej.Message != "" {
			return rej.Message
		}
		return "The paper service rejected the request."
	case errors.As(err, &trans):
		return trans.Error()
	default:
		return err.Error()
	}
}
