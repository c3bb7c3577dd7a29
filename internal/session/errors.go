package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAnswered is returned for a click on a question that is no
	// longer the current one, e.g. a double tap.
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrInvalidChoice   = errors.New("invalid choice")
	ErrNotOwner        = errors.New("session belongs to another user")
	ErrNoQuestions     = errors.New("question set is empty")
	// ErrRenderTargetGone means rendering failed even after the renderer's
	// fallback; the session is abandoned.
	ErrRenderTargetGone = errors.New("render target gone")
)

// StaleSessionError is returned for input that arrives after the session
// finished, timed out or was abandoned.
type StaleSessionError struct {
	SessionID string
	Command   string
	State     State
}

func (e *StaleSessionError) Error() string {
	return fmt.Sprintf("session %s is %s", e.SessionID, e.State)
}
