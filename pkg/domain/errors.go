package domain

import (
	"errors"
	"fmt"
)

// ErrNotStarted is returned when input is submitted before the session was started.
var ErrNotStarted = errors.New("session not started")

// ErrClosed is returned by operations on a session that has been closed.
var ErrClosed = errors.New("session closed")

// ErrListenerPanic marks an InputError produced by a recovered panic in a parser or data listener.
var ErrListenerPanic = errors.New("listener panicked")

// Stage identifies where an input failed.
type Stage string

const (
	StageParse    Stage = "parse"
	StageListener Stage = "listener"
)

// InputError is handed to error listeners when an accepted input could not be handled.
type InputError struct {
	Stage Stage
	// Input is the raw text, when the input was a raw line.
	Input string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NewPanicError converts a recovered panic value into an error.
func NewPanicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrListenerPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrListenerPanic, r)
}
