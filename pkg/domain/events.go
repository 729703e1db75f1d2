package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAccept   EventType = "accept"
	EventSuppress EventType = "suppress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
	EventPrompt   EventType = "prompt"
	EventClose    EventType = "close"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// InputEvent describes an input entering or leaving the scheduler.
type InputEvent struct {
	EventBase
	Origin Origin `json:"origin"`
	Raw    bool   `json:"raw"`
	// Duration and Failed are only set on EventComplete.
	Duration time.Duration `json:"duration,omitempty"`
	Failed   bool          `json:"failed,omitempty"`
}

// ErrorEvent describes an error routed to the error listeners.
type ErrorEvent struct {
	EventBase
	Stage Stage `json:"stage"`
	Err   error `json:"-"`
}

// SessionEvent describes prompt and close events.
type SessionEvent struct {
	EventBase
}

// Hooks defines callbacks for scheduler observability.
// Hooks run synchronously and must not call back into the session.
type Hooks struct {
	OnAccept   func(context.Context, *InputEvent)
	OnSuppress func(context.Context, *InputEvent)
	OnComplete func(context.Context, *InputEvent)
	OnError    func(context.Context, *ErrorEvent)
	OnPrompt   func(context.Context, *SessionEvent)
	OnClose    func(context.Context, *SessionEvent)
}

// Merge returns hooks that call h first, then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnAccept:   chain(h.OnAccept, other.OnAccept),
		OnSuppress: chain(h.OnSuppress, other.OnSuppress),
		OnComplete: chain(h.OnComplete, other.OnComplete),
		OnError:    chain(h.OnError, other.OnError),
		OnPrompt:   chain(h.OnPrompt, other.OnPrompt),
		OnClose:    chain(h.OnClose, other.OnClose),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
