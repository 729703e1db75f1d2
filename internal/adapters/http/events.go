package http

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/lineup/pkg/domain"
)

// Event is one server-sent event.
type Event struct {
	Type domain.EventType
	Data []byte
}

// Broadcaster fans session hook events out to SSE subscribers.
// Slow subscribers miss events rather than stall the session.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	size int
}

// NewBroadcaster creates a broadcaster whose subscribers buffer size events.
func NewBroadcaster(size int) *Broadcaster {
	if size <= 0 {
		size = 16
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), size: size}
}

// Subscribe returns a channel of events, closed when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Publish encodes v and sends it to every subscriber that has room.
func (b *Broadcaster) Publish(t domain.EventType, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- Event{Type: t, Data: data}:
		default:
		}
	}
}

type errorPayload struct {
	domain.EventBase
	Stage domain.Stage `json:"stage"`
	Error string       `json:"error"`
}

// Hooks returns session hooks that publish every lifecycle event.
func (b *Broadcaster) Hooks() domain.Hooks {
	input := func(_ context.Context, e *domain.InputEvent) { b.Publish(e.Type, e) }
	session := func(_ context.Context, e *domain.SessionEvent) { b.Publish(e.Type, e) }
	return domain.Hooks{
		OnAccept:   input,
		OnSuppress: input,
		OnComplete: input,
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			msg := ""
			if e.Err != nil {
				msg = e.Err.Error()
			}
			b.Publish(e.Type, errorPayload{EventBase: e.EventBase, Stage: e.Stage, Error: msg})
		},
		OnPrompt: session,
		OnClose:  session,
	}
}
