package lineup

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/internal/scheduler"
	"github.com/aretw0/lineup/pkg/domain"
	"github.com/aretw0/lineup/pkg/source"
)

// Session is the high-level entry point of the library.
// It wraps the internal scheduler and owns its line source.
type Session struct {
	sched *scheduler.Session
	src   source.Source

	parser          domain.Parser
	onUnhandled     domain.ErrorListener
	hooks           domain.Hooks
	logger          *slog.Logger
	startSuppressed bool
	id              string

	in          *os.File
	out         *os.File
	prompt      string
	historySize int
}

// Option defines a functional option for configuring a Session.
type Option func(*Session)

// WithSource reads lines from src instead of the standard streams.
func WithSource(src source.Source) Option {
	return func(s *Session) {
		s.src = src
	}
}

// WithParser sets the parser applied to raw lines.
func WithParser(p domain.Parser) Option {
	return func(s *Session) {
		s.parser = p
	}
}

// WithDefaultErrorHandler handles errors while no OnError listener is
// registered, instead of panicking.
func WithDefaultErrorHandler(fn domain.ErrorListener) Option {
	return func(s *Session) {
		s.onUnhandled = fn
	}
}

// WithHooks registers observability hooks. Repeated calls chain them.
func WithHooks(h domain.Hooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStartSuppressed keeps input suppressed after Start until SetSuppressed(false).
func WithStartSuppressed() Option {
	return func(s *Session) {
		s.startSuppressed = true
	}
}

// WithID sets the session ID instead of a random UUID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithPrompt sets the prompt of the default source.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithHistorySize bounds the recall history of the default source.
func WithHistorySize(n int) Option {
	return func(s *Session) {
		s.historySize = n
	}
}

// WithInput sets the input of the default source (os.Stdin).
func WithInput(f *os.File) Option {
	return func(s *Session) {
		s.in = f
	}
}

// WithOutput sets the output of the default source (os.Stdout).
func WithOutput(f *os.File) Option {
	return func(s *Session) {
		s.out = f
	}
}

// New creates a session. Without WithSource it reads the standard input,
// through a line editor when it is an interactive terminal.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		in:     os.Stdin,
		out:    os.Stdout,
		prompt: source.DefaultPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	if s.src == nil {
		src, err := source.Open(s.in, s.out,
			source.WithPrompt(s.prompt),
			source.WithHistorySize(s.historySize),
			source.WithLogger(s.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open line source: %w", err)
		}
		s.src = src
	}

	schedOpts := []scheduler.Option{
		scheduler.WithParser(s.parser),
		scheduler.WithHooks(s.hooks),
		scheduler.WithLogger(s.logger),
		scheduler.WithID(s.id),
		scheduler.WithDefaultErrorHandler(s.onUnhandled),
	}
	if s.startSuppressed {
		schedOpts = append(schedOpts, scheduler.WithStartSuppressed())
	}

	sched, err := scheduler.New(s.src, schedOpts...)
	if err != nil {
		_ = s.src.Close()
		return nil, err
	}
	s.sched = sched
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.sched.ID() }

// Source returns the line source the session reads from.
func (s *Session) Source() source.Source { return s.src }

// OnData registers a listener for every accepted input.
func (s *Session) OnData(fn domain.DataListener) domain.Registration {
	return s.sched.OnData(fn)
}

// OnError registers an error listener. Without any, a parse or listener
// error panics.
func (s *Session) OnError(fn domain.ErrorListener) domain.Registration {
	return s.sched.OnError(fn)
}

// RemoveListener removes a listener added with OnData or OnError.
func (s *Session) RemoveListener(reg domain.Registration) bool {
	return s.sched.RemoveListener(reg)
}

// Start begins accepting input, optionally processing a seed first.
func (s *Session) Start(ctx context.Context, seed ...domain.Input) error {
	return s.sched.Start(ctx, seed...)
}

// SubmitData injects an already-parsed value.
func (s *Session) SubmitData(ctx context.Context, v any) error {
	return s.sched.SubmitData(ctx, v)
}

// SubmitRaw injects text as if it had been typed.
func (s *Session) SubmitRaw(ctx context.Context, text string) error {
	return s.sched.SubmitRaw(ctx, text)
}

// SetSuppressed enters or leaves suppression.
func (s *Session) SetSuppressed(on bool) error {
	return s.sched.SetSuppressed(on)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.Snapshot { return s.sched.Snapshot() }

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.sched.Done() }

// Close shuts the session and its source down.
func (s *Session) Close() error { return s.sched.Close() }
