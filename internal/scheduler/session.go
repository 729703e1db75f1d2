// Package scheduler implements the input state machine of a lineup session.
//
// A Session serializes input from a line source and from programmatic
// submissions: at most one item is processed at a time, input arriving while
// suppressed or busy is discarded and erased from the recall history, and the
// prompt is re-issued once per completed item.
//
// All state is owned by a single event-loop goroutine. Public methods post a
// command to the loop and wait for it to run. Parsing and listener fan-out
// never run on the loop: submissions are processed on the caller's goroutine,
// source lines on a goroutine of their own. After every event the loop runs
// any further ready commands and then flushes the pending re-prompt, so
// several completions within one burst produce a single prompt.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lineup/internal/deferred"
	"github.com/aretw0/lineup/internal/listeners"
	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/pkg/domain"
	"github.com/aretw0/lineup/pkg/history"
	"github.com/aretw0/lineup/pkg/source"
	"github.com/google/uuid"
)

// Option configures a Session.
type Option func(*Session)

// WithParser sets the parser applied to raw input.
func WithParser(p domain.Parser) Option {
	return func(s *Session) {
		s.parser = p
	}
}

// WithLogger configures the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks adds lifecycle hooks. Calling it more than once chains the hooks.
func WithHooks(h domain.Hooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithStartSuppressed keeps the session suppressing after Start.
func WithStartSuppressed() Option {
	return func(s *Session) {
		s.suppressOnStart = true
	}
}

// WithDefaultErrorHandler replaces the handler that runs while no error
// listener is registered, which panics by default.
func WithDefaultErrorHandler(fn domain.ErrorListener) Option {
	return func(s *Session) {
		s.fallback = fn
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session is the input scheduler bound to one line source.
type Session struct {
	id     string
	src    source.Source
	parser domain.Parser
	logger *slog.Logger
	hooks  domain.Hooks

	registry *listeners.Registry
	fallback domain.ErrorListener

	cmds      chan func()
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// Owned by the loop goroutine.
	ctx             context.Context
	state           domain.State
	started         bool
	suppressOnStart bool
	suppressAfter   bool
	guard           *history.Guard
	prompter        deferred.Callback
}

// New creates a session reading from src. The session begins suppressed:
// lines arriving before Start are drained and discarded.
func New(src source.Source, opts ...Option) (*Session, error) {
	if src == nil {
		return nil, errors.New("scheduler: source is required")
	}

	s := &Session{
		id:     uuid.NewString(),
		src:    src,
		logger: logging.NewNop(),
		cmds:   make(chan func()),
		done:   make(chan struct{}),
		ctx:    context.Background(),
		state:  domain.StateSuppressing,
		guard:  history.NewGuard(src.History()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id)
	s.registry = listeners.New(
		listeners.WithObserver(s.observeError),
		listeners.WithFallback(s.fallback),
	)
	if n, ok := src.(source.HistoryNotifier); ok {
		n.OnHistoryChange(s.rebindHistory)
	}

	s.guard.Lock()
	s.src.Resume()

	go s.loop()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Done is closed once the session has shut down, either through Close or
// because the source ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// OnData registers a data listener.
func (s *Session) OnData(fn domain.DataListener) domain.Registration {
	return s.registry.AddData(fn)
}

// OnError registers an error listener. The first one replaces the default
// handler, which panics.
func (s *Session) OnError(fn domain.ErrorListener) domain.Registration {
	return s.registry.AddError(fn)
}

// RemoveListener removes a listener registered with OnData or OnError.
func (s *Session) RemoveListener(reg domain.Registration) bool {
	return s.registry.Remove(reg)
}

// Start begins accepting input. Only the first call has an effect: it lifts
// the initial suppression and either processes seed (at most one) or prompts.
// With a seed, Start returns once the seed has been processed. A session
// configured to start suppressed still processes the seed and then returns
// to suppressing.
func (s *Session) Start(ctx context.Context, seed ...domain.Input) error {
	if len(seed) > 1 {
		return fmt.Errorf("scheduler: start accepts at most one seed, got %d", len(seed))
	}

	var accepted, first bool
	err := s.do(func() {
		if s.started {
			return
		}
		first = true
		s.started = true
		s.ctx = ctx
		if len(seed) == 0 {
			if !s.suppressOnStart {
				s.unsuppress()
			}
			s.prompt()
			return
		}
		// A seed is processed even when starting suppressed; suppression
		// resumes once it completes.
		s.unsuppress()
		accepted = s.admit(seed[0], domain.OriginSeed)
		if accepted && s.suppressOnStart {
			s.suppressAfter = true
		}
	})
	if err != nil {
		return err
	}
	if first {
		s.logger.Debug("session started", "seeded", len(seed) == 1)
	}
	if accepted {
		s.process(ctx, seed[0], domain.OriginSeed)
	}
	return nil
}

// Submit injects an input as if it came from the source. It returns once the
// input has been processed or discarded. Inputs arriving while the session is
// suppressing or busy are discarded without error.
func (s *Session) Submit(ctx context.Context, in domain.Input) error {
	if s.closed.Load() {
		return domain.ErrClosed
	}

	var accepted bool
	var usage error
	err := s.do(func() {
		if !s.started {
			usage = domain.ErrNotStarted
			return
		}
		accepted = s.admit(in, domain.OriginSubmit)
	})
	if err != nil {
		return err
	}
	if usage != nil {
		return usage
	}
	if accepted {
		s.process(ctx, in, domain.OriginSubmit)
	}
	return nil
}

// SubmitData injects an already-parsed value. The parser is not applied.
func (s *Session) SubmitData(ctx context.Context, v any) error {
	return s.Submit(ctx, domain.Data(v))
}

// SubmitRaw injects text that goes through the parser like a typed line.
func (s *Session) SubmitRaw(ctx context.Context, text string) error {
	return s.Submit(ctx, domain.Raw(text))
}

// SetSuppressed enters or leaves suppression. While an item is processing it
// only decides the state the session returns to afterwards. Before Start it
// decides whether Start lifts the initial suppression.
func (s *Session) SetSuppressed(on bool) error {
	return s.do(func() {
		s.setSuppressed(on)
	})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.Snapshot {
	var snap domain.Snapshot
	if err := s.do(func() { snap = s.snapshot() }); err != nil {
		<-s.done
		return s.snapshot()
	}
	return snap
}

// Close shuts the session down and closes the source. In-flight processing is
// not interrupted, but its errors no longer reach any listener. Close is
// idempotent.
func (s *Session) Close() error {
	_ = s.do(func() {
		s.shutdown("closed by caller")
	})
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
	})
	return s.closeErr
}

// do runs fn on the loop and waits for it.
func (s *Session) do(fn func()) error {
	reply := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(reply) }:
	case <-s.done:
		return domain.ErrClosed
	}
	<-reply
	return nil
}

func (s *Session) loop() {
	defer close(s.done)

	lines := s.src.Lines()
	for s.state != domain.StateClosed {
		select {
		case fn := <-s.cmds:
			fn()
		case line, ok := <-lines:
			if !ok {
				s.shutdown("source ended")
				continue
			}
			s.receive(line)
		}
		s.drain()
		s.prompter.Flush()
	}
}

// drain runs the commands that are ready without blocking.
func (s *Session) drain() {
	for s.state != domain.StateClosed {
		select {
		case fn := <-s.cmds:
			fn()
		default:
			return
		}
	}
}

func (s *Session) receive(line string) {
	in := domain.Raw(line)
	if !s.admit(in, domain.OriginSource) {
		return
	}
	go s.process(s.ctx, in, domain.OriginSource)
}

// admit decides the fate of an arriving input. An accepted input moves the
// session to Processing; anything else is discarded and erased from history.
func (s *Session) admit(in domain.Input, origin domain.Origin) bool {
	s.prompter.Cancel()

	if s.state == domain.StateIdle {
		s.guard.Lock()
		s.src.Pause()
		s.state = domain.StateProcessing
		s.suppressAfter = false
		s.logger.Debug("input accepted", "origin", origin)
		if s.hooks.OnAccept != nil {
			s.hooks.OnAccept(s.ctx, s.inputEvent(domain.EventAccept, in, origin))
		}
		return true
	}

	s.guard.Restore()
	if s.state == domain.StateSuppressing && origin == domain.OriginSource {
		// Keep draining; a delivered line leaves the source paused.
		s.src.Resume()
	}
	s.logger.Debug("input suppressed", "origin", origin, "state", s.state)
	if s.hooks.OnSuppress != nil {
		s.hooks.OnSuppress(s.ctx, s.inputEvent(domain.EventSuppress, in, origin))
	}
	return false
}

// process parses and fans out an accepted input. It runs off the loop.
func (s *Session) process(ctx context.Context, in domain.Input, origin domain.Origin) {
	begin := time.Now()
	failed := true
	defer func() {
		s.complete(ctx, in, origin, time.Since(begin), failed)
	}()
	failed = s.handle(ctx, in)
}

// handle reports whether the input failed.
func (s *Session) handle(ctx context.Context, in domain.Input) bool {
	value := in.Value()
	if in.IsRaw() {
		value = in.Text()
		if s.parser != nil {
			v, err := s.parse(ctx, in.Text())
			if err != nil {
				s.registry.NotifyError(ctx, &domain.InputError{Stage: domain.StageParse, Input: in.Text(), Err: err})
				return true
			}
			value = v
		}
	}
	return s.registry.NotifyData(ctx, value) > 0
}

func (s *Session) parse(ctx context.Context, text string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewPanicError(r)
		}
	}()
	return s.parser(ctx, text)
}

// complete hands the session back to the loop. It also runs while a panic
// from the default error handler unwinds.
func (s *Session) complete(ctx context.Context, in domain.Input, origin domain.Origin, d time.Duration, failed bool) {
	_ = s.do(s.finish)

	s.logger.Debug("input completed", "origin", origin, "duration", d, "failed", failed)
	if s.hooks.OnComplete != nil {
		ev := s.inputEvent(domain.EventComplete, in, origin)
		ev.Duration = d
		ev.Failed = failed
		s.hooks.OnComplete(ctx, ev)
	}
}

func (s *Session) finish() {
	if s.state != domain.StateProcessing {
		return
	}
	if s.suppressAfter {
		s.state = domain.StateSuppressing
	} else {
		s.guard.Unlock()
		s.state = domain.StateIdle
	}
	s.suppressAfter = false
	s.src.Resume()
	s.prompter.Schedule(s.prompt)
}

func (s *Session) prompt() {
	if s.state == domain.StateClosed {
		return
	}
	s.src.Prompt()
	s.logger.Debug("prompt issued")
	if s.hooks.OnPrompt != nil {
		s.hooks.OnPrompt(s.ctx, s.sessionEvent(domain.EventPrompt))
	}
}

func (s *Session) setSuppressed(on bool) {
	switch {
	case !s.started:
		s.suppressOnStart = on
	case s.state == domain.StateProcessing:
		s.suppressAfter = on
	case on && s.state == domain.StateIdle:
		s.guard.Lock()
		s.state = domain.StateSuppressing
		s.src.Resume()
		s.logger.Debug("suppression entered")
	case !on && s.state == domain.StateSuppressing:
		s.unsuppress()
		s.logger.Debug("suppression left")
	}
}

// rebindHistory follows a source that replaced its recall buffer.
func (s *Session) rebindHistory(b *history.Buffer) {
	err := s.do(func() {
		if s.state != domain.StateClosed {
			s.guard.Set(b)
		}
	})
	if err == nil {
		s.logger.Debug("history rebound")
	}
}

func (s *Session) unsuppress() {
	if s.state != domain.StateSuppressing {
		return
	}
	s.guard.Unlock()
	s.state = domain.StateIdle
}

func (s *Session) shutdown(reason string) {
	if s.state == domain.StateClosed {
		return
	}
	s.closed.Store(true)
	s.state = domain.StateClosed
	s.prompter.Cancel()
	s.registry.Seal()
	s.guard.Clear()
	s.guard.Unlock()
	if n, ok := s.src.(source.HistoryNotifier); ok {
		n.OnHistoryChange(nil)
	}

	s.logger.Debug("session closed", "reason", reason)
	if s.hooks.OnClose != nil {
		s.hooks.OnClose(s.ctx, s.sessionEvent(domain.EventClose))
	}
}

func (s *Session) observeError(ctx context.Context, err error) {
	stage := domain.StageListener
	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		stage = inputErr.Stage
	}
	s.logger.Debug("input failed", "stage", stage, "err", err)
	if s.hooks.OnError != nil {
		s.hooks.OnError(ctx, &domain.ErrorEvent{
			EventBase: s.base(domain.EventError),
			Stage:     stage,
			Err:       err,
		})
	}
}

func (s *Session) snapshot() domain.Snapshot {
	return domain.Snapshot{
		ID:                 s.id,
		State:              s.state,
		Started:            s.started,
		Closed:             s.state == domain.StateClosed,
		Suppressing:        s.state == domain.StateSuppressing || s.state == domain.StateProcessing,
		CustomErrorHandler: s.registry.HasCustomErrorListener(),
		HistoryLen:         s.guard.Len(),
		Watermark:          s.guard.Watermark(),
	}
}

func (s *Session) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: s.id}
}

func (s *Session) inputEvent(t domain.EventType, in domain.Input, origin domain.Origin) *domain.InputEvent {
	return &domain.InputEvent{EventBase: s.base(t), Origin: origin, Raw: in.IsRaw()}
}

func (s *Session) sessionEvent(t domain.EventType) *domain.SessionEvent {
	return &domain.SessionEvent{EventBase: s.base(t)}
}
