// Package sourcetest provides a scripted line source and a contract suite for
// source.Source implementations.
package sourcetest

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/lineup/pkg/history"
	"github.com/aretw0/lineup/pkg/source"
)

// Manual is a source.Source driven by the test. Typed lines go through the
// same pause gate as a real source and are added to the history right before
// delivery.
type Manual struct {
	pump    *source.Pump
	history *source.HistorySlot

	mu    sync.Mutex
	queue []string
	ended bool
	wake  chan struct{}

	prompts atomic.Int64
	pauses  atomic.Int64
	resumes atomic.Int64
	closes  atomic.Int64
}

var (
	_ source.Source          = (*Manual)(nil)
	_ source.HistoryNotifier = (*Manual)(nil)
)

// NewManual returns a running Manual source with a default-sized history.
func NewManual() *Manual {
	return NewManualWithHistory(history.NewBuffer(0))
}

// NewManualWithHistory returns a running Manual source using b as history.
// A nil b disables history.
func NewManualWithHistory(b *history.Buffer) *Manual {
	m := &Manual{
		pump:    source.NewPump(),
		history: source.NewHistorySlot(b),
		wake:    make(chan struct{}, 1),
	}
	go m.run()
	return m
}

func (m *Manual) run() {
	defer m.pump.Finish()
	for {
		line, ok := m.next()
		if !ok {
			m.pump.Wait()
			return
		}
		if !m.pump.Wait() {
			return
		}
		m.record(line)
		if !m.pump.Emit(line) {
			return
		}
	}
}

func (m *Manual) next() (string, bool) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			line := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return line, true
		}
		ended := m.ended
		m.mu.Unlock()
		if ended {
			return "", false
		}
		select {
		case <-m.wake:
		case <-m.pump.Done():
			return "", false
		}
	}
}

func (m *Manual) record(line string) {
	m.history.Record(line)
}

func (m *Manual) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Type queues lines as if the user had entered them.
func (m *Manual) Type(lines ...string) {
	m.mu.Lock()
	m.queue = append(m.queue, lines...)
	m.mu.Unlock()
	m.signal()
}

// Inject delivers line immediately, ignoring the pause gate, as a source that
// leaks a line while paused would. It blocks until the line is received.
// It must not be called after End.
func (m *Manual) Inject(line string) bool {
	m.record(line)
	return m.pump.Deliver(line)
}

// End makes the source close Lines once the queued lines are delivered.
func (m *Manual) End() {
	m.mu.Lock()
	m.ended = true
	m.mu.Unlock()
	m.signal()
}

// Lines implements source.Source.
func (m *Manual) Lines() <-chan string { return m.pump.Lines() }

// Pause implements source.Source.
func (m *Manual) Pause() {
	m.pauses.Add(1)
	m.pump.Pause()
}

// Resume implements source.Source.
func (m *Manual) Resume() {
	m.resumes.Add(1)
	m.pump.Resume()
}

// Prompt implements source.Source.
func (m *Manual) Prompt() { m.prompts.Add(1) }

// History implements source.Source.
func (m *Manual) History() *history.Buffer { return m.history.History() }

// SetHistory replaces the recall buffer, as a source reloading its history would.
func (m *Manual) SetHistory(b *history.Buffer) { m.history.SetHistory(b) }

// OnHistoryChange implements source.HistoryNotifier.
func (m *Manual) OnHistoryChange(fn func(*history.Buffer)) { m.history.OnHistoryChange(fn) }

// Close implements source.Source.
func (m *Manual) Close() error {
	m.closes.Add(1)
	m.pump.Shutdown()
	return nil
}

// Prompts returns how many times Prompt was called.
func (m *Manual) Prompts() int { return int(m.prompts.Load()) }

// Pauses returns how many times Pause was called.
func (m *Manual) Pauses() int { return int(m.pauses.Load()) }

// Resumes returns how many times Resume was called.
func (m *Manual) Resumes() int { return int(m.resumes.Load()) }

// Closes returns how many times Close was called.
func (m *Manual) Closes() int { return int(m.closes.Load()) }

// Paused reports whether the gate is currently closed.
func (m *Manual) Paused() bool { return m.pump.Paused() }
