/*
Package source provides line sources for a lineup session.

A Source delivers raw lines, can be paused so that unread input stays queued in
the underlying reader, prompts the user, and owns the recall history that the
scheduler guards.

# Implementations

  - Stream: reads lines from any io.Reader and writes the prompt to an io.Writer.
  - Terminal: a golang.org/x/term line editor in raw mode, with recall history.
  - Open: picks Terminal for an interactive terminal, Stream otherwise.
*/
package source

import (
	"io"
	"log/slog"

	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/pkg/history"
)

// DefaultPrompt is the prompt used when none is configured.
const DefaultPrompt = "> "

// Source is the line-reading side of a session.
type Source interface {
	// Lines delivers raw lines. It is closed once the source has ended.
	Lines() <-chan string
	// Pause stops reading further input until Resume.
	Pause()
	// Resume continues reading.
	Resume()
	// Prompt asks the user for the next line.
	Prompt()
	// History returns the recall buffer, or nil if the source keeps none.
	History() *history.Buffer
	// Close ends the source. It is safe to call more than once.
	Close() error
}

type config struct {
	prompt      string
	history     *history.Buffer
	historySize int
	logger      *slog.Logger
}

// Option configures a source.
type Option func(*config)

// WithPrompt sets the prompt string.
func WithPrompt(prompt string) Option {
	return func(c *config) {
		c.prompt = prompt
	}
}

// WithHistory uses an existing recall buffer.
func WithHistory(b *history.Buffer) Option {
	return func(c *config) {
		c.history = b
	}
}

// WithHistorySize bounds a newly created recall buffer.
func WithHistorySize(n int) Option {
	return func(c *config) {
		c.historySize = n
	}
}

// WithLogger configures the logger used for read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *config {
	c := &config{prompt: DefaultPrompt}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = history.NewBuffer(c.historySize)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// Output returns the writer to use for output that shares the screen with
// src: the terminal itself when src is a Terminal (so the prompt line is
// repainted), fallback otherwise.
func Output(src Source, fallback io.Writer) io.Writer {
	if w, ok := src.(io.Writer); ok {
		return w
	}
	return fallback
}
