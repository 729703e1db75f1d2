package logging

import (
	"io"
	"log/slog"
	"os"
)

// Option configures New.
type Option func(*config)

type config struct {
	w    io.Writer
	json bool
}

// WithWriter sends records to w instead of Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.w = w
	}
}

// WithJSON switches to the JSON handler.
func WithJSON() Option {
	return func(c *config) {
		c.json = true
	}
}

// New creates a configured application logger.
// It writes to Stderr (to keep Stdout for prompts and listener output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, opts ...Option) *slog.Logger {
	c := &config{w: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	ho := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if c.json {
		return slog.New(slog.NewJSONHandler(c.w, ho))
	}
	return slog.New(slog.NewTextHandler(c.w, ho))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
