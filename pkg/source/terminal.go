package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/lineup/pkg/history"
	"golang.org/x/term"
)

// Terminal reads lines with golang.org/x/term's line editor.
//
// The editor paints the prompt itself at the start of every read, so Prompt
// only makes sure a read is in flight. While paused no read is issued and
// keystrokes stay queued in the terminal.
type Terminal struct {
	*Pump
	term    *term.Terminal
	history *history.Buffer
	logger  *slog.Logger

	restoreOnce sync.Once
	restore     func() error
}

// NewTerminal runs a line editor over rw. rw must already be in raw mode if it
// is a local terminal; see OpenTerminal.
func NewTerminal(rw io.ReadWriter, opts ...Option) *Terminal {
	cfg := newConfig(opts)
	tm := term.NewTerminal(rw, cfg.prompt)
	tm.History = cfg.history

	t := &Terminal{
		Pump:    NewPump(),
		term:    tm,
		history: cfg.history,
		logger:  cfg.logger,
		restore: func() error { return nil },
	}
	go t.run()
	return t
}

// OpenTerminal puts in into raw mode and runs a line editor over in and out.
// Close restores the previous terminal state.
func OpenTerminal(in, out *os.File, opts ...Option) (*Terminal, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	t := NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, opts...)
	t.restore = func() error { return term.Restore(fd, state) }

	if w, h, err := term.GetSize(int(out.Fd())); err == nil {
		_ = t.term.SetSize(w, h)
	}
	return t, nil
}

func (t *Terminal) run() {
	defer t.Finish()
	for t.Wait() {
		line, err := t.term.ReadLine()
		if err != nil && !errors.Is(err, term.ErrPasteIndicator) {
			if !errors.Is(err, io.EOF) {
				t.logger.Warn("terminal read failed", "err", err)
			}
			return
		}
		if !t.Emit(line) {
			return
		}
	}
}

// Prompt resumes reading; the editor shows the prompt when the read starts.
func (t *Terminal) Prompt() {
	t.Resume()
}

// SetPrompt changes the prompt for subsequent reads.
func (t *Terminal) SetPrompt(prompt string) {
	t.term.SetPrompt(prompt)
}

// Write prints above the line being edited and repaints the prompt.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.term.Write(p)
}

// History implements Source.
func (t *Terminal) History() *history.Buffer {
	return t.history
}

// Close implements Source and restores the terminal state.
func (t *Terminal) Close() error {
	t.Shutdown()
	var err error
	t.restoreOnce.Do(func() {
		err = t.restore()
	})
	return err
}

// Open returns a Terminal when both in and out are interactive terminals and
// a Stream otherwise.
func Open(in, out *os.File, opts ...Option) (Source, error) {
	if term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		return OpenTerminal(in, out, opts...)
	}
	return NewStream(in, out, opts...), nil
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
