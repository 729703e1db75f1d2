package source

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

)

// DefaultInputBufferSize is the largest line a Stream accepts.
const DefaultInputBufferSize = 64 * 1024

// Stream reads newline-terminated lines from an io.Reader.
// While paused at most one line is held back; the rest stays in the reader.
type Stream struct {
	*Pump
	*HistorySlot
	scanner *bufio.Scanner
	logger  *slog.Logger

	outMu  sync.Mutex
	out    io.Writer
	prompt string
}

// NewStream starts reading r. Prompts are written to w (nil disables them).
// Close does not close r; a Stream blocked on a read stays blocked until r
// yields data or EOF.
func NewStream(r io.Reader, w io.Writer, opts ...Option) *Stream {
	cfg := newConfig(opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), DefaultInputBufferSize)

	s := &Stream{
		Pump:        NewPump(),
		HistorySlot: NewHistorySlot(cfg.history),
		scanner:     scanner,
		logger:      cfg.logger,
		out:         w,
		prompt:      cfg.prompt,
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer s.Finish()
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if !s.Wait() {
			return
		}
		s.Record(line)
		if !s.Emit(line) {
			return
		}
	}
	if err := s.scanner.Err(); err != nil {
		s.logger.Warn("line source read failed", "err", err)
	}
	// The end is reported once the last line has been handled.
	s.Wait()
}

// Prompt writes the prompt.
func (s *Stream) Prompt() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.out == nil {
		return
	}
	if _, err := fmt.Fprint(s.out, s.prompt); err != nil {
		s.logger.Debug("prompt write failed", "err", err)
	}
}

// SetPrompt changes the prompt used from the next Prompt on.
func (s *Stream) SetPrompt(prompt string) {
	s.outMu.Lock()
	s.prompt = prompt
	s.outMu.Unlock()
}

// Close implements Source.
func (s *Stream) Close() error {
	s.Shutdown()
	return nil
}
