package source

import (
	"sync"

	"github.com/aretw0/lineup/pkg/history"
)

// HistoryNotifier is implemented by sources whose recall buffer can be
// replaced while they run. fn is called with the new buffer after every
// replacement; a later call replaces fn.
type HistoryNotifier interface {
	OnHistoryChange(fn func(*history.Buffer))
}

// HistorySlot holds a source's recall buffer. Sources embed it to get
// History, SetHistory and OnHistoryChange.
type HistorySlot struct {
	mu       sync.Mutex
	buf      *history.Buffer
	onChange func(*history.Buffer)
}

// NewHistorySlot returns a slot holding b (which may be nil).
func NewHistorySlot(b *history.Buffer) *HistorySlot {
	return &HistorySlot{buf: b}
}

// History implements Source.
func (h *HistorySlot) History() *history.Buffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf
}

// SetHistory replaces the recall buffer and announces it. A nil b disables
// history. It must not be called from a session hook.
func (h *HistorySlot) SetHistory(b *history.Buffer) {
	h.mu.Lock()
	h.buf = b
	fn := h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(b)
	}
}

// OnHistoryChange implements HistoryNotifier.
func (h *HistorySlot) OnHistoryChange(fn func(*history.Buffer)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Record adds line to the current buffer, if any.
func (h *HistorySlot) Record(line string) {
	if b := h.History(); b != nil {
		b.Add(line)
	}
}
