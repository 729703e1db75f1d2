package history

import (
	"fmt"
	"sync"

	"golang.org/x/term"
)

// DefaultSize matches the number of lines term.Terminal keeps by default.
const DefaultSize = 100

var _ term.History = (*Buffer)(nil)

// Buffer is a bounded, concurrency-safe recall buffer.
// Entries are stored oldest first.
type Buffer struct {
	mu      sync.Mutex
	entries []string
	max     int
	added   uint64
}

// NewBuffer creates a buffer holding at most size entries.
// A size <= 0 selects DefaultSize.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{max: size}
}

// Add records a new most-recent entry. Empty lines are dropped, and the
// oldest entry is evicted once the buffer is full.
func (b *Buffer) Add(entry string) {
	if entry == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if over := len(b.entries) - b.max; over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
	b.added++
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// At returns an entry, 0 being the most recent. It panics when idx is out of range.
func (b *Buffer) At(idx int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx < 0 || idx >= len(b.entries) {
		panic(fmt.Sprintf("history: index [%d] out of range [0,%d)", idx, len(b.entries)))
	}
	return b.entries[len(b.entries)-1-idx]
}

// Entries returns a copy of the entries, oldest first.
func (b *Buffer) Entries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}

// Added returns how many entries were ever accepted by Add.
func (b *Buffer) Added() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.added
}

// snapshot returns the length and the add counter under one lock.
func (b *Buffer) snapshot() (int, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries), b.added
}

// Truncate keeps the n oldest entries.
func (b *Buffer) Truncate(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n < len(b.entries) {
		clear(b.entries[n:])
		b.entries = b.entries[:n]
	}
}

// DropNewest removes up to k of the most recent entries and returns how many were removed.
func (b *Buffer) DropNewest(k int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if k <= 0 {
		return 0
	}
	if k > len(b.entries) {
		k = len(b.entries)
	}
	n := len(b.entries) - k
	clear(b.entries[n:])
	b.entries = b.entries[:n]
	return k
}

// Clear removes every entry.
func (b *Buffer) Clear() {
	b.Truncate(0)
}
