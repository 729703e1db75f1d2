package history

// unlocked is the watermark sentinel.
const unlocked = -1

// Guard erases lines typed while input is suppressed.
//
// Lock records the buffer length; Restore drops whatever was added since.
// The Guard does not own the buffer, it only trims it. It is driven by a
// single goroutine.
type Guard struct {
	buf       *Buffer
	watermark int
	mark      uint64
}

// NewGuard returns an unlocked guard observing buf (which may be nil).
func NewGuard(buf *Buffer) *Guard {
	return &Guard{buf: buf, watermark: unlocked}
}

// Set rebinds the guard to another buffer. A locked guard re-locks on the new buffer.
func (g *Guard) Set(buf *Buffer) {
	locked := g.Locked()
	g.buf = buf
	g.watermark = unlocked
	if locked {
		g.Lock()
	}
}

// Lock records the current length as the watermark.
// Without a bound buffer the guard stays unlocked.
func (g *Guard) Lock() {
	if g.buf == nil {
		g.watermark = unlocked
		return
	}
	g.watermark, g.mark = g.buf.snapshot()
}

// Unlock clears the watermark.
func (g *Guard) Unlock() {
	g.watermark = unlocked
}

// Locked reports whether a watermark is set.
func (g *Guard) Locked() bool {
	return g.watermark != unlocked
}

// Watermark returns the locked length, or -1.
func (g *Guard) Watermark() int {
	return g.watermark
}

// Restore removes the entries added since Lock, bringing the length back to
// the watermark. If the buffer evicted older entries meanwhile the length
// ends below the watermark; evicted entries are not brought back.
// It is a no-op when unlocked or unbound.
func (g *Guard) Restore() {
	if !g.Locked() || g.buf == nil {
		return
	}
	added := g.buf.Added()
	g.buf.DropNewest(int(added - g.mark))
	g.mark = added
}

// Clear empties the bound buffer.
func (g *Guard) Clear() {
	if g.buf != nil {
		g.buf.Clear()
	}
}

// Len returns the bound buffer length (0 when unbound).
func (g *Guard) Len() int {
	if g.buf == nil {
		return 0
	}
	return g.buf.Len()
}
