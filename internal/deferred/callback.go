// Package deferred holds a single callback to run once the owner's current
// turn is over. Scheduling again replaces the pending callback, so a burst of
// requests made within one turn collapses into one call.
//
// A Callback is owned by one goroutine (the scheduler loop) and is not safe for
// concurrent use.
package deferred

// Callback is a slot for at most one pending function.
type Callback struct {
	fn func()
}

// Schedule makes fn the pending callback, discarding any previous one.
func (c *Callback) Schedule(fn func()) {
	c.fn = fn
}

// Cancel discards the pending callback without running it.
func (c *Callback) Cancel() {
	c.fn = nil
}

// Pending reports whether a callback is waiting to run.
func (c *Callback) Pending() bool {
	return c.fn != nil
}

// Flush runs the pending callback, if any, and reports whether it ran.
// The slot is cleared before the call so fn may schedule a successor.
func (c *Callback) Flush() bool {
	fn := c.fn
	if fn == nil {
		return false
	}
	c.fn = nil
	fn()
	return true
}
