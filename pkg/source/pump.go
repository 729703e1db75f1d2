package source

import "sync"

// Pump implements the pause gate and the delivery channel shared by sources.
// A producer goroutine calls Emit to deliver each line and Finish when it
// exits. Emit pauses the pump as part of the hand-off, so the producer reads
// nothing more until the consumer calls Resume. Sources embed a *Pump to get
// Lines, Pause and Resume.
type Pump struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
	closed bool

	lines    chan string
	done     chan struct{}
	shutOnce sync.Once
	finOnce  sync.Once
}

// NewPump returns a resumed pump.
func NewPump() *Pump {
	p := &Pump{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Lines implements Source.
func (p *Pump) Lines() <-chan string {
	return p.lines
}

// Pause implements Source.
func (p *Pump) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume implements Source.
func (p *Pump) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Paused reports whether the pump is paused.
func (p *Pump) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Done is closed by Shutdown.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Wait blocks while the pump is paused. It returns false once shut down.
func (p *Pump) Wait() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.paused && !p.closed {
		p.cond.Wait()
	}
	return !p.closed
}

// Emit waits for the gate, pauses the pump and delivers line. It blocks until
// the line is received or the pump is shut down, and reports whether it was
// delivered.
func (p *Pump) Emit(line string) bool {
	p.mu.Lock()
	for p.paused && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.paused = true
	p.mu.Unlock()
	return p.Deliver(line)
}

// Deliver sends line without consulting or changing the gate.
func (p *Pump) Deliver(line string) bool {
	select {
	case p.lines <- line:
		return true
	case <-p.done:
		return false
	}
}

// Shutdown releases Wait and Emit. Safe to call more than once.
func (p *Pump) Shutdown() {
	p.shutOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		p.cond.Broadcast()
	})
}

// Finish closes Lines. Only the producer calls it, once it stops emitting.
func (p *Pump) Finish() {
	p.finOnce.Do(func() {
		close(p.lines)
	})
}
