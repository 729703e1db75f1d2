// Package listeners keeps the ordered data and error listeners of a session.
//
// The error side is a tagged state: either the default chain, which re-raises
// (panics), or a non-empty custom chain. The default is present exactly when
// no custom error listener is registered.
package listeners

import (
	"context"
	"sync"

	"github.com/aretw0/lineup/pkg/domain"
)

// Rethrow is the default error handler: it panics with the error.
func Rethrow(_ context.Context, err error) {
	panic(err)
}

type entry[F any] struct {
	id uint64
	fn F
}

// errorChain is either defaultChain or customChain.
type errorChain interface {
	listeners() []domain.ErrorListener
}

type defaultChain struct {
	fallback domain.ErrorListener
}

func (c defaultChain) listeners() []domain.ErrorListener {
	return []domain.ErrorListener{c.fallback}
}

// customChain is never empty.
type customChain []entry[domain.ErrorListener]

func (c customChain) listeners() []domain.ErrorListener {
	out := make([]domain.ErrorListener, len(c))
	for i, e := range c {
		out[i] = e.fn
	}
	return out
}

// Registry holds the listeners. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	nextID   uint64
	data     []entry[domain.DataListener]
	errs     errorChain
	fallback domain.ErrorListener
	observer func(context.Context, error)
	sealed   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithFallback replaces Rethrow as the default error handler.
func WithFallback(fn domain.ErrorListener) Option {
	return func(r *Registry) {
		if fn != nil {
			r.fallback = fn
		}
	}
}

// WithObserver sets a function that sees every error before the listeners do.
func WithObserver(fn func(context.Context, error)) Option {
	return func(r *Registry) {
		r.observer = fn
	}
}

// New creates an empty registry with the default error handler installed.
func New(opts ...Option) *Registry {
	r := &Registry{fallback: Rethrow}
	for _, opt := range opts {
		opt(r)
	}
	r.errs = defaultChain{fallback: r.fallback}
	return r
}

// AddData appends a data listener.
func (r *Registry) AddData(fn domain.DataListener) domain.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed || fn == nil {
		return domain.Registration{}
	}
	r.nextID++
	r.data = append(r.data, entry[domain.DataListener]{id: r.nextID, fn: fn})
	return domain.Registration{Kind: domain.KindData, ID: r.nextID}
}

// AddError appends an error listener. The first one replaces the default handler.
func (r *Registry) AddError(fn domain.ErrorListener) domain.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed || fn == nil {
		return domain.Registration{}
	}
	r.nextID++
	e := entry[domain.ErrorListener]{id: r.nextID, fn: fn}
	switch chain := r.errs.(type) {
	case customChain:
		r.errs = append(chain, e)
	default:
		r.errs = customChain{e}
	}
	return domain.Registration{Kind: domain.KindError, ID: r.nextID}
}

// Remove drops the listener behind reg and reports whether it was found.
// Removing the last custom error listener reinstates the default handler.
func (r *Registry) Remove(reg domain.Registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch reg.Kind {
	case domain.KindData:
		for i, e := range r.data {
			if e.id == reg.ID {
				r.data = append(r.data[:i:i], r.data[i+1:]...)
				return true
			}
		}
	case domain.KindError:
		chain, ok := r.errs.(customChain)
		if !ok {
			return false
		}
		for i, e := range chain {
			if e.id == reg.ID {
				if len(chain) == 1 {
					r.errs = defaultChain{fallback: r.fallback}
				} else {
					r.errs = append(chain[:i:i], chain[i+1:]...)
				}
				return true
			}
		}
	}
	return false
}

// HasCustomErrorListener reports whether the default handler is currently replaced.
func (r *Registry) HasCustomErrorListener() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.errs.(customChain)
	return ok
}

// Len returns the number of caller-registered listeners of the given kind.
func (r *Registry) Len(kind domain.ListenerKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case domain.KindData:
		return len(r.data)
	case domain.KindError:
		if chain, ok := r.errs.(customChain); ok {
			return len(chain)
		}
	}
	return 0
}

// Reset clears both collections and reinstates the default handler.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = nil
	r.errs = defaultChain{fallback: r.fallback}
}

// Seal resets the registry and makes every later add and notify a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
	r.Reset()
}

func (r *Registry) dataSnapshot() []domain.DataListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.sealed {
		return nil
	}
	out := make([]domain.DataListener, len(r.data))
	for i, e := range r.data {
		out[i] = e.fn
	}
	return out
}

// NotifyError calls the error listeners in registration order on the calling
// goroutine. Panics raised by them, including the default handler's, propagate.
func (r *Registry) NotifyError(ctx context.Context, err error) {
	r.mu.RLock()
	if r.sealed {
		r.mu.RUnlock()
		return
	}
	fns := r.errs.listeners()
	observer := r.observer
	r.mu.RUnlock()

	if observer != nil {
		observer(ctx, err)
	}
	for _, fn := range fns {
		fn(ctx, err)
	}
}

// NotifyData runs every data listener concurrently with value and waits for
// all of them. Each failure (error or panic) is wrapped in a
// *domain.InputError and passed to NotifyError, one at a time, in the order
// the failures arrive. It returns the number of failed listeners.
func (r *Registry) NotifyData(ctx context.Context, value any) int {
	fns := r.dataSnapshot()
	if len(fns) == 0 {
		return 0
	}

	errCh := make(chan error, len(fns))
	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func(fn domain.DataListener) {
			defer wg.Done()
			if err := invoke(ctx, fn, value); err != nil {
				errCh <- &domain.InputError{Stage: domain.StageListener, Err: err}
			}
		}(fn)
	}
	go func() {
		wg.Wait()
		close(errCh)
	}()

	failed := 0
	for err := range errCh {
		failed++
		r.NotifyError(ctx, err)
	}
	return failed
}

func invoke(ctx context.Context, fn domain.DataListener, value any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = domain.NewPanicError(rec)
		}
	}()
	return fn(ctx, value)
}
