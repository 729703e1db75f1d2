package domain

import "context"

// DataListener receives every accepted input value.
// A returned error is routed to the error listeners.
type DataListener func(ctx context.Context, value any) error

// ErrorListener receives parse and data-listener errors.
// A panic inside an error listener is not recovered.
type ErrorListener func(ctx context.Context, err error)

// ListenerKind distinguishes the two listener collections.
type ListenerKind string

const (
	KindData  ListenerKind = "data"
	KindError ListenerKind = "error"
)

// Registration identifies one added listener. Adding the same function twice
// yields two registrations; removing one removes exactly that occurrence.
type Registration struct {
	Kind ListenerKind
	ID   uint64
}

// Valid reports whether r was returned by a successful add.
func (r Registration) Valid() bool {
	return r.ID != 0
}
