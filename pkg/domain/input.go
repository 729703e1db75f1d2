package domain

import "context"

// Parser converts a raw line into the value handed to data listeners.
// It may block; ctx is the context of the call that submitted the input.
type Parser func(ctx context.Context, text string) (any, error)

// Origin tells where an input entered the session.
type Origin string

const (
	OriginSource Origin = "source" // typed by the user / read from the line source
	OriginSubmit Origin = "submit" // injected through SubmitData or SubmitRaw
	OriginSeed   Origin = "seed"   // passed to Start
)

// Input is a unit of work for the scheduler: either raw text or a parsed value.
type Input struct {
	text   string
	value  any
	parsed bool
}

// Raw wraps a line of text that still has to go through the parser.
func Raw(text string) Input {
	return Input{text: text}
}

// Data wraps an already-parsed value. It bypasses the parser.
func Data(v any) Input {
	return Input{value: v, parsed: true}
}

// IsRaw reports whether the input still needs parsing.
func (in Input) IsRaw() bool {
	return !in.parsed
}

// Text returns the raw text ("" for Data inputs).
func (in Input) Text() string {
	return in.text
}

// Value returns the parsed value (nil for Raw inputs).
func (in Input) Value() any {
	return in.value
}
