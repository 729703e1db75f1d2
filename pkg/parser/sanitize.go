package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/lineup/pkg/domain"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "LINEUP_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitized guards next: the line is checked and cleaned by Sanitize before
// next sees it. A limit <= 0 selects MaxInputSize at call time.
func Sanitized(next domain.Parser, limit int) domain.Parser {
	return func(ctx context.Context, text string) (any, error) {
		max := limit
		if max <= 0 {
			max = MaxInputSize()
		}
		clean, err := Sanitize(text, max)
		if err != nil {
			return nil, err
		}
		return next(ctx, clean)
	}
}

// Sanitize rejects lines over limit bytes or with invalid UTF-8, and strips
// control characters other than tab, newline and carriage return.
func Sanitize(input string, limit int) (string, error) {
	if len(input) > limit {
		// Rejected rather than truncated so the listener never sees half a line.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	dirty := strings.IndexFunc(input, func(r rune) bool {
		return unicode.IsControl(r) && !isSafeControl(r)
	})
	if dirty < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	b.WriteString(input[:dirty])
	for _, r := range input[dirty:] {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxInputSize returns the limit from EnvMaxInputSize, or DefaultMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
