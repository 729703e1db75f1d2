package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/lineup/internal/presentation/tui"
)

// echo prints every accepted value as YAML.
type echo struct {
	mu     sync.Mutex
	out    io.Writer
	delay  time.Duration
	render func(string) (string, error)
}

func (e *echo) onData(ctx context.Context, v any) error {
	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	text, err := formatValue(v)
	if err != nil {
		return err
	}
	if e.render != nil {
		rendered, err := e.render(tui.CodeBlock("yaml", strings.TrimRight(text, "\n")))
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		text = rendered
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = io.WriteString(e.out, text)
	return err
}

func (e *echo) onError(_ context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.out, tui.StyleError(e.out, "error: "+err.Error()))
}

// formatValue renders v as a YAML document.
func formatValue(v any) (string, error) {
	data, err := yaml.Marshal(normalize(v))
	if err != nil {
		return "", fmt.Errorf("failed to format value: %w", err)
	}
	return string(data), nil
}

// normalize turns json.Number into int64 or float64 so YAML prints numbers
// instead of quoted strings.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
