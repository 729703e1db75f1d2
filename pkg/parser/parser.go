// Package parser provides ready-made domain.Parser functions for raw lines.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/lineup/pkg/domain"
)

// ErrUnknownParser is returned by ByName for an unregistered name.
var ErrUnknownParser = errors.New("unknown parser")

// Raw hands the line through unchanged.
func Raw(_ context.Context, text string) (any, error) {
	return text, nil
}

// Fields trims the line and splits it on whitespace into a []string.
func Fields(_ context.Context, text string) (any, error) {
	return strings.Fields(text), nil
}

// JSON decodes the line as a single JSON document. Numbers are kept as json.Number.
func JSON(_ context.Context, text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid json: trailing data after document")
	}
	return v, nil
}

// YAML decodes the line as a YAML value (flow style fits on one line).
func YAML(_ context.Context, text string) (any, error) {
	var v any
	dec := yaml.NewDecoder(bytes.NewBufferString(text))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return v, nil
}

var registry = map[string]domain.Parser{
	"raw":    Raw,
	"fields": Fields,
	"json":   JSON,
	"yaml":   YAML,
}

// ByName returns the parser registered under name.
func ByName(name string) (domain.Parser, error) {
	p, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownParser, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the registered parser names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
