package parser_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/lineup/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	got, err := parser.Fields(context.Background(), "  a b  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = parser.Fields(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRaw(t *testing.T) {
	got, err := parser.Raw(context.Background(), "  as is ")
	require.NoError(t, err)
	assert.Equal(t, "  as is ", got)
}

func TestJSON(t *testing.T) {
	got, err := parser.JSON(context.Background(), `{"n": 12345678901234567890, "ok": true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("12345678901234567890"), "ok": true}, got)

	_, err = parser.JSON(context.Background(), `{"open":`)
	assert.Error(t, err)

	_, err = parser.JSON(context.Background(), `1 2`)
	assert.ErrorContains(t, err, "trailing data")
}

func TestYAML(t *testing.T) {
	got, err := parser.YAML(context.Background(), "{name: lineup, tags: [a, b]}")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "lineup", "tags": []any{"a", "b"}}, got)

	got, err = parser.YAML(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parser.YAML(context.Background(), "{unclosed")
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	for _, name := range parser.Names() {
		p, err := parser.ByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	p, err := parser.ByName("JSON")
	require.NoError(t, err)
	v, err := p(context.Background(), "[1]")
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1")}, v)

	_, err = parser.ByName("xml")
	assert.ErrorIs(t, err, parser.ErrUnknownParser)
	assert.Equal(t, []string{"fields", "json", "raw", "yaml"}, parser.Names())
}
