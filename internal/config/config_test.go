package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lineup/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "lineup.yaml", `
prompt: "repl> "
parser: fields
history_size: 10
delay: 250ms
render: true
status:
  addr: ":9090"
redis:
  url: redis://localhost:6379/0
  pop_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "repl> ", cfg.Prompt)
	assert.Equal(t, "fields", cfg.Parser)
	assert.Equal(t, 10, cfg.HistorySize)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.True(t, cfg.Render)
	assert.Equal(t, ":9090", cfg.Status.Addr)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Second, cfg.Redis.PopTimeout)
	assert.Equal(t, "lineup:input", cfg.Redis.Key, "unset keys keep their defaults")
	assert.Equal(t, parser.DefaultMaxInputSize, cfg.MaxInputSize)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "lineup.json", `{"parser": "json", "history_size": 5}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Parser)
	assert.Equal(t, 5, cfg.HistorySize)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "lineup.yaml", "promtp: typo\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "promtp")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownParser", "parser: xml\n"},
		{"NegativeHistory", "history_size: -1\n"},
		{"NegativeDelay", "delay: -1s\n"},
		{"RedisWithoutKey", "redis:\n  url: redis://x\n  key: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "lineup.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
