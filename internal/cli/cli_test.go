package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lineup/internal/config"
	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/pkg/adapters/redis"
	"github.com/aretw0/lineup/pkg/source"
	"github.com/aretw0/lineup/pkg/source/sourcetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startApp(t *testing.T, cfg config.Config) (*app, *sourcetest.Manual, *syncBuffer) {
	t.Helper()
	src := sourcetest.NewManual()
	out := &syncBuffer{}
	a, err := newApp(cfg, src, out, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close() })
	require.NoError(t, a.start(context.Background()))
	return a, src, out
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"String", "hello", "hello\n"},
		{"Fields", []string{"a", "b"}, "- a\n- b\n"},
		{"JSONNumbers", map[string]any{"n": json.Number("1"), "f": json.Number("1.5")}, "f: 1.5\nn: 1\n"},
		{"Nested", []any{map[string]any{"k": json.Number("2")}}, "- k: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApp_EchoesParsedLines(t *testing.T) {
	cfg := config.Default()
	cfg.Parser = "fields"
	_, src, out := startApp(t, cfg)

	src.Type("  a b  ")
	assert.Eventually(t, func() bool { return out.String() == "- a\n- b\n" }, waitFor, tick)
}

func TestApp_PrintsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Parser = "json"
	_, src, out := startApp(t, cfg)

	src.Type("{bad")
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("error: parse error:"))
	}, waitFor, tick)

	src.Type(`{"n": 1}`)
	assert.Eventually(t, func() bool {
		return bytes.HasSuffix([]byte(out.String()), []byte("n: 1\n"))
	}, waitFor, tick)
}

func TestApp_RejectsOversizedInput(t *testing.T) {
	cfg := config.Default()
	cfg.MaxInputSize = 4
	_, src, out := startApp(t, cfg)

	src.Type("too long")
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("input exceeds maximum allowed size"))
	}, waitFor, tick)
}

func TestApp_Seed(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = "hello"
	a, _, out := startApp(t, cfg)

	assert.Equal(t, "hello\n", out.String(), "the seed is handled before Start returns")
	assert.True(t, a.sess.Snapshot().Started)
}

func TestApp_UnknownParser(t *testing.T) {
	cfg := config.Default()
	cfg.Parser = "xml"
	_, err := newApp(cfg, sourcetest.NewManual(), io.Discard, logging.NewNop())
	assert.Error(t, err)
}

func TestApp_StatusServer(t *testing.T) {
	cfg := config.Default()
	cfg.Status.Addr = "127.0.0.1:0"
	a, src, out := startApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	a.serve(ctx, func(addr net.Addr) { addrCh <- addr })

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case <-time.After(waitFor):
		t.Fatal("status server did not start")
	}

	src.Type("ping")
	require.Eventually(t, func() bool { return out.String() == "ping\n" }, waitFor, tick)

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "lineup_inputs_accepted_total 1")

	cancel()
	require.NoError(t, a.close())
}

func TestApp_WaitEndsWithSource(t *testing.T) {
	a, src, _ := startApp(t, config.Default())

	done := make(chan struct{})
	go func() {
		a.wait(context.Background())
		close(done)
	}()

	src.End()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("wait did not return after the source ended")
	}
}

func TestOpenSource_Stream(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	out, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer out.Close()

	src, err := openSource(config.Default(), r, out, logging.NewNop())
	require.NoError(t, err)
	defer src.Close()

	assert.IsType(t, &source.Stream{}, src)
}

func TestOpenSource_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.URL = "redis://" + mr.Addr()

	src, err := openSource(cfg, nil, nil, logging.NewNop())
	require.NoError(t, err)
	defer src.Close()
	assert.IsType(t, &redis.Source{}, src)
}

func TestPush(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()

	assert.Error(t, Push(context.Background(), cfg, []string{"a"}), "redis is not configured")

	cfg.Redis.URL = "redis://" + mr.Addr()
	require.NoError(t, Push(context.Background(), cfg, []string{"a", "b"}))

	queued, err := mr.List(cfg.Redis.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, queued)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", func(c *config.Config) { c.Parser = "yaml" })
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Parser)

	_, err = LoadConfig("", func(c *config.Config) { c.Parser = "xml" })
	assert.Error(t, err)
}

func TestSignalContext(t *testing.T) {
	t.Run("ParentCancel", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		sc := NewSignalContext(parent)
		cancel()

		<-sc.Done()
		assert.Nil(t, sc.Signal())
	})

	t.Run("SIGTERM", func(t *testing.T) {
		sc := NewSignalContext(context.Background())
		defer sc.Cancel()

		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
		select {
		case <-sc.Done():
		case <-time.After(waitFor):
			t.Fatal("context not cancelled by SIGTERM")
		}
		assert.Equal(t, syscall.SIGTERM, sc.Signal())
	})
}

func TestCreateLogger(t *testing.T) {
	ctx := context.Background()
	assert.False(t, createLogger(false, false).Enabled(ctx, slog.LevelDebug))
	assert.True(t, createLogger(true, false).Enabled(ctx, slog.LevelDebug))
	assert.True(t, createLogger(true, true).Enabled(ctx, slog.LevelDebug))
}

func TestLogCompletion(t *testing.T) {
	var buf bytes.Buffer
	logCompletion(&buf, os.Interrupt, false)
	assert.Equal(t, "[CTRL+C]\n>>> Interrupted.\n", buf.String())

	buf.Reset()
	logCompletion(&buf, nil, false)
	assert.Equal(t, ">>> Input ended.\n", buf.String())

	buf.Reset()
	logCompletion(&buf, syscall.SIGTERM, true)
	assert.Empty(t, buf.String())
}
