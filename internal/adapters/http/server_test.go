package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lineup/internal/scheduler"
	"github.com/aretw0/lineup/pkg/domain"
	"github.com/aretw0/lineup/pkg/source/sourcetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, opts ...scheduler.Option) *scheduler.Session {
	t.Helper()
	s, err := scheduler.New(sourcetest.NewManual(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetHealth(t *testing.T) {
	handler := NewHandler(newSession(t))

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	sess := newSession(t, scheduler.WithID("abc"))
	handler := NewHandler(sess, WithVersion("1.2.3"))

	req, _ := http.NewRequest("GET", "/info", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "lineup", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, APIVersion, resp["api_version"])
	assert.Equal(t, "abc", resp["session_id"])
}

func TestGetSession(t *testing.T) {
	sess := newSession(t)
	require.NoError(t, sess.Start(context.Background()))
	handler := NewHandler(sess)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/session", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, sess.ID(), snap.ID)
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.True(t, snap.Started)

	require.NoError(t, sess.Close())
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/session", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRoutesAreReadOnly(t *testing.T) {
	handler := NewHandler(newSession(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/session", strings.NewReader(`{"input":"x"}`)))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "metrics are only mounted when configured")
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("lineup_prompts_total 1\n"))
	})
	handler := NewHandler(newSession(t), WithMetrics(metrics))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lineup_prompts_total")
}

func TestSubscribeEvents(t *testing.T) {
	events := NewBroadcaster(8)
	sess := newSession(t, scheduler.WithHooks(events.Hooks()))
	srv := httptest.NewServer(NewHandler(sess, WithEvents(events)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// The subscription is registered before the ping is flushed.
	require.NoError(t, sess.Start(context.Background()))

	found := make(chan string, 1)
	go func() {
		for {
			l, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(l, "event: prompt") {
				found <- l
				return
			}
		}
	}()

	select {
	case l := <-found:
		assert.Equal(t, "event: prompt\n", l)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt event not streamed")
	}
}

func TestBroadcaster_DropsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)

	b.Publish(domain.EventPrompt, map[string]int{"n": 1})
	b.Publish(domain.EventPrompt, map[string]int{"n": 2})

	ev := <-ch
	assert.JSONEq(t, `{"n":1}`, string(ev.Data))

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, "127.0.0.1:0", NewHandler(newSession(t)), nil, func(a net.Addr) { addrCh <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("serve failed: %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
