package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lineup/internal/scheduler"
	"github.com/aretw0/lineup/pkg/adapters/redis"
	"github.com/aretw0/lineup/pkg/source"
	"github.com/aretw0/lineup/pkg/source/sourcetest"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSource_Contract(t *testing.T) {
	sourcetest.RunContract(t, func(t *testing.T) (source.Source, sourcetest.Feed) {
		_, client := newClient(t)
		src := redis.NewFromClient(client, redis.WithPopTimeout(100*time.Millisecond))
		return src, func(t *testing.T, lines ...string) {
			require.NoError(t, src.Push(context.Background(), lines...))
		}
	})
}

func TestRedisSource_PausedLinesStayQueued(t *testing.T) {
	mr, client := newClient(t)
	src := redis.NewFromClient(client, redis.WithKey("jobs"), redis.WithPopTimeout(50*time.Millisecond))
	defer src.Close()

	src.Pause()
	// Let an in-flight BLPOP time out before feeding.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, src.Push(context.Background(), "a", "b"))
	time.Sleep(100 * time.Millisecond)

	queued, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, queued)
}

func TestRedisSource_PublishesPrompt(t *testing.T) {
	_, client := newClient(t)
	src := redis.NewFromClient(client, redis.WithPrompt("remote> "), redis.WithPromptChannel("prompts"))
	defer src.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "prompts")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	src.Prompt()

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "remote> ", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt not published")
	}
}

func TestRedisSource_DrivesSession(t *testing.T) {
	_, client := newClient(t)
	src := redis.NewFromClient(client, redis.WithPopTimeout(50*time.Millisecond))

	s, err := scheduler.New(src)
	require.NoError(t, err)
	defer s.Close()

	got := make(chan any, 4)
	s.OnData(func(_ context.Context, v any) error {
		got <- v
		return nil
	})
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, src.Push(context.Background(), "first", "second"))

	for _, want := range []string{"first", "second"} {
		select {
		case v := <-got:
			assert.Equal(t, want, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	assert.Equal(t, []string{"first", "second"}, src.History().Entries())
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := redis.New("not-a-url")
	assert.Error(t, err)
}

func TestNew_OwnsClient(t *testing.T) {
	mr, _ := newClient(t)
	src, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	require.NoError(t, src.Push(context.Background(), "x"))
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestPush_AppendsWithoutConsuming(t *testing.T) {
	mr, client := newClient(t)

	require.NoError(t, redis.Push(context.Background(), client, "jobs", "a", "b"))
	require.NoError(t, redis.Push(context.Background(), client, "jobs"))
	require.NoError(t, redis.Push(context.Background(), client, "jobs", "c"))

	queued, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, queued)
}

func TestRedisSource_CloseRequeuesUndeliveredLine(t *testing.T) {
	mr, client := newClient(t)
	src := redis.NewFromClient(client, redis.WithKey("jobs"), redis.WithPopTimeout(50*time.Millisecond))

	require.NoError(t, src.Push(context.Background(), "a", "b"))
	select {
	case line := <-src.Lines():
		assert.Equal(t, "a", line)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line")
	}

	// "b" is popped and then held, since nobody reads Lines.
	src.Resume()
	require.Eventually(t, func() bool { return !mr.Exists("jobs") }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, src.Close())
	queued, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, queued)
}
