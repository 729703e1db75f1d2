package sourcetest

import (
	"testing"
	"time"

	"github.com/aretw0/lineup/pkg/source"
)

// Feed makes lines available to the source under test, as if entered by a user.
type Feed func(t *testing.T, lines ...string)

// Factory builds a fresh source under test and the function that feeds it.
type Factory func(t *testing.T) (source.Source, Feed)

const (
	deliveryTimeout = 2 * time.Second
	quietPeriod     = 100 * time.Millisecond
)

// RunContract is a reusable test suite that verifies a source.Source
// implementation honours the pause gate and delivery order.
func RunContract(t *testing.T, newSource Factory) {
	t.Helper()

	t.Run("DeliversInOrder", func(t *testing.T) {
		src, feed := newSource(t)
		defer src.Close()

		feed(t, "one", "two", "three")
		for _, want := range []string{"one", "two", "three"} {
			if got := receive(t, src); got != want {
				t.Fatalf("got line %q, want %q", got, want)
			}
			src.Resume()
		}
	})

	t.Run("HoldsUntilResume", func(t *testing.T) {
		src, feed := newSource(t)
		defer src.Close()

		feed(t, "first", "second")
		if got := receive(t, src); got != "first" {
			t.Fatalf("got line %q, want %q", got, "first")
		}
		expectQuiet(t, src)

		src.Resume()
		if got := receive(t, src); got != "second" {
			t.Fatalf("got line %q, want %q", got, "second")
		}
	})

	t.Run("PauseQueuesInput", func(t *testing.T) {
		src, feed := newSource(t)
		defer src.Close()

		src.Pause()
		feed(t, "queued")
		expectQuiet(t, src)

		src.Resume()
		if got := receive(t, src); got != "queued" {
			t.Fatalf("got line %q, want %q", got, "queued")
		}
	})

	t.Run("HistoryRecordsDelivered", func(t *testing.T) {
		src, feed := newSource(t)
		defer src.Close()

		buf := src.History()
		if buf == nil {
			t.Skip("source keeps no history")
		}
		feed(t, "remember me")
		receive(t, src)
		if buf.Len() == 0 || buf.At(0) != "remember me" {
			t.Errorf("expected newest history entry %q, got %v", "remember me", buf.Entries())
		}
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		src, _ := newSource(t)
		if err := src.Close(); err != nil {
			t.Fatalf("unexpected error on first close: %v", err)
		}
		if err := src.Close(); err != nil {
			t.Fatalf("unexpected error on second close: %v", err)
		}
	})
}

func receive(t *testing.T, src source.Source) string {
	t.Helper()
	select {
	case line, ok := <-src.Lines():
		if !ok {
			t.Fatal("lines channel closed unexpectedly")
		}
		return line
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for a line")
		return ""
	}
}

func expectQuiet(t *testing.T, src source.Source) {
	t.Helper()
	select {
	case line := <-src.Lines():
		t.Fatalf("unexpected line %q delivered while paused", line)
	case <-time.After(quietPeriod):
	}
}
