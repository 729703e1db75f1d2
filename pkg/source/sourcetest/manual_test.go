package sourcetest

import (
	"testing"
	"time"

	"github.com/aretw0/lineup/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_Contract(t *testing.T) {
	RunContract(t, func(t *testing.T) (source.Source, Feed) {
		m := NewManual()
		return m, func(t *testing.T, lines ...string) { m.Type(lines...) }
	})
}

func TestManual_CountsCalls(t *testing.T) {
	m := NewManual()
	defer m.Close()

	m.Pause()
	m.Resume()
	m.Resume()
	m.Prompt()

	assert.Equal(t, 1, m.Pauses())
	assert.Equal(t, 2, m.Resumes())
	assert.Equal(t, 1, m.Prompts())
	assert.False(t, m.Paused())
}

func TestManual_EndClosesLines(t *testing.T) {
	m := NewManual()
	m.Type("last")
	m.End()

	assert.Equal(t, "last", <-m.Lines())
	m.Resume()

	select {
	case _, ok := <-m.Lines():
		assert.False(t, ok, "expected lines channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("lines channel not closed after End")
	}
}

func TestManual_InjectIgnoresGate(t *testing.T) {
	m := NewManual()
	defer m.Close()

	m.Pause()
	go m.Inject("leak")

	select {
	case line := <-m.Lines():
		assert.Equal(t, "leak", line)
	case <-time.After(time.Second):
		t.Fatal("injected line not delivered")
	}
	require.Equal(t, 1, m.History().Len())
	assert.True(t, m.Paused())
}
