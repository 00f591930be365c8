package ui

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPrefs_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ui_state.json")

	p := NewPrefsAt(path, testLogger())
	assert.Empty(t, p.LastPreset())

	p.SetLastPreset("Classic 5x3")

	reloaded := NewPrefsAt(path, testLogger())
	assert.Equal(t, "Classic 5x3", reloaded.LastPreset())
}

func TestPrefs_CorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	p := NewPrefsAt(path, testLogger())
	assert.Empty(t, p.LastPreset())

	// Saving over the corrupt file recovers it.
	p.SetLastPreset("Pyramid 6x2")
	reloaded := NewPrefsAt(path, testLogger())
	assert.Equal(t, "Pyramid 6x2", reloaded.LastPreset())
}

func TestChannelWriter_NonBlocking(t *testing.T) {
	w := NewChannelWriter(1)

	n, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// Buffer full: the write still succeeds, the line is dropped.
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	assert.Equal(t, "first\n", <-w.Lines())
	select {
	case line := <-w.Lines():
		t.Fatalf("unexpected line %q", line)
	default:
	}
}
