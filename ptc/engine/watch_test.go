package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchForModels_ReportsNewGGUF(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchForModels(dir, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.tmp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phi-2.Q4_K_M.gguf"), []byte("GGUF"), 0o644))

	select {
	case path := <-w.Models():
		assert.Equal(t, filepath.Join(dir, "phi-2.Q4_K_M.gguf"), path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for model event")
	}
}

func TestWatchForModels_CloseEndsStream(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchForModels(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Models():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}
}

func TestWatchForModels_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchForModels(dir, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

// TestWatchForModels_RenameSemantics pins down the move handling: a model
// renamed out of the directory must not surface its departed path, while one
// renamed in arrives like a created file.
func TestWatchForModels_RenameSemantics(t *testing.T) {
	dir := t.TempDir()
	departing := filepath.Join(dir, "phi-2.Q4_K_M.gguf")
	require.NoError(t, os.WriteFile(departing, []byte("GGUF"), 0o644))

	w, err := WatchForModels(dir, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.Rename(departing, filepath.Join(t.TempDir(), "phi-2.Q4_K_M.gguf")))

	select {
	case path := <-w.Models():
		t.Fatalf("departed path %q reported as arrival", path)
	case <-time.After(200 * time.Millisecond):
	}

	outside := filepath.Join(t.TempDir(), "incoming.gguf")
	require.NoError(t, os.WriteFile(outside, []byte("GGUF"), 0o644))
	arrived := filepath.Join(dir, "incoming.gguf")
	require.NoError(t, os.Rename(outside, arrived))

	select {
	case path := <-w.Models():
		assert.Equal(t, arrived, path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for model event")
	}
}
