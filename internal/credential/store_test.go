package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means no credential")

	require.NoError(t, store.Save(ctx, "abc.def.ghi"))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clearing twice is fine.
	require.NoError(t, store.Clear(ctx))
}

func TestFileStore_RejectsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credential"))
	require.NoError(t, err)

	err = store.Save(context.Background(), "  ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "credential cannot be empty")
}

func TestFileStore_DefaultPath(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	store, err := NewFileStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configHome, "nesa", "credential"), store.Path())
}

func TestTokenSource(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credential"))
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "tok"))

	token, err := TokenSource{Store: store}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}
