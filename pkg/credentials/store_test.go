package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasValidMissingDirectory(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.False(t, store.HasValid("nobody"))
}

func TestHasValidMalformedFile(t *testing.T) {
	store := NewStore(t.TempDir())
	dir := store.Dir("broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "creds.json"), []byte("{not json"), 0o600))

	assert.False(t, store.HasValid("broken"))
}

func TestHasValidEmptyIdentity(t *testing.T) {
	store := NewStore(t.TempDir())
	dir := store.Dir("empty")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "creds.json"), []byte(`{"me":{"id":""}}`), 0o600))

	assert.False(t, store.HasValid("empty"))
}

func TestWriteIdentityRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.WriteIdentity("main", "5491112345678@s.whatsapp.net", "Agente"))

	assert.True(t, store.HasValid("main"))
}

func TestClearIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.WriteIdentity("main", "5491112345678@s.whatsapp.net", ""))

	require.NoError(t, store.Clear("main"))
	assert.False(t, store.HasValid("main"))

	// Second clear on an already-empty directory must not fail.
	require.NoError(t, store.Clear("main"))
}
