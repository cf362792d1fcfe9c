package trust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTrustStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trusted_hosts.toml")

	store, err := OpenFileTrustStore(path)
	require.NoError(t, err)

	fp := interfaces.FingerprintDER([]byte("certificate"))
	require.NoError(t, store.Pin("clip.example.com", fp))

	// Reopen from disk: the entry must survive.
	reopened, err := OpenFileTrustStore(path)
	require.NoError(t, err)

	pinned, ok := reopened.TrustedFingerprint("clip.example.com")
	require.True(t, ok)
	assert.True(t, pinned.Equal(fp))

	// The on-disk format is the plain canonical string.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), fp.String())
}

func TestFileTrustStore_LastTrustedWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trusted_hosts.toml")

	store, err := OpenFileTrustStore(path)
	require.NoError(t, err)

	first := interfaces.FingerprintDER([]byte("first"))
	second := interfaces.FingerprintDER([]byte("second"))

	require.NoError(t, store.Pin("clip.example.com", first))
	require.NoError(t, store.Pin("clip.example.com", second))

	pinned, ok := store.TrustedFingerprint("clip.example.com")
	require.True(t, ok)
	assert.True(t, pinned.Equal(second))
	assert.Len(t, store.Snapshot(), 1)
}

func TestFileTrustStore_Unpin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trusted_hosts.toml")

	store, err := OpenFileTrustStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Pin("clip.example.com", interfaces.FingerprintDER([]byte("cert"))))
	require.NoError(t, store.Unpin("clip.example.com"))

	_, ok := store.TrustedFingerprint("clip.example.com")
	assert.False(t, ok)

	// Unpinning an absent host is a no-op.
	require.NoError(t, store.Unpin("never-seen.example.com"))
}

func TestFileTrustStore_MissingFileIsEmpty(t *testing.T) {
	store, err := OpenFileTrustStore(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Empty(t, store.Snapshot())
}

func TestFileTrustStore_RejectsMalformedFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trusted_hosts.toml")
	require.NoError(t, os.WriteFile(path, []byte("[hosts]\n\"h\" = \"not-a-fingerprint\"\n"), 0o600))

	_, err := OpenFileTrustStore(path)
	assert.Error(t, err)
}
