package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault emulates the small slice of the KV v2 HTTP API the store
// uses: read/write under /v1/<mount>/data/... and metadata deletes.
type fakeVault struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newFakeVault() *fakeVault {
	return &fakeVault{secrets: make(map[string]string)}
}

func (v *fakeVault) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v.mu.Lock()
		defer v.mu.Unlock()

		switch {
		case r.URL.Path == "/v1/sys/health":
			json.NewEncoder(w).Encode(map[string]any{"initialized": true, "sealed": false})

		case strings.Contains(r.URL.Path, "/data/") && r.Method == http.MethodGet:
			content, ok := v.secrets[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"data": map[string]any{"content": content},
				},
			})

		case strings.Contains(r.URL.Path, "/data/") && (r.Method == http.MethodPut || r.Method == http.MethodPost):
			body, _ := io.ReadAll(r.Body)
			var payload struct {
				Data struct {
					Content string `json:"content"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			v.secrets[r.URL.Path] = payload.Data.Content
			w.WriteHeader(http.StatusNoContent)

		case strings.Contains(r.URL.Path, "/metadata/") && r.Method == http.MethodDelete:
			dataPath := strings.Replace(r.URL.Path, "/metadata/", "/data/", 1)
			delete(v.secrets, dataPath)
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestVaultStore(t *testing.T) (*VaultStore, *fakeVault, *FileStore) {
	t.Helper()

	fake := newFakeVault()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	files, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	store, err := NewVaultStore(ts.URL, "secret", "clipsync", "test-token", files, testLogger())
	require.NoError(t, err)

	return store, fake, files
}

func TestVaultStore_AccountKeyRoundTrip(t *testing.T) {
	store, _, _ := newTestVaultStore(t)
	ctx := context.Background()

	_, err := store.LoadAccountKey(ctx)
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))

	require.NoError(t, store.StoreAccountKey(ctx, []byte("account key")))

	loaded, err := store.LoadAccountKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("account key"), loaded)

	require.NoError(t, store.DeleteAccountKey(ctx))
	_, err = store.LoadAccountKey(ctx)
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestVaultStore_MigratesLegacyFileKey(t *testing.T) {
	store, fake, files := newTestVaultStore(t)
	ctx := context.Background()

	// A key from a previous file-backed deployment.
	require.NoError(t, files.StoreAccountKey(ctx, []byte("legacy key")))

	loaded, err := store.LoadAccountKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy key"), loaded)

	// The file is gone, the secret exists.
	_, err = files.LoadAccountKey(ctx)
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	assert.Len(t, fake.secrets, 1)

	// Second load is served from Vault and performs no further file
	// operations.
	loaded, err = store.LoadAccountKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy key"), loaded)
}

func TestVaultStore_CertificatesStayOnDisk(t *testing.T) {
	store, fake, files := newTestVaultStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreCertificate(ctx, "clip.example.com", []byte("cert")))
	require.NoError(t, store.StoreKey(ctx, "clip.example.com", []byte("key")))

	assert.True(t, store.HasCertificate(ctx, "clip.example.com"))
	assert.Empty(t, fake.secrets, "certificates must not be written to Vault")

	onDisk, err := files.LoadCertificate(ctx, "clip.example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("cert"), onDisk)
}

func TestVaultStore_Available(t *testing.T) {
	store, _, _ := newTestVaultStore(t)
	assert.True(t, store.Available(context.Background()))
}
