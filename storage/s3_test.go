package storage

import (
	"context"
	"fmt"
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

// fakeS3 emulates a path-style S3 endpoint: objects keyed by request
// path, NoSuchKey XML errors on misses. Request signatures are not
// verified.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()

	f := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		// HEAD on the bare bucket path is the availability probe.
		if r.Method == http.MethodHead && strings.Count(strings.Trim(r.URL.Path, "/"), "/") == 0 {
			w.WriteHeader(http.StatusOK)
			return
		}

		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			data, ok := f.objects[r.URL.Path]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(data)
		case http.MethodDelete:
			delete(f.objects, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()

	fake, srv := newFakeS3(t)
	store, err := NewS3Store("certs-bucket", "clipsync", "us-east-1", srv.URL, "test-key", "test-secret", testLogger())
	require.NoError(t, err)
	return store, fake
}

func TestS3StoreCertificateRoundTrip(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()

	require.NoError(t, store.StoreCertificate(ctx, "clip.example.com", []byte("cert pem")))
	require.NoError(t, store.StoreKey(ctx, "clip.example.com", []byte("key pem")))

	certPEM, err := store.LoadCertificate(ctx, "clip.example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("cert pem"), certPEM)

	keyPEM, err := store.LoadKey(ctx, "clip.example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("key pem"), keyPEM)

	assert.True(t, store.HasCertificate(ctx, "clip.example.com"))

	// Objects live under the configured prefix.
	assert.Contains(t, fake.objects, "/certs-bucket/clipsync/certs/clip.example.com.crt")
	assert.Contains(t, fake.objects, "/certs-bucket/clipsync/keys/clip.example.com.key")

	require.NoError(t, store.DeleteCertificate(ctx, "clip.example.com"))
	require.NoError(t, store.DeleteKey(ctx, "clip.example.com"))
	assert.False(t, store.HasCertificate(ctx, "clip.example.com"))
}

func TestS3StoreMissingObject(t *testing.T) {
	store, _ := newTestS3Store(t)

	_, err := store.LoadCertificate(context.Background(), "absent.example.com")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestS3StoreAccountKey(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()

	_, err := store.LoadAccountKey(ctx)
	require.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, store.StoreAccountKey(ctx, []byte("account key pem")))
	assert.Contains(t, fake.objects, "/certs-bucket/clipsync/account.key")

	keyPEM, err := store.LoadAccountKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("account key pem"), keyPEM)

	require.NoError(t, store.DeleteAccountKey(ctx))
	_, err = store.LoadAccountKey(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestS3StoreAvailable(t *testing.T) {
	store, _ := newTestS3Store(t)
	assert.True(t, store.Available(context.Background()))

	unreachable, err := NewS3Store("certs-bucket", "clipsync", "us-east-1", "http://127.0.0.1:1", "k", "s", testLogger())
	require.NoError(t, err)
	assert.False(t, unreachable.Available(context.Background()))
}
