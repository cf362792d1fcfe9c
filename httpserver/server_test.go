package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipsync/clipsync-trust-backend/acmemgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServer(t *testing.T, challenges ChallengeSource) *Server {
	t.Helper()

	if challenges == nil {
		challenges = acmemgr.NewChallengeSet()
	}

	return New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      getTestLogger(),
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, challenges, nil)
}

func execRequest(t *testing.T, srv *Server, method, path string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Result().StatusCode, string(body)
}

func TestChallengeServed(t *testing.T) {
	challenges := acmemgr.NewChallengeSet()
	challenges.Put("tok123", "tok123.keyauth")
	srv := testServer(t, challenges)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok123", nil)
	rec := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Result().StatusCode)
	assert.Equal(t, "text/plain", rec.Result().Header.Get("Content-Type"))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, "tok123.keyauth", string(body))
}

func TestChallengeUnknownToken(t *testing.T) {
	srv := testServer(t, nil)

	code, _ := execRequest(t, srv, http.MethodGet, "/.well-known/acme-challenge/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestChallengeGoneAfterClear(t *testing.T) {
	challenges := acmemgr.NewChallengeSet()
	challenges.Put("tok123", "tok123.keyauth")
	srv := testServer(t, challenges)

	code, _ := execRequest(t, srv, http.MethodGet, "/.well-known/acme-challenge/tok123")
	require.Equal(t, http.StatusOK, code)

	challenges.Clear()

	code, _ = execRequest(t, srv, http.MethodGet, "/.well-known/acme-challenge/tok123")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLiveness(t *testing.T) {
	srv := testServer(t, nil)

	code, body := execRequest(t, srv, http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "alive")
}

func TestDrainUndrain(t *testing.T) {
	srv := testServer(t, nil)

	code, _ := execRequest(t, srv, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, code)

	code, _ = execRequest(t, srv, http.MethodGet, "/drain")
	require.Equal(t, http.StatusOK, code)

	code, _ = execRequest(t, srv, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = execRequest(t, srv, http.MethodGet, "/undrain")
	require.Equal(t, http.StatusOK, code)

	code, _ = execRequest(t, srv, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, code)
}
