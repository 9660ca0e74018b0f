package apilog

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaghavSood/swapdesk/db"
)

func TestRedactCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer super-secret-key")
	h.Set("Accept", "application/json")

	redacted := redactCredentials(h)
	assert.Equal(t, "[redacted]", redacted.Get("Authorization"))
	assert.Equal(t, "application/json", redacted.Get("Accept"))

	// The persisted header string never carries the key.
	out := headerString(redacted)
	assert.NotContains(t, out, "super-secret-key")
	assert.Contains(t, out, "[redacted]")

	// The live request header is untouched.
	assert.Equal(t, "Bearer super-secret-key", h.Get("Authorization"))
}

func TestRedactCredentialsWithoutAuth(t *testing.T) {
	h := http.Header{}
	h.Set("Accept", "application/json")
	assert.Equal(t, "application/json", redactCredentials(h).Get("Accept"))
	assert.Empty(t, redactCredentials(h).Get("Authorization"))
}

func TestRoundTripSendsLiveAuthorization(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "apilog.db"))
	require.NoError(t, err)
	defer store.Close()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewHTTPClient("1inch", store)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer super-secret-key")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// Redaction applies to the logged copy only, not the outbound request.
	assert.Equal(t, "Bearer super-secret-key", gotAuth)
}
