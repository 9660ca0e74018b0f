package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaghavSood/swapdesk/config"
	"github.com/RaghavSood/swapdesk/db"
)

type upstreamCall struct {
	path  string
	query map[string]string
	auth  string
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *[]upstreamCall) {
	t.Helper()
	var calls []upstreamCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k, v := range r.URL.Query() {
			q[k] = v[0]
		}
		calls = append(calls, upstreamCall{
			path:  r.URL.Path,
			query: q,
			auth:  r.Header.Get("Authorization"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		OneinchBaseURL: upstreamURL,
		OneinchAPIKey:  "test-key",
		TokenListURL:   upstreamURL + "/tokens",
	}
	return New(cfg, nil, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestQuoteMissingParams(t *testing.T) {
	s := newTestServer(t, "http://unused")

	for _, target := range []string{
		"/api/quote",
		"/api/quote?src=0xa",
		"/api/quote?src=0xa&dst=0xb",
		"/api/quote?dst=0xb&amount=1",
	} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Missing required parameters: src, dst, amount", body["error"])
	}
}

func TestSwapMissingParams(t *testing.T) {
	s := newTestServer(t, "http://unused")

	rec := get(t, s, "/api/swap?src=0xa&dst=0xb&amount=1&from=0xc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing required parameters: src, dst, amount, from, slippage", body["error"])
}

func TestQuoteRelaysUpstreamVerbatim(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{"dstAmount":"5000000"}`)
	s := newTestServer(t, upstream.URL)

	rec := get(t, s, "/api/quote?src=0xa&dst=0xb&amount=1000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dstAmount":"5000000"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/quote", call.path)
	assert.Equal(t, "Bearer test-key", call.auth, "credential injected server-side")
	assert.Equal(t, "1000", call.query["amount"])
	assert.Equal(t, "true", call.query["includeTokensInfo"])
	assert.Equal(t, "true", call.query["includeGas"])
	assert.Equal(t, "false", call.query["includeProtocols"])
}

func TestSwapForwardsOptionalParams(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{"tx":{}}`)
	s := newTestServer(t, upstream.URL)

	rec := get(t, s, "/api/swap?src=0xa&dst=0xb&amount=1&from=0xc&slippage=1&protocols=UNISWAP_V3&disableEstimate=true")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/swap", call.path)
	assert.Equal(t, "UNISWAP_V3", call.query["protocols"])
	assert.Equal(t, "true", call.query["disableEstimate"], "caller overrides the default")
	assert.Equal(t, "false", call.query["allowPartialFill"], "default applies when absent")
}

func TestUpstreamErrorEnvelope(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusBadRequest, `{"description":"insufficient liquidity"}`)
	s := newTestServer(t, upstream.URL)

	rec := get(t, s, "/api/quote?src=0xa&dst=0xb&amount=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1inch API Error", body["error"])
	assert.Equal(t, "insufficient liquidity", body["details"])
	assert.Equal(t, float64(http.StatusBadRequest), body["statusCode"])
}

func TestUpstreamErrorWithoutDetails(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusBadGateway, `{}`)
	s := newTestServer(t, upstream.URL)

	rec := get(t, s, "/api/swap?src=0xa&dst=0xb&amount=1&from=0xc&slippage=1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1inch Swap API Error", body["error"])
	assert.Equal(t, "Unknown error", body["details"])
}

func TestUpstreamUnreachable(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	rec := get(t, s, "/api/quote?src=0xa&dst=0xb&amount=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, "http://unused")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTokensRelay(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, `{"0xabc":{"symbol":"USDT"}}`)
	s := newTestServer(t, upstream.URL)

	rec := get(t, s, "/api/tokens")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"0xabc":{"symbol":"USDT"}}`, rec.Body.String())

	require.Len(t, *calls, 1)
	assert.Equal(t, "/tokens", (*calls)[0].path)
	assert.Empty(t, (*calls)[0].auth, "catalog fetch carries no credential")
}

func TestSwapsHistory(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.InsertSwap(context.Background(), db.InsertSwapParams{
		TxHash: "0xabc", FromToken: "USDT", ToToken: "BUSD",
		FromAmount: "10", DstAmount: "5000000", FromAddress: "0xaa",
	})
	require.NoError(t, err)

	s := New(&config.Config{}, store, nil)
	rec := get(t, s, "/api/swaps")
	assert.Equal(t, http.StatusOK, rec.Code)

	var swaps []db.Swap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &swaps))
	require.Len(t, swaps, 1)
	assert.Equal(t, "0xabc", swaps[0].TxHash)
}
