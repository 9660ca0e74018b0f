package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/db"
)

// swapOptionalParams are forwarded to the upstream aggregator only when the
// caller supplies them.
var swapOptionalParams = []string{
	"protocols", "fee", "gasPrice", "complexityLevel",
	"connectorTokens", "allowPartialFill", "disableEstimate", "usePatching",
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := q.Get("src")
	dst := q.Get("dst")
	amount := q.Get("amount")

	if src == "" || dst == "" || amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required parameters: src, dst, amount",
		})
		return
	}

	params := url.Values{}
	params.Set("src", src)
	params.Set("dst", dst)
	params.Set("amount", amount)
	params.Set("includeTokensInfo", "true")
	params.Set("includeGas", "true")
	params.Set("includeProtocols", "false")

	s.relay(w, r.Context(), s.cfg.OneinchBaseURL+"/quote?"+params.Encode(), "1inch API Error", true)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := q.Get("src")
	dst := q.Get("dst")
	amount := q.Get("amount")
	from := q.Get("from")
	slippage := q.Get("slippage")

	if src == "" || dst == "" || amount == "" || from == "" || slippage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required parameters: src, dst, amount, from, slippage",
		})
		return
	}

	params := url.Values{}
	params.Set("src", src)
	params.Set("dst", dst)
	params.Set("amount", amount)
	params.Set("from", from)
	params.Set("slippage", slippage)
	params.Set("includeTokensInfo", "true")
	params.Set("includeGas", "true")
	params.Set("includeProtocols", "false")
	params.Set("disableEstimate", "false")
	params.Set("allowPartialFill", "false")

	for _, name := range swapOptionalParams {
		if v, ok := q[name]; ok && len(v) > 0 {
			params.Set(name, v[0])
		}
	}

	s.relay(w, r.Context(), s.cfg.OneinchBaseURL+"/swap?"+params.Encode(), "1inch Swap API Error", true)
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	if s.cfg.TokenListURL == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "token list not configured"})
		return
	}
	s.relay(w, r.Context(), s.cfg.TokenListURL, "Token API Error", false)
}

func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	swaps, err := s.store.ListRecentSwaps(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}
	if swaps == nil {
		swaps = []db.Swap{}
	}
	writeJSON(w, http.StatusOK, swaps)
}

// relay forwards a GET upstream and mirrors the response: success bodies pass
// through verbatim, failures come back with the upstream status and a
// normalized {error, details, statusCode} envelope. No retries.
func (s *Server) relay(w http.ResponseWriter, ctx context.Context, upstreamURL, errLabel string, withAuth bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstreamURL, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}
	if withAuth {
		req.Header.Set("Authorization", "Bearer "+s.cfg.OneinchAPIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", upstreamURL).Msg("proxy request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"details": err.Error(),
		})
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var upstream struct {
			Description string `json:"description"`
			Error       string `json:"error"`
		}
		json.Unmarshal(body, &upstream)
		details := upstream.Description
		if details == "" {
			details = upstream.Error
		}
		if details == "" {
			details = "Unknown error"
		}

		log.Error().Int("status", resp.StatusCode).Str("details", details).
			Str("url", upstreamURL).Msg("upstream error")
		writeJSON(w, resp.StatusCode, map[string]interface{}{
			"error":      errLabel,
			"details":    details,
			"statusCode": resp.StatusCode,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}
