// Package oneinch provides a client for the 1inch aggregator as exposed by
// the swapdesk proxy endpoints.
package oneinch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/RaghavSood/swapdesk/tokens"
)

// Client talks to the /api/quote and /api/swap proxy endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the proxy at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client,
// e.g. one wrapped in an apilog transport.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// GetQuote fetches a destination-amount estimate for the given pair.
func (c *Client) GetQuote(ctx context.Context, params QuoteParams) (*QuoteResponse, error) {
	q := url.Values{}
	q.Set("src", tokens.Normalize(params.Src))
	q.Set("dst", tokens.Normalize(params.Dst))
	q.Set("amount", params.Amount)

	var result QuoteResponse
	if err := c.get(ctx, "/api/quote", q, "Quote API Error", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSwapTransaction fetches an executable swap transaction. The returned tx
// fields must be submitted to the wallet verbatim.
func (c *Client) GetSwapTransaction(ctx context.Context, params SwapParams) (*SwapResponse, error) {
	q := url.Values{}
	q.Set("src", tokens.Normalize(params.Src))
	q.Set("dst", tokens.Normalize(params.Dst))
	q.Set("amount", params.Amount)
	q.Set("from", params.From)
	q.Set("slippage", strconv.FormatFloat(params.Slippage, 'f', -1, 64))

	setIfPresent(q, "protocols", params.Protocols)
	setIfPresent(q, "fee", params.Fee)
	setIfPresent(q, "gasPrice", params.GasPrice)
	setIfPresent(q, "complexityLevel", params.ComplexityLevel)
	setIfPresent(q, "connectorTokens", params.ConnectorTokens)
	setIfPresent(q, "allowPartialFill", params.AllowPartialFill)
	setIfPresent(q, "disableEstimate", params.DisableEstimate)
	setIfPresent(q, "usePatching", params.UsePatching)

	var result SwapResponse
	if err := c.get(ctx, "/api/swap", q, "Swap API Error", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, errPrefix string, out interface{}) error {
	u := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("Network Error: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Network Error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("Network Error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && (apiErr.Details != "" || apiErr.Error != "") {
			detail := apiErr.Details
			if detail == "" {
				detail = apiErr.Error
			}
			return fmt.Errorf("%s: %s", errPrefix, detail)
		}
		return fmt.Errorf("%s: Unknown error", errPrefix)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: parsing response: %v", errPrefix, err)
	}

	return nil
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
