// Package tokens fetches the token catalog and resolves token metadata by
// contract address.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Token is an immutable catalog record. Decimals is string-encoded in the
// upstream list.
type Token struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Decimals     string  `json:"decimals"`
	Address      string  `json:"address"`
	ChainID      string  `json:"chainId"`
	GeckoID      string  `json:"geckoId"`
	LogoURI      string  `json:"logoURI"`
	IsGeckoToken bool    `json:"isGeckoToken"`
	Label        string  `json:"label"`
	Value        string  `json:"value"`
	Volume24h    float64 `json:"volume24h"`
}

// DecimalPlaces parses the string-encoded decimals field.
func (t *Token) DecimalPlaces() (int, error) {
	d, err := strconv.Atoi(t.Decimals)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("token %s: invalid decimals %q", t.Symbol, t.Decimals)
	}
	return d, nil
}

// Catalog maps lowercase contract address to token metadata.
type Catalog map[string]Token

// Get looks up a token by address, case-insensitively.
func (c Catalog) Get(address string) (Token, bool) {
	t, ok := c[strings.ToLower(address)]
	return t, ok
}

// FetchError reports a failed catalog fetch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching token catalog from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchCatalog retrieves the token list and returns it keyed by lowercase
// address. One fetch per session is sufficient; callers should treat the
// catalog as absent until this resolves.
func FetchCatalog(ctx context.Context, client *http.Client, url string) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("%s: %s", resp.Status, body)}
	}

	var raw map[string]Token
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("parsing token list: %w", err)}
	}

	catalog := make(Catalog, len(raw))
	for addr, token := range raw {
		catalog[strings.ToLower(addr)] = token
	}

	return catalog, nil
}
