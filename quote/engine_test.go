package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaghavSood/swapdesk/oneinch"
	"github.com/RaghavSood/swapdesk/tokens"
)

var (
	usdt = &tokens.Token{
		Symbol:   "USDT",
		Decimals: "18",
		Address:  "0x55d398326f99059fF775485246999027B3197955",
	}
	busd = &tokens.Token{
		Symbol:   "BUSD",
		Decimals: "6",
		Address:  "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56",
	}
)

type fakeFetcher struct {
	mu    sync.Mutex
	resp  *oneinch.QuoteResponse
	err   error
	calls []oneinch.QuoteParams
}

func (f *fakeFetcher) GetQuote(ctx context.Context, params oneinch.QuoteParams) (*oneinch.QuoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() oneinch.QuoteParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func settled(e *Engine) func() bool {
	return func() bool {
		r := e.Result()
		return !r.Loading && (r.Amount != "" || r.Err != "")
	}
}

func TestEngineEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{resp: &oneinch.QuoteResponse{DstAmount: "5000000"}}
	e := NewEngine(fetcher, 5*time.Millisecond)
	e.SetTokens(usdt, busd)

	require.True(t, e.Input("10"))
	assert.Eventually(t, settled(e), time.Second, 5*time.Millisecond)

	require.Equal(t, 1, fetcher.callCount())
	call := fetcher.lastCall()
	assert.Equal(t, "10000000000000000000", call.Amount, "amount scaled by source decimals")
	assert.Equal(t, usdt.Address, call.Src)
	assert.Equal(t, busd.Address, call.Dst)

	r := e.Result()
	assert.Equal(t, "5.000", r.Amount, "destination amount scaled and tiered")
	assert.Empty(t, r.Err)
}

func TestEngineIncompleteInputs(t *testing.T) {
	fetcher := &fakeFetcher{resp: &oneinch.QuoteResponse{DstAmount: "1"}}
	e := NewEngine(fetcher, time.Millisecond)

	// No tokens selected yet.
	require.True(t, e.Input("10"))
	e.Flush()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fetcher.callCount())
	assert.Equal(t, Result{}, e.Result())

	// Zero amount never fetches.
	e2 := NewEngine(fetcher, time.Millisecond)
	e2.SetTokens(usdt, busd)
	require.True(t, e2.Input("0"))
	e2.Flush()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fetcher.callCount())
}

func TestEngineSameTokenShortCircuit(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewEngine(fetcher, time.Millisecond)
	e.SetTokens(usdt, usdt)

	require.True(t, e.Input("123.456"))
	e.Flush()

	r := e.Result()
	assert.Equal(t, "123.456", r.Amount, "same pair echoes the input verbatim")
	assert.Zero(t, fetcher.callCount())
}

func TestEngineCacheDedupe(t *testing.T) {
	fetcher := &fakeFetcher{resp: &oneinch.QuoteResponse{DstAmount: "5000000"}}
	e := NewEngine(fetcher, time.Millisecond)
	e.SetTokens(usdt, busd)

	require.True(t, e.Input("10"))
	e.Flush()
	assert.Eventually(t, settled(e), time.Second, 5*time.Millisecond)
	require.Equal(t, 1, fetcher.callCount())

	// A different amount fetches again.
	require.True(t, e.Input("20"))
	e.Flush()
	assert.Eventually(t, func() bool { return fetcher.callCount() == 2 },
		time.Second, 5*time.Millisecond)
	assert.Eventually(t, settled(e), time.Second, 5*time.Millisecond)

	// Returning to a previously quoted amount serves from cache.
	require.True(t, e.Input("10"))
	e.Flush()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, fetcher.callCount(), "repeat tuple served from cache")
	assert.Equal(t, "5.000", e.Result().Amount)
}

func TestEngineDebounceCollapsesKeystrokes(t *testing.T) {
	fetcher := &fakeFetcher{resp: &oneinch.QuoteResponse{DstAmount: "5000000"}}
	e := NewEngine(fetcher, 30*time.Millisecond)
	e.SetTokens(usdt, busd)

	require.True(t, e.Input("1"))
	require.True(t, e.Input("10"))
	require.True(t, e.Input("100"))

	assert.Eventually(t, settled(e), time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, fetcher.callCount(), "intermediate keystrokes never fetch")
	assert.Equal(t, "100000000000000000000", fetcher.lastCall().Amount)
}

func TestEngineErrorSurfaced(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("Quote API Error: insufficient liquidity")}
	e := NewEngine(fetcher, time.Millisecond)
	e.SetTokens(usdt, busd)

	require.True(t, e.Input("10"))
	e.Flush()

	assert.Eventually(t, func() bool { return e.Result().Err != "" },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, "Quote API Error: insufficient liquidity", e.Result().Err)
	assert.Empty(t, e.Result().Amount)
}

func TestEngineTokenSwitchRecomputes(t *testing.T) {
	fetcher := &fakeFetcher{resp: &oneinch.QuoteResponse{DstAmount: "5000000"}}
	e := NewEngine(fetcher, time.Millisecond)
	e.SetTokens(usdt, busd)

	require.True(t, e.Input("10"))
	e.Flush()
	assert.Eventually(t, settled(e), time.Second, 5*time.Millisecond)
	require.Equal(t, 1, fetcher.callCount())

	// Switching the pair triggers a fresh fetch with the committed amount.
	cake := &tokens.Token{Symbol: "CAKE", Decimals: "18", Address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"}
	e.SetTokens(usdt, cake)
	assert.Eventually(t, func() bool { return fetcher.callCount() == 2 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, cake.Address, fetcher.lastCall().Dst)
}
