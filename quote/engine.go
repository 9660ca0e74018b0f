// Package quote produces a debounced destination-amount estimate for the
// selected pair and typed amount.
package quote

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/RaghavSood/swapdesk/oneinch"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/units"
)

// DebounceDelay is the quiet window between the last keystroke and the
// committed amount.
const DebounceDelay = 500 * time.Millisecond

// Fetcher fetches quotes from the aggregator. oneinch.Client satisfies it.
type Fetcher interface {
	GetQuote(ctx context.Context, params oneinch.QuoteParams) (*oneinch.QuoteResponse, error)
}

// Result is the current quote view. Recomputed from scratch on every input
// change that survives debouncing; never persisted.
type Result struct {
	Amount  string
	Loading bool
	Err     string
}

// quoteKey identifies one (src, dst, base-unit amount) request.
type quoteKey struct {
	src    string
	dst    string
	amount string
}

// Engine debounces input and resolves quotes through a keyed,
// process-lifetime cache. Stale in-flight results are discarded by key
// comparison before they can overwrite a result for newer input.
type Engine struct {
	fetcher  Fetcher
	debounce *Debouncer

	mu       sync.Mutex
	from     *tokens.Token
	to       *tokens.Token
	amount   string
	key      quoteKey
	hasKey   bool
	cache    map[quoteKey]string // dstAmount in base units
	result   Result
	onUpdate func(Result)
}

// NewEngine creates an engine committing input after delay.
func NewEngine(fetcher Fetcher, delay time.Duration) *Engine {
	e := &Engine{
		fetcher: fetcher,
		cache:   make(map[quoteKey]string),
	}
	e.debounce = NewDebouncer(delay, e.setAmount)
	return e
}

// OnUpdate registers a callback invoked after every result change.
func (e *Engine) OnUpdate(cb func(Result)) {
	e.mu.Lock()
	e.onUpdate = cb
	e.mu.Unlock()
}

// Input offers raw typed text to the debouncer. Rejected keystrokes return
// false and change nothing.
func (e *Engine) Input(text string) bool {
	return e.debounce.Input(text)
}

// Flush commits pending input immediately.
func (e *Engine) Flush() {
	e.debounce.Flush()
}

// Amount returns the committed amount.
func (e *Engine) Amount() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.amount
}

// SetTokens switches the pair and recomputes immediately.
func (e *Engine) SetTokens(from, to *tokens.Token) {
	e.mu.Lock()
	e.from = from
	e.to = to
	e.mu.Unlock()
	e.recompute()
}

// Result returns the current quote view.
func (e *Engine) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

func (e *Engine) setAmount(amount string) {
	e.mu.Lock()
	e.amount = amount
	e.mu.Unlock()
	e.recompute()
}

func (e *Engine) recompute() {
	e.mu.Lock()

	from, to, amount := e.from, e.to, e.amount

	// Validity gate: all inputs present and amount non-zero, or no request.
	if from == nil || to == nil || amount == "" || amount == "0" {
		e.hasKey = false
		e.setResultLocked(Result{})
		return
	}

	decimals, err := from.DecimalPlaces()
	if err != nil {
		e.hasKey = false
		e.setResultLocked(Result{})
		return
	}
	baseAmount, err := units.ParseUnits(amount, decimals)
	if err != nil {
		// Invalid conversion disables the request: not-yet-ready, not an error.
		e.hasKey = false
		e.setResultLocked(Result{})
		return
	}

	// Same-token short-circuit: output equals input verbatim, zero remote
	// calls.
	if strings.EqualFold(from.Address, to.Address) {
		e.hasKey = false
		e.setResultLocked(Result{Amount: amount})
		return
	}

	key := quoteKey{
		src:    strings.ToLower(from.Address),
		dst:    strings.ToLower(to.Address),
		amount: baseAmount.String(),
	}

	if cached, ok := e.cache[key]; ok {
		e.key = key
		e.hasKey = true
		e.setResultLocked(e.formatLocked(to, cached))
		return
	}

	if e.hasKey && key == e.key && e.result.Loading {
		e.mu.Unlock()
		return
	}

	e.key = key
	e.hasKey = true
	e.setResultLocked(Result{Loading: true})

	go e.fetch(key, from, to)
}

func (e *Engine) fetch(key quoteKey, from, to *tokens.Token) {
	resp, err := e.fetcher.GetQuote(context.Background(), oneinch.QuoteParams{
		Src:    from.Address,
		Dst:    to.Address,
		Amount: key.amount,
	})

	e.mu.Lock()

	// A result for superseded input must never overwrite a newer one.
	if !e.hasKey || key != e.key {
		e.mu.Unlock()
		return
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Failed to get quote"
		}
		e.setResultLocked(Result{Err: msg})
		return
	}

	e.cache[key] = resp.DstAmount
	e.setResultLocked(e.formatLocked(to, resp.DstAmount))
}

// formatLocked converts a base-unit destination amount into the tiered
// display string.
func (e *Engine) formatLocked(to *tokens.Token, dstAmount string) Result {
	decimals, err := to.DecimalPlaces()
	if err != nil {
		return Result{Err: "Failed to get quote"}
	}
	raw, ok := new(big.Int).SetString(dstAmount, 10)
	if !ok {
		return Result{Err: "Failed to get quote"}
	}
	return Result{Amount: units.FormatDisplay(raw, decimals)}
}

// setResultLocked stores the result, releases the lock, and notifies.
func (e *Engine) setResultLocked(r Result) {
	e.result = r
	cb := e.onUpdate
	e.mu.Unlock()
	if cb != nil {
		cb(r)
	}
}
