// Package allowance tracks the on-chain spender allowance for the active
// wallet and sell token.
package allowance

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RaghavSood/swapdesk/erc20"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/units"
)

// Reader reads allowance(owner, spender) for a token contract.
type Reader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// RPCReader reads allowances through an RPC contract caller.
type RPCReader struct {
	RPC erc20.Caller
}

func (r RPCReader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return erc20.Allowance(ctx, r.RPC, token, owner, spender)
}

// Tracker holds the allowance state for one (token, owner, spender) triple.
// The spender is fixed (the aggregator router); token and owner follow the
// user's selection and wallet connection.
type Tracker struct {
	reader  Reader
	spender common.Address

	mu       sync.Mutex
	token    *tokens.Token
	owner    common.Address
	hasOwner bool
	raw      *big.Int
	loading  bool
	err      error
}

func NewTracker(reader Reader, spender common.Address) *Tracker {
	return &Tracker{reader: reader, spender: spender}
}

// SetToken switches the tracked token and clears any previous reading.
func (t *Tracker) SetToken(token *tokens.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.raw = nil
	t.err = nil
}

// SetOwner switches the tracked owner and clears any previous reading.
func (t *Tracker) SetOwner(owner common.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner = owner
	t.hasOwner = true
	t.raw = nil
	t.err = nil
}

// ClearOwner marks the wallet as disconnected.
func (t *Tracker) ClearOwner() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasOwner = false
	t.raw = nil
	t.err = nil
}

// Refetch re-reads the allowance from chain. Native tokens and incomplete
// state (no token, no owner) skip the read and leave the raw value empty.
// The orchestrator calls this after every confirmed approval; it is never
// called speculatively.
func (t *Tracker) Refetch(ctx context.Context) error {
	t.mu.Lock()
	token := t.token
	owner := t.owner
	hasOwner := t.hasOwner
	if token == nil || !hasOwner || tokens.IsNative(token.Address) {
		t.raw = nil
		t.err = nil
		t.mu.Unlock()
		return nil
	}
	t.loading = true
	t.mu.Unlock()

	raw, err := t.reader.Allowance(ctx, common.HexToAddress(token.Address), owner, t.spender)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false

	// A stale result for a different token or owner must not land.
	if t.token != token || t.owner != owner || !t.hasOwner {
		return nil
	}

	if err != nil {
		t.err = err
		return err
	}
	t.raw = raw
	t.err = nil
	return nil
}

// Loading reports whether a refetch is in flight.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Raw returns the last fetched allowance in base units, or nil when unknown.
func (t *Tracker) Raw() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// Formatted returns the allowance as a decimal string, "0" when unknown.
func (t *Tracker) Formatted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.formattedLocked()
}

func (t *Tracker) formattedLocked() string {
	if t.token == nil || t.raw == nil {
		return "0"
	}
	decimals, err := t.token.DecimalPlaces()
	if err != nil {
		return "0"
	}
	return units.FormatUnits(t.raw, decimals)
}

// HasEnough reports whether the current allowance covers the required decimal
// amount. Native assets always satisfy any amount. Non-native comparison uses
// the decimal-formatted values as floats; the chain enforces the exact value
// at execution time.
func (t *Tracker) HasEnough(requiredAmount string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == nil || requiredAmount == "" {
		return false
	}
	if tokens.IsNative(t.token.Address) {
		return true
	}
	if t.raw == nil {
		return false
	}

	required, err := strconv.ParseFloat(requiredAmount, 64)
	if err != nil {
		return false
	}
	current, err := strconv.ParseFloat(t.formattedLocked(), 64)
	if err != nil {
		return false
	}
	return current >= required
}
