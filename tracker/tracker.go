// Package tracker polls the chain for transaction receipts and drives
// confirmation callbacks for submitted approvals and swaps.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

// Outcome is the terminal result of a tracked transaction.
type Outcome int

const (
	Confirmed Outcome = iota
	Reverted
)

func (o Outcome) String() string {
	if o == Confirmed {
		return "confirmed"
	}
	return "reverted"
}

// ReceiptSource fetches transaction receipts, satisfied by ethclient.Client.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Notifier is told about terminal outcomes. Optional.
type Notifier interface {
	Notify(description string, txHash string, outcome string)
}

type watch struct {
	hash common.Hash
	desc string
	cb   func(Outcome)
}

// Tracker polls for receipts of registered hashes at a fixed interval.
type Tracker struct {
	rpc      ReceiptSource
	interval time.Duration
	notifier Notifier

	mu      sync.Mutex
	watches []watch
}

func New(rpc ReceiptSource, interval time.Duration) *Tracker {
	return &Tracker{rpc: rpc, interval: interval}
}

// SetNotifier attaches an optional notifier for terminal outcomes.
func (t *Tracker) SetNotifier(n Notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifier = n
}

// Watch registers a transaction hash. cb fires exactly once when the receipt
// lands, from the tracker's polling goroutine.
func (t *Tracker) Watch(hash common.Hash, desc string, cb func(Outcome)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watches = append(t.watches, watch{hash: hash, desc: desc, cb: cb})
}

// Run polls until ctx is cancelled. An immediate poll runs on start.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("tracker stopped")
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	t.mu.Lock()
	pending := make([]watch, len(t.watches))
	copy(pending, t.watches)
	notifier := t.notifier
	t.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	var remaining []watch
	for _, w := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		receipt, err := t.rpc.TransactionReceipt(ctx, w.hash)
		if err != nil {
			// Not mined yet (or transient RPC failure); keep waiting.
			remaining = append(remaining, w)
			continue
		}

		outcome := Confirmed
		if receipt.Status != types.ReceiptStatusSuccessful {
			outcome = Reverted
		}

		log.Info().
			Str("tx", w.hash.Hex()).
			Str("desc", w.desc).
			Str("outcome", outcome.String()).
			Msg("transaction finalized")

		w.cb(outcome)
		if notifier != nil {
			notifier.Notify(w.desc, w.hash.Hex(), outcome.String())
		}
	}

	t.mu.Lock()
	// Watch only appends and poll is the sole remover, so the snapshot is
	// still a prefix of t.watches: everything past it was registered while
	// polling and must survive this cycle.
	t.watches = append(remaining, t.watches[len(pending):]...)
	t.mu.Unlock()
}
