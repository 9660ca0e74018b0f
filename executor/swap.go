package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/oneinch"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/tracker"
	"github.com/RaghavSood/swapdesk/units"
	"github.com/RaghavSood/swapdesk/wallet"
)

// errorDisplayTTL is how long a classified error stays visible before
// self-clearing. A UX timing contract, not a retry mechanism.
const errorDisplayTTL = 2 * time.Second

// SwapClient fetches executable swap transactions. oneinch.Client satisfies it.
type SwapClient interface {
	GetSwapTransaction(ctx context.Context, params oneinch.SwapParams) (*oneinch.SwapResponse, error)
}

// prepKey identifies the full input tuple a prepared transaction belongs to.
// A payload whose key no longer matches the current inputs is never executed.
type prepKey struct {
	src    string
	dst    string
	amount string
	from   string
}

// Swap prepares swap transactions from the aggregator and submits them
// through the wallet.
type Swap struct {
	machine

	client  SwapClient
	watcher Watcher

	mu         sync.Mutex
	wlt        wallet.Wallet
	key        prepKey
	prepared   *oneinch.SwapResponse
	preparing  bool
	prepareErr bool
	fromSymbol string

	displayErr   string
	displayTimer *time.Timer
}

// NewSwap creates a swap executor.
func NewSwap(client SwapClient, wlt wallet.Wallet, watcher Watcher) *Swap {
	return &Swap{client: client, wlt: wlt, watcher: watcher}
}

// SetWallet swaps the signing wallet (nil when disconnected).
func (s *Swap) SetWallet(wlt wallet.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wlt = wlt
}

// Prepare fetches a fresh swap transaction for the given inputs. The fetch is
// keyed by (src, dst, amount, wallet address); changing any input invalidates
// the previous payload and resets the lifecycle. Incomplete inputs clear the
// prepared state without a remote call.
func (s *Swap) Prepare(ctx context.Context, from, to *tokens.Token, fromAmount string, slippage float64) {
	s.mu.Lock()
	wlt := s.wlt
	s.mu.Unlock()

	if from == nil || to == nil || fromAmount == "" || fromAmount == "0" || wlt == nil {
		s.clearPrepared()
		return
	}

	decimals, err := from.DecimalPlaces()
	if err != nil {
		s.clearPrepared()
		return
	}
	baseAmount, err := units.ParseUnits(fromAmount, decimals)
	if err != nil {
		// Unparseable amount means not-yet-ready, not an error.
		s.clearPrepared()
		return
	}

	key := prepKey{
		src:    strings.ToLower(from.Address),
		dst:    strings.ToLower(to.Address),
		amount: baseAmount.String(),
		from:   wlt.Address().Hex(),
	}

	s.mu.Lock()
	// Identical tuples never refetch, including after a failed fetch; the
	// user retries by changing input.
	if key == s.key && (s.prepared != nil || s.preparing || s.prepareErr) {
		s.mu.Unlock()
		return
	}
	s.key = key
	s.prepared = nil
	s.preparing = true
	s.prepareErr = false
	s.fromSymbol = from.Symbol
	s.mu.Unlock()

	// New inputs invalidate any previous completed or failed submission.
	s.reset()

	resp, err := s.client.GetSwapTransaction(ctx, oneinch.SwapParams{
		Src:      from.Address,
		Dst:      to.Address,
		Amount:   baseAmount.String(),
		From:     wlt.Address().Hex(),
		Slippage: slippage,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	// Discard out-of-date results: inputs moved on while we were fetching.
	if key != s.key {
		return
	}

	s.preparing = false
	if err != nil {
		s.prepareErr = true
		s.setDisplayErrorLocked(ClassifyError(err.Error(), s.fromSymbol))
		return
	}
	s.prepared = resp
}

// CanSwap reports whether a usable prepared transaction exists for the
// current inputs.
func (s *Swap) CanSwap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepared != nil && !s.preparing && !s.prepareErr
}

// Preparing reports whether a swap-transaction fetch is in flight.
func (s *Swap) Preparing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preparing
}

// Err returns the current displayed error, if any. Errors self-clear after a
// fixed delay.
func (s *Swap) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayErr
}

// Execute submits the prepared transaction verbatim. The aggregator's
// {to, data, value, gas, gasPrice} are never recomputed.
func (s *Swap) Execute(ctx context.Context) (common.Hash, error) {
	s.mu.Lock()
	prepared := s.prepared
	wlt := s.wlt
	symbol := s.fromSymbol
	usable := prepared != nil && !s.preparing && !s.prepareErr
	s.mu.Unlock()

	if !usable {
		err := errors.New("Swap data not available")
		s.setDisplayError(err.Error())
		return common.Hash{}, err
	}
	if wlt == nil {
		err := errors.New("wallet not connected")
		s.setDisplayError(err.Error())
		return common.Hash{}, err
	}

	req, err := txRequestFrom(prepared.Tx)
	if err != nil {
		s.setDisplayError(err.Error())
		return common.Hash{}, err
	}

	s.toSubmitting()

	hash, err := wlt.SendTransaction(ctx, req)
	if err != nil {
		s.fail(err.Error())
		s.setDisplayError(ClassifyError(err.Error(), symbol))
		return common.Hash{}, err
	}

	log.Info().Str("tx", hash.Hex()).Msg("swap submitted")
	s.toPending(hash)

	s.watcher.Watch(hash, fmt.Sprintf("swap %s", symbol), func(outcome tracker.Outcome) {
		if outcome == tracker.Confirmed {
			s.toConfirmed()
			return
		}
		s.fail(fmt.Sprintf("swap tx reverted: %s", hash.Hex()))
	})
	s.toConfirming()

	return hash, nil
}

func (s *Swap) clearPrepared() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = prepKey{}
	s.prepared = nil
	s.preparing = false
	s.prepareErr = false
}

func (s *Swap) setDisplayError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDisplayErrorLocked(msg)
}

func (s *Swap) setDisplayErrorLocked(msg string) {
	s.displayErr = msg
	if s.displayTimer != nil {
		s.displayTimer.Stop()
	}
	s.displayTimer = time.AfterFunc(errorDisplayTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.displayErr == msg {
			s.displayErr = ""
		}
	})
}

// txRequestFrom converts the aggregator's tx payload without touching its
// values.
func txRequestFrom(tx oneinch.SwapTx) (wallet.TxRequest, error) {
	value, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok {
		return wallet.TxRequest{}, fmt.Errorf("invalid tx value %q", tx.Value)
	}
	gasPrice, ok := new(big.Int).SetString(tx.GasPrice, 10)
	if !ok {
		return wallet.TxRequest{}, fmt.Errorf("invalid tx gasPrice %q", tx.GasPrice)
	}
	gas, err := strconv.ParseUint(tx.Gas, 10, 64)
	if err != nil {
		return wallet.TxRequest{}, fmt.Errorf("invalid tx gas %q", tx.Gas)
	}

	return wallet.TxRequest{
		To:       common.HexToAddress(tx.To),
		Data:     common.FromHex(tx.Data),
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
	}, nil
}

// ClassifyError maps raw aggregator/wallet error text to the message shown to
// the user. First match wins.
func ClassifyError(msg, symbol string) string {
	switch {
	case strings.Contains(msg, "Not enough allowance"):
		return fmt.Sprintf("Token approval required. Please approve %s first.", symbol)
	case strings.Contains(msg, "insufficient funds"):
		return "Insufficient balance for this swap"
	case strings.Contains(msg, "Not enough"):
		return "Not enough balance"
	case strings.Contains(msg, "User rejected"):
		return "Transaction rejected by user"
	case strings.Contains(msg, "Swap API Error"):
		return "Swap failed"
	case msg != "":
		return msg
	default:
		return "Failed to prepare swap"
	}
}
