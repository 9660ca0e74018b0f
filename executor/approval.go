package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/erc20"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/tracker"
	"github.com/RaghavSood/swapdesk/units"
	"github.com/RaghavSood/swapdesk/wallet"
)

var (
	// ErrNoToken is returned when no sell token is selected.
	ErrNoToken = errors.New("Token not selected")
	// ErrNativeToken is returned when approving a native asset, which has no
	// allowance concept.
	ErrNativeToken = errors.New("Native token does not require approval")
	// ErrAmountRequired is returned for a non-max approval without an amount.
	ErrAmountRequired = errors.New("Amount is required when not using max approval")
)

// Approval submits ERC-20 approve transactions to the aggregator router and
// tracks them to confirmation.
type Approval struct {
	machine

	wlt     wallet.Wallet
	spender common.Address
	watcher Watcher

	// onConfirmed runs once per confirmed approval; the orchestrator uses it
	// to refetch the allowance.
	onConfirmed func()

	tokenMu sync.Mutex
	token   *tokens.Token
}

// NewApproval creates an approval executor for the given spender.
func NewApproval(wlt wallet.Wallet, spender common.Address, watcher Watcher, onConfirmed func()) *Approval {
	return &Approval{
		wlt:         wlt,
		spender:     spender,
		watcher:     watcher,
		onConfirmed: onConfirmed,
	}
}

// SetWallet swaps the signing wallet (nil when disconnected).
func (a *Approval) SetWallet(wlt wallet.Wallet) {
	a.tokenMu.Lock()
	defer a.tokenMu.Unlock()
	a.wlt = wlt
}

// SetToken switches the token being approved and resets the lifecycle so a
// previous confirmation cannot leak into the new selection.
func (a *Approval) SetToken(token *tokens.Token) {
	a.tokenMu.Lock()
	a.token = token
	a.tokenMu.Unlock()
	a.reset()
}

// Approve submits an approval for the current token. With useMax it approves
// the maximum uint256 so subsequent swaps skip approval; otherwise amount is
// converted to base units. Precondition violations fail fast without
// submitting anything.
func (a *Approval) Approve(ctx context.Context, amount string, useMax bool) error {
	a.tokenMu.Lock()
	token := a.token
	wlt := a.wlt
	a.tokenMu.Unlock()

	if token == nil {
		a.setError(ErrNoToken.Error())
		return ErrNoToken
	}
	if tokens.IsNative(token.Address) {
		a.setError(ErrNativeToken.Error())
		return ErrNativeToken
	}
	if wlt == nil {
		err := errors.New("wallet not connected")
		a.setError(err.Error())
		return err
	}

	var approvalAmount *big.Int
	if useMax {
		approvalAmount = erc20.MaxApproval
	} else {
		if amount == "" {
			a.setError(ErrAmountRequired.Error())
			return ErrAmountRequired
		}
		decimals, err := token.DecimalPlaces()
		if err != nil {
			a.setError(err.Error())
			return err
		}
		approvalAmount, err = units.ParseUnits(amount, decimals)
		if err != nil {
			a.setError(err.Error())
			return err
		}
	}

	data, err := erc20.ApproveCalldata(a.spender, approvalAmount)
	if err != nil {
		a.setError(err.Error())
		return err
	}

	a.toSubmitting()

	hash, err := wlt.SendTransaction(ctx, wallet.TxRequest{
		To:   common.HexToAddress(token.Address),
		Data: data,
	})
	if err != nil {
		// Wallet errors (including user rejection) are captured verbatim;
		// the user may retry.
		a.fail(err.Error())
		return err
	}

	log.Info().Str("tx", hash.Hex()).Str("token", token.Symbol).Msg("approval submitted")
	a.toPending(hash)

	a.watcher.Watch(hash, fmt.Sprintf("approve %s", token.Symbol), func(outcome tracker.Outcome) {
		if outcome == tracker.Confirmed {
			a.toConfirmed()
			if a.onConfirmed != nil {
				a.onConfirmed()
			}
			return
		}
		a.fail(fmt.Sprintf("approval tx reverted: %s", hash.Hex()))
	})
	a.toConfirming()

	return nil
}
