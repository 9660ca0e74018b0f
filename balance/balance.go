// Package balance reads wallet balances for catalog tokens.
package balance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RaghavSood/swapdesk/erc20"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/units"
)

// Source combines the contract-call and native-balance capabilities of an RPC
// client. ethclient.Client satisfies it.
type Source interface {
	erc20.Caller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Reading is a wallet's balance for one token.
type Reading struct {
	Raw       *big.Int
	Formatted string
}

// Fetch reads the account's balance of the given token: the native balance
// for native sentinels, balanceOf otherwise.
func Fetch(ctx context.Context, src Source, token *tokens.Token, account common.Address) (Reading, error) {
	if token == nil {
		return Reading{}, fmt.Errorf("no token selected")
	}
	decimals, err := token.DecimalPlaces()
	if err != nil {
		return Reading{}, fmt.Errorf("token %s: %w", token.Symbol, err)
	}

	var raw *big.Int
	if tokens.IsNative(token.Address) {
		raw, err = src.BalanceAt(ctx, account, nil)
	} else {
		raw, err = erc20.BalanceOf(ctx, src, common.HexToAddress(token.Address), account)
	}
	if err != nil {
		return Reading{}, fmt.Errorf("fetching %s balance: %w", token.Symbol, err)
	}

	return Reading{
		Raw:       raw,
		Formatted: units.FormatBalance(raw, decimals),
	}, nil
}
