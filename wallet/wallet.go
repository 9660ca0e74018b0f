// Package wallet supplies the signing capability the swap executors depend
// on. Keys are derived from a BIP-39 mnemonic at m/44'/60'/0'/0/{index}.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// TxRequest describes a transaction to sign and broadcast. Zero Gas or nil
// GasPrice means fill from the node.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}

// Wallet is the opaque signing capability consumed by the executors.
type Wallet interface {
	Address() common.Address
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// DeriveKey derives an ECDSA private key from a mnemonic at the given account
// index.
func DeriveKey(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	// m/44'/60'/0'/0/{index}
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	for _, step := range path {
		key, err = key.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("deriving child %d: %w", step, err)
		}
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("converting to ECDSA: %w", err)
	}

	return privateKey, nil
}

// KeyWallet signs with a locally held private key and broadcasts via an RPC
// client.
type KeyWallet struct {
	rpc     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyWallet creates a wallet around an already-derived key.
func NewKeyWallet(rpc *ethclient.Client, chainID *big.Int, key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{
		rpc:     rpc,
		chainID: chainID,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// FromMnemonic derives the key at the given index and wraps it in a KeyWallet.
func FromMnemonic(rpc *ethclient.Client, chainID *big.Int, mnemonic string, index uint32) (*KeyWallet, error) {
	key, err := DeriveKey(mnemonic, index)
	if err != nil {
		return nil, err
	}
	return NewKeyWallet(rpc, chainID, key), nil
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

// SendTransaction fills nonce and any missing gas fields, signs with EIP-155,
// and broadcasts. The returned hash is visible before confirmation.
func (w *KeyWallet) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	nonce, err := w.rpc.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice := req.GasPrice
	if gasPrice == nil {
		gasPrice, err = w.rpc.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
		}
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gas := req.Gas
	if gas == 0 {
		gas, err = w.rpc.EstimateGas(ctx, ethereum.CallMsg{
			From:  w.address,
			To:    &req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
		}
	}

	tx := types.NewTransaction(nonce, req.To, value, gas, gasPrice, req.Data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(w.chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing tx: %w", err)
	}

	if err := w.rpc.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("sending tx: %w", err)
	}

	return signedTx.Hash(), nil
}
