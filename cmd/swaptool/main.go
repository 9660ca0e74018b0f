// One-shot harness that drives a full swap lifecycle against a live chain:
// catalog fetch, quote, allowance check, approval if needed, then the swap.
// Usage: go run ./cmd/swaptool -config config.json -from 0x... -to 0x... -amount 10
package main

import (
	"context"
	"flag"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/allowance"
	"github.com/RaghavSood/swapdesk/balance"
	"github.com/RaghavSood/swapdesk/config"
	"github.com/RaghavSood/swapdesk/db"
	"github.com/RaghavSood/swapdesk/executor"
	"github.com/RaghavSood/swapdesk/intent"
	"github.com/RaghavSood/swapdesk/oneinch"
	"github.com/RaghavSood/swapdesk/quote"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/tracker"
	"github.com/RaghavSood/swapdesk/wallet"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	proxyURL := flag.String("proxy", "http://localhost:8080", "swapdesk proxy base URL")
	fromAddr := flag.String("from", "", "sell token address (0x0 for native)")
	toAddr := flag.String("to", "", "buy token address")
	amount := flag.String("amount", "", "sell amount in token units")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *fromAddr == "" || *toAddr == "" || *amount == "" {
		log.Fatal().Msg("-from, -to and -amount are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mnemonic == "" {
		log.Fatal().Msg("mnemonic is required to sign transactions")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rpc, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect RPC")
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	catalog, err := tokens.FetchCatalog(ctx, &http.Client{Timeout: 30 * time.Second}, cfg.TokenListURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch token catalog")
	}
	fromToken := resolveToken(catalog, *fromAddr)
	toToken := resolveToken(catalog, *toAddr)
	log.Info().Str("from", fromToken.Symbol).Str("to", toToken.Symbol).Str("amount", *amount).Msg("pair resolved")

	wlt, err := wallet.FromMnemonic(rpc, big.NewInt(cfg.ChainID), cfg.Mnemonic, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to derive wallet")
	}
	log.Info().Str("address", wlt.Address().Hex()).Msg("wallet ready")

	if reading, err := balance.Fetch(ctx, rpc, fromToken, wlt.Address()); err == nil {
		log.Info().Str("balance", reading.Formatted).Str("token", fromToken.Symbol).Msg("sell balance")
	}

	trk := tracker.New(rpc, 3*time.Second)
	go trk.Run(ctx)

	router := common.HexToAddress(cfg.RouterAddress)
	client := oneinch.NewClient(*proxyURL)
	engine := quote.NewEngine(client, quote.DebounceDelay)
	allow := allowance.NewTracker(allowance.RPCReader{RPC: rpc}, router)
	orch := intent.New(engine, allow, client, trk, router, cfg.Slippage)

	orch.Connect(ctx, wlt)
	orch.SelectTokens(ctx, fromToken, toToken)
	if !orch.Input(*amount) {
		log.Fatal().Str("amount", *amount).Msg("invalid amount")
	}
	orch.Flush()

	run(ctx, orch, store, fromToken, toToken, *amount, wlt.Address())
}

func resolveToken(catalog tokens.Catalog, address string) *tokens.Token {
	token, ok := catalog.Get(address)
	if !ok {
		log.Fatal().Str("address", address).Msg("token not in catalog")
	}
	return &token
}

// run walks the orchestrator until the swap completes or a machine fails.
func run(ctx context.Context, orch *intent.Orchestrator, store *db.Store,
	fromToken, toToken *tokens.Token, amount string, from common.Address) {

	var lastLabel string
	var swapHash string
	quoteShown := false

	for {
		select {
		case <-ctx.Done():
			log.Fatal().Msg("timed out waiting for swap to complete")
		default:
		}

		if q := orch.Quote(); !quoteShown && q.Amount != "" {
			log.Info().Str("amount", q.Amount).Str("token", toToken.Symbol).Msg("quote")
			quoteShown = true
		}

		action := orch.Action()
		if action.Label != lastLabel {
			log.Info().Str("action", action.Label).Msg("state")
			lastLabel = action.Label
		}

		if action.Label == "Swap completed!" {
			if swapHash != "" {
				store.UpdateSwapStatus(ctx, swapHash, "confirmed")
			}
			log.Info().Str("tx", swapHash).Msg("swap confirmed")
			return
		}
		checkFailure(ctx, orch, store, swapHash)

		if action.Enabled && action.Kind != intent.KindNone {
			if _, err := orch.Act(ctx); err != nil {
				log.Fatal().Err(err).Msg("action failed")
			}

			if action.Kind == intent.KindSwap {
				swapHash = orch.SwapExecutor().Snapshot().TxHash
				if _, err := store.InsertSwap(ctx, db.InsertSwapParams{
					TxHash:      swapHash,
					FromToken:   fromToken.Symbol,
					ToToken:     toToken.Symbol,
					FromAmount:  amount,
					DstAmount:   orch.Quote().Amount,
					FromAddress: from.Hex(),
				}); err != nil {
					log.Warn().Err(err).Msg("failed to record swap")
				}
				log.Info().Str("tx", swapHash).Msg("swap submitted")
			}
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func checkFailure(ctx context.Context, orch *intent.Orchestrator, store *db.Store, swapHash string) {
	if snap := orch.Approval().Snapshot(); snap.State == executor.StateFailed {
		log.Fatal().Str("reason", snap.Err).Msg("approval failed")
	}
	if snap := orch.SwapExecutor().Snapshot(); snap.State == executor.StateFailed {
		if swapHash != "" {
			store.UpdateSwapStatus(ctx, swapHash, "reverted")
		}
		log.Fatal().Str("reason", snap.Err).Msg("swap failed")
	}
	if msg := orch.SwapExecutor().Err(); msg != "" {
		log.Warn().Str("error", msg).Msg("swap error")
	}
}
