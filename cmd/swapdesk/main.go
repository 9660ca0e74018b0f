package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/apilog"
	"github.com/RaghavSood/swapdesk/config"
	"github.com/RaghavSood/swapdesk/db"
	"github.com/RaghavSood/swapdesk/notify"
	"github.com/RaghavSood/swapdesk/server"
	"github.com/RaghavSood/swapdesk/tracker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	rpc, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", cfg.RPCEndpoint).Msg("failed to connect RPC")
	}
	log.Info().Str("endpoint", cfg.RPCEndpoint).Msg("connected to RPC")

	trk := tracker.New(rpc, 5*time.Second)
	if cfg.TelegramToken != "" {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create telegram notifier")
		}
		trk.SetNotifier(notifier)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go trk.Run(ctx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		cancel()
		os.Exit(0)
	}()

	// The proxy's upstream traffic is recorded through the apilog transport.
	upstreamClient := apilog.NewHTTPClient("1inch", store)
	srv := server.New(cfg, store, upstreamClient)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("HTTP server error")
	}
}
