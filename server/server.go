// Package server is the credential-injecting proxy in front of the upstream
// aggregator, plus the swap-history API.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/config"
	"github.com/RaghavSood/swapdesk/db"
)

type Server struct {
	cfg    *config.Config
	store  *db.Store
	client *http.Client
}

// New creates a server. client carries the upstream HTTP transport (the
// apilog-wrapped client in production); nil falls back to a plain client.
func New(cfg *config.Config, store *db.Store, client *http.Client) *Server {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Server{
		cfg:    cfg,
		store:  store,
		client: client,
	}
}

// Router assembles the HTTP routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(120, 1*time.Minute))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Content-Type", "Authorization"},
		OptionsSuccessStatus: http.StatusOK,
	}).Handler)

	r.Get("/api/quote", s.handleQuote)
	r.Get("/api/swap", s.handleSwap)
	r.Get("/api/tokens", s.handleTokens)
	r.Get("/api/swaps", s.handleSwaps)

	return r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Info().Str("addr", addr).Msg("HTTP server listening")
	return http.ListenAndServe(addr, s.Router())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
