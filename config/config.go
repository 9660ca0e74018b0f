package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultRouter is the 1inch v6 aggregation router, the spender granted
// token approvals.
const DefaultRouter = "0x111111125421cA6dc452d289314280a0f8842A65"

type Config struct {
	// Ethereum-compatible JSON-RPC endpoint
	RPCEndpoint string `json:"rpc_endpoint"`

	// Chain ID for EIP-155 signing (default 56, BSC)
	ChainID int64 `json:"chain_id"`

	// Aggregation router granted approvals (default 1inch v6)
	RouterAddress string `json:"router_address"`

	// Upstream aggregator API base URL, e.g. https://api.1inch.dev/swap/v6.0/56
	OneinchBaseURL string `json:"oneinch_base_url"`

	// Bearer token injected by the proxy; never reaches clients
	OneinchAPIKey string `json:"oneinch_api_key"`

	// Token catalog URL returning address -> token metadata
	TokenListURL string `json:"token_list_url"`

	// HTTP server port (default 8080)
	Port int `json:"port"`

	// Path to SQLite database for swap history and API logs
	DatabasePath string `json:"database_path"`

	// Swap slippage tolerance in percent (default 1)
	Slippage float64 `json:"slippage"`

	// BIP39 mnemonic for wallet derivation (CLI only; the server never signs)
	Mnemonic string `json:"mnemonic"`

	// Optional Telegram notifications for confirmed/reverted transactions
	TelegramToken  string `json:"telegram_token"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.OneinchBaseURL == "" {
		return fmt.Errorf("oneinch_base_url is required")
	}
	if c.OneinchAPIKey == "" {
		return fmt.Errorf("oneinch_api_key is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("telegram_chat_id is required when telegram_token is set")
	}
	if c.ChainID == 0 {
		c.ChainID = 56
	}
	if c.RouterAddress == "" {
		c.RouterAddress = DefaultRouter
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Slippage == 0 {
		c.Slippage = 1
	}
	return nil
}
