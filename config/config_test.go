package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"rpc_endpoint": "https://bsc-dataseed.binance.org",
		"oneinch_base_url": "https://api.1inch.dev/swap/v6.0/56",
		"oneinch_api_key": "test-key",
		"database_path": "swapdesk.db"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(56), cfg.ChainID)
	assert.Equal(t, DefaultRouter, cfg.RouterAddress)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, float64(1), cfg.Slippage)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no rpc endpoint", `{"oneinch_base_url": "u", "oneinch_api_key": "k", "database_path": "d"}`},
		{"no base url", `{"rpc_endpoint": "r", "oneinch_api_key": "k", "database_path": "d"}`},
		{"no api key", `{"rpc_endpoint": "r", "oneinch_base_url": "u", "database_path": "d"}`},
		{"no database path", `{"rpc_endpoint": "r", "oneinch_base_url": "u", "oneinch_api_key": "k"}`},
		{"telegram token without chat", `{"rpc_endpoint": "r", "oneinch_base_url": "u", "oneinch_api_key": "k", "database_path": "d", "telegram_token": "t"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
