package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSwapLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.InsertSwap(ctx, InsertSwapParams{
		TxHash:      "0xabc",
		FromToken:   "USDT",
		ToToken:     "BUSD",
		FromAmount:  "10",
		DstAmount:   "5000000",
		FromAddress: "0xaa",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	swaps, err := store.ListRecentSwaps(ctx, 10)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, "pending", swaps[0].Status)
	assert.Equal(t, "0xabc", swaps[0].TxHash)

	require.NoError(t, store.UpdateSwapStatus(ctx, "0xabc", "confirmed"))
	swaps, err = store.ListRecentSwaps(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", swaps[0].Status)
}

func TestListRecentSwapsOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, hash := range []string{"0x01", "0x02", "0x03"} {
		_, err := store.InsertSwap(ctx, InsertSwapParams{
			TxHash: hash, FromToken: "A", ToToken: "B",
			FromAmount: "1", FromAddress: "0xaa",
		})
		require.NoError(t, err)
	}

	swaps, err := store.ListRecentSwaps(ctx, 2)
	require.NoError(t, err)
	require.Len(t, swaps, 2)
	assert.Equal(t, "0x03", swaps[0].TxHash, "newest first")
	assert.Equal(t, "0x02", swaps[1].TxHash)
}

func TestInsertSwapDuplicateHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	params := InsertSwapParams{TxHash: "0xdup", FromToken: "A", ToToken: "B", FromAmount: "1", FromAddress: "0xaa"}
	_, err := store.InsertSwap(ctx, params)
	require.NoError(t, err)
	_, err = store.InsertSwap(ctx, params)
	assert.Error(t, err)
}

func TestInsertAPIRequest(t *testing.T) {
	store := openTestStore(t)

	err := store.InsertAPIRequest(context.Background(), InsertAPIRequestParams{
		Provider:       "1inch",
		Method:         "GET",
		Url:            "https://api.1inch.dev/swap/v6.0/56/quote",
		ResponseStatus: sql.NullInt64{Int64: 200, Valid: true},
		DurationMs:     sql.NullInt64{Int64: 42, Valid: true},
	})
	assert.NoError(t, err)
}
