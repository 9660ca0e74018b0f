// Package db persists executed swaps and upstream API traffic in SQLite.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Swap is one submitted swap transaction. Client-side intent state is never
// persisted; only transactions that reached the chain land here.
type Swap struct {
	ID          int64     `json:"id"`
	TxHash      string    `json:"tx_hash"`
	FromToken   string    `json:"from_token"`
	ToToken     string    `json:"to_token"`
	FromAmount  string    `json:"from_amount"`
	DstAmount   string    `json:"dst_amount"`
	FromAddress string    `json:"from_address"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type InsertSwapParams struct {
	TxHash      string
	FromToken   string
	ToToken     string
	FromAmount  string
	DstAmount   string
	FromAddress string
}

type InsertAPIRequestParams struct {
	Provider        string
	Method          string
	Url             string
	RequestHeaders  sql.NullString
	RequestBody     sql.NullString
	ResponseStatus  sql.NullInt64
	ResponseHeaders sql.NullString
	ResponseBody    sql.NullString
	Error           sql.NullString
	DurationMs      sql.NullInt64
}

type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// InsertSwap records a newly submitted swap with status "pending".
func (s *Store) InsertSwap(ctx context.Context, arg InsertSwapParams) (int64, error) {
	result, err := s.conn.ExecContext(ctx, `
		INSERT INTO swaps (tx_hash, from_token, to_token, from_amount, dst_amount, from_address, status)
		VALUES (?, ?, ?, ?, ?, ?, 'pending')`,
		arg.TxHash, arg.FromToken, arg.ToToken, arg.FromAmount, arg.DstAmount, arg.FromAddress,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting swap: %w", err)
	}
	return result.LastInsertId()
}

// UpdateSwapStatus moves a swap to its terminal status ("confirmed" or
// "reverted").
func (s *Store) UpdateSwapStatus(ctx context.Context, txHash, status string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE swaps SET status = ? WHERE tx_hash = ?", status, txHash)
	if err != nil {
		return fmt.Errorf("updating swap status: %w", err)
	}
	return nil
}

func (s *Store) ListRecentSwaps(ctx context.Context, limit int64) ([]Swap, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, tx_hash, from_token, to_token, from_amount, dst_amount, from_address, status, created_at
		FROM swaps ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing swaps: %w", err)
	}
	defer rows.Close()

	var swaps []Swap
	for rows.Next() {
		var sw Swap
		if err := rows.Scan(&sw.ID, &sw.TxHash, &sw.FromToken, &sw.ToToken,
			&sw.FromAmount, &sw.DstAmount, &sw.FromAddress, &sw.Status, &sw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning swap: %w", err)
		}
		swaps = append(swaps, sw)
	}
	return swaps, rows.Err()
}

func (s *Store) InsertAPIRequest(ctx context.Context, arg InsertAPIRequestParams) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO api_requests (provider, method, url, request_headers, request_body,
			response_status, response_headers, response_body, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Provider, arg.Method, arg.Url, arg.RequestHeaders, arg.RequestBody,
		arg.ResponseStatus, arg.ResponseHeaders, arg.ResponseBody, arg.Error, arg.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("inserting api request: %w", err)
	}
	return nil
}
