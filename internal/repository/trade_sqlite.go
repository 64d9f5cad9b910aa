package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"bloxstake-trading-api/internal/model"
)

// SQLiteTradeRepository implements TradeRepository using SQLite.
type SQLiteTradeRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteTradeRepository creates a new SQLite trade history repository.
func NewSQLiteTradeRepository(db *sql.DB) *SQLiteTradeRepository {
	return &SQLiteTradeRepository{db: db}
}

// Record appends a trade history row and returns its ID.
func (r *SQLiteTradeRepository) Record(ctx context.Context, robloxUserID int64, tradeType string, items []model.TradeItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("failed to encode trade items: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trade_history (roblox_user_id, trade_type, items, status) VALUES (?, ?, ?, ?)`,
		robloxUserID, tradeType, string(itemsJSON), model.TradePending)
	if err != nil {
		return 0, fmt.Errorf("failed to record trade: %w", err)
	}
	return res.LastInsertId()
}

// Complete marks a trade as completed.
func (r *SQLiteTradeRepository) Complete(ctx context.Context, tradeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`UPDATE trade_history SET status = ?, completed_at = ? WHERE id = ?`,
		model.TradeCompleted, time.Now().UTC(), tradeID)
	if err != nil {
		return fmt.Errorf("failed to complete trade: %w", err)
	}
	return nil
}

// CountByType returns the number of trades of the given type.
func (r *SQLiteTradeRepository) CountByType(ctx context.Context, tradeType string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trade_history WHERE trade_type = ?`, tradeType).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// Ensure SQLiteTradeRepository implements TradeRepository
var _ TradeRepository = (*SQLiteTradeRepository)(nil)
