package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"bloxstake-trading-api/internal/model"
)

// SQLiteInventoryRepository implements InventoryRepository using SQLite.
type SQLiteInventoryRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteInventoryRepository creates a new SQLite inventory repository.
func NewSQLiteInventoryRepository(db *sql.DB) *SQLiteInventoryRepository {
	return &SQLiteInventoryRepository{db: db}
}

// AddItem appends an item row to a user's inventory.
func (r *SQLiteInventoryRepository) AddItem(ctx context.Context, item model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	query := `
		INSERT INTO inventory (roblox_user_id, item_name, game_name, quantity, asset_id, holder)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		item.RobloxUserID, item.ItemName, item.GameName, item.Quantity, item.AssetID, item.Holder)
	if err != nil {
		return fmt.Errorf("failed to add inventory item: %w", err)
	}
	return nil
}

// List returns a user's inventory, newest first.
func (r *SQLiteInventoryRepository) List(ctx context.Context, robloxUserID int64) ([]model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, roblox_user_id, item_name, game_name, quantity, asset_id, holder, created_at
		FROM inventory WHERE roblox_user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, robloxUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ID, &it.RobloxUserID, &it.ItemName, &it.GameName,
			&it.Quantity, &it.AssetID, &it.Holder, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Remove drains up to quantity units of the named item, oldest rows first.
// A batched row holding more units than requested is decremented, not
// deleted, so unit accounting stays consistent with the stock check.
func (r *SQLiteInventoryRepository) Remove(ctx context.Context, robloxUserID int64, itemName string, quantity int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, quantity FROM inventory
		WHERE roblox_user_id = ? AND item_name = ?
		ORDER BY created_at ASC, id ASC`,
		robloxUserID, itemName)
	if err != nil {
		return 0, fmt.Errorf("failed to select inventory rows: %w", err)
	}

	type invRow struct {
		id  int64
		qty int
	}
	var drained []int64
	var decrement *invRow
	remaining := quantity
	for rows.Next() {
		var row invRow
		if err := rows.Scan(&row.id, &row.qty); err != nil {
			rows.Close()
			return 0, err
		}
		if remaining <= 0 {
			break
		}
		if row.qty <= remaining {
			drained = append(drained, row.id)
			remaining -= row.qty
		} else {
			decrement = &invRow{id: row.id, qty: row.qty - remaining}
			remaining = 0
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range drained {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to remove inventory row: %w", err)
		}
	}
	if decrement != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = ? WHERE id = ?`, decrement.qty, decrement.id); err != nil {
			return 0, fmt.Errorf("failed to decrement inventory row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit removal: %w", err)
	}
	return quantity - remaining, nil
}

// CountItems returns the total number of stored item rows.
func (r *SQLiteInventoryRepository) CountItems(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count inventory: %w", err)
	}
	return count, nil
}

// Ensure SQLiteInventoryRepository implements InventoryRepository
var _ InventoryRepository = (*SQLiteInventoryRepository)(nil)
