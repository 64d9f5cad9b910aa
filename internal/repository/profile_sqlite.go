package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"bloxstake-trading-api/internal/model"
)

// SQLiteProfileRepository implements ProfileRepository using SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteProfileRepository creates a new SQLite profile repository.
func NewSQLiteProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

// Upsert stores or refreshes a profile snapshot.
func (r *SQLiteProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO profiles (roblox_user_id, username, description, thumbnail_url, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(roblox_user_id) DO UPDATE SET
			username = excluded.username,
			description = excluded.description,
			thumbnail_url = CASE WHEN excluded.thumbnail_url != '' THEN excluded.thumbnail_url ELSE thumbnail_url END,
			fetched_at = excluded.fetched_at`

	_, err := r.db.ExecContext(ctx, query, p.RobloxUserID, p.Username, p.Description, p.ThumbnailURL, p.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns the cached snapshot for a user, or nil if none.
func (r *SQLiteProfileRepository) Get(ctx context.Context, robloxUserID int64) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT roblox_user_id, username, description, thumbnail_url, fetched_at
		FROM profiles WHERE roblox_user_id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, robloxUserID))
}

// GetByUsername returns the cached snapshot matching a username, or nil.
func (r *SQLiteProfileRepository) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT roblox_user_id, username, description, thumbnail_url, fetched_at
		FROM profiles WHERE LOWER(username) = LOWER(?)`
	return r.scan(r.db.QueryRowContext(ctx, query, username))
}

// DeleteStale removes snapshots older than the threshold.
func (r *SQLiteProfileRepository) DeleteStale(ctx context.Context, threshold time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-threshold)

	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale profiles: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[SQLite] Cleaned up %d stale profile snapshots (threshold: %v)", deleted, threshold)
	}
	return deleted, nil
}

func (r *SQLiteProfileRepository) scan(row *sql.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.RobloxUserID, &p.Username, &p.Description, &p.ThumbnailURL, &p.FetchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

// Ensure SQLiteProfileRepository implements ProfileRepository
var _ ProfileRepository = (*SQLiteProfileRepository)(nil)
