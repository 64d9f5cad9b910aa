package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bloxstake-trading-api/internal/model"
)

// MySQLBindingRepository implements BindingRepository using MySQL, for
// deployments where bindings live in a hosted database instead of the local
// SQLite file. OpenMySQL provisions the same columns as the SQLite bindings
// table.
type MySQLBindingRepository struct {
	db *sql.DB
}

// NewMySQLBindingRepository creates a new MySQL binding repository.
func NewMySQLBindingRepository(db *sql.DB) *MySQLBindingRepository {
	return &MySQLBindingRepository{db: db}
}

func scanBindingRow(row *sql.Row) (*model.Binding, error) {
	var b model.Binding
	var verifiedAt sql.NullTime

	err := row.Scan(&b.ID, &b.DiscordID, &b.RobloxUserID, &b.RobloxUsername,
		&b.Code, &b.CodeIssuedAt, &verifiedAt, &b.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan binding: %w", err)
	}

	if verifiedAt.Valid {
		t := verifiedAt.Time
		b.VerifiedAt = &t
	}
	return &b, nil
}

// GetByDiscordID returns the binding for a Discord ID, or nil if none.
func (r *MySQLBindingRepository) GetByDiscordID(ctx context.Context, discordID string) (*model.Binding, error) {
	query := `SELECT ` + bindingColumns + ` FROM bindings WHERE discord_id = ?`
	return scanBindingRow(r.db.QueryRowContext(ctx, query, discordID))
}

// GetVerifiedByRobloxUser returns the verified binding holding a Roblox
// account, or nil if the account is unclaimed.
func (r *MySQLBindingRepository) GetVerifiedByRobloxUser(ctx context.Context, robloxUserID int64) (*model.Binding, error) {
	query := `SELECT ` + bindingColumns + ` FROM bindings WHERE roblox_user_id = ? AND status = ?`
	return scanBindingRow(r.db.QueryRowContext(ctx, query, robloxUserID, model.BindingVerified))
}

// UpsertPending creates or resets the binding row with a fresh code.
func (r *MySQLBindingRepository) UpsertPending(ctx context.Context, discordID string, robloxUserID int64, robloxUsername, code string, issuedAt time.Time) error {
	query := `
		INSERT INTO bindings (discord_id, roblox_user_id, roblox_username, verification_code, code_issued_at, verified_at, status)
		VALUES (?, ?, ?, ?, ?, NULL, ?)
		ON DUPLICATE KEY UPDATE
			roblox_user_id = VALUES(roblox_user_id),
			roblox_username = VALUES(roblox_username),
			verification_code = VALUES(verification_code),
			code_issued_at = VALUES(code_issued_at),
			verified_at = NULL,
			status = VALUES(status)`

	_, err := r.db.ExecContext(ctx, query, discordID, robloxUserID, robloxUsername, code, issuedAt, model.BindingPending)
	if err != nil {
		return fmt.Errorf("failed to upsert pending binding: %w", err)
	}
	return nil
}

// Verify flips the binding from pending to verified inside a transaction,
// using row locks for the conflict check.
func (r *MySQLBindingRepository) Verify(ctx context.Context, discordID string, verifiedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var robloxUserID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT roblox_user_id, status FROM bindings WHERE discord_id = ? FOR UPDATE`, discordID,
	).Scan(&robloxUserID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNoBinding
		}
		return fmt.Errorf("failed to load binding: %w", err)
	}
	if status != model.BindingPending {
		return ErrNotPending
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bindings WHERE roblox_user_id = ? AND status = ? AND discord_id != ? FOR UPDATE`,
		robloxUserID, model.BindingVerified, discordID,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check roblox account ownership: %w", err)
	}
	if taken > 0 {
		return ErrRobloxAccountTaken
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bindings SET status = ?, verified_at = ? WHERE discord_id = ? AND status = ?`,
		model.BindingVerified, verifiedAt, discordID, model.BindingPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark binding verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	return nil
}

// CountVerified returns the number of verified bindings.
func (r *MySQLBindingRepository) CountVerified(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bindings WHERE status = ?`, model.BindingVerified,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified bindings: %w", err)
	}
	return count, nil
}

// Ensure MySQLBindingRepository implements BindingRepository
var _ BindingRepository = (*MySQLBindingRepository)(nil)
