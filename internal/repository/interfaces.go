package repository

import (
	"context"
	"errors"
	"time"

	"bloxstake-trading-api/internal/model"
)

// Sentinel errors surfaced by repositories. Services translate these to the
// user-facing error taxonomy.
var (
	// ErrNoBinding indicates no binding row exists for the Discord ID.
	ErrNoBinding = errors.New("no binding for discord id")

	// ErrNotPending indicates the pending->verified transition found the
	// binding in a different state (already verified, or code re-issued
	// concurrently).
	ErrNotPending = errors.New("binding is not pending")

	// ErrRobloxAccountTaken indicates the Roblox account is already verified
	// under a different Discord identity.
	ErrRobloxAccountTaken = errors.New("roblox account already verified by another discord user")
)

// BindingRepository stores Discord<->Roblox identity bindings.
type BindingRepository interface {
	// GetByDiscordID returns the binding for a Discord ID, or nil if none.
	GetByDiscordID(ctx context.Context, discordID string) (*model.Binding, error)

	// GetVerifiedByRobloxUser returns the verified binding holding a Roblox
	// account, or nil if the account is unclaimed.
	GetVerifiedByRobloxUser(ctx context.Context, robloxUserID int64) (*model.Binding, error)

	// UpsertPending creates or resets the binding row for a Discord ID with a
	// fresh code, invalidating any previously issued code. One row per
	// Discord ID; rows are reused, never deleted.
	UpsertPending(ctx context.Context, discordID string, robloxUserID int64, robloxUsername, code string, issuedAt time.Time) error

	// Verify atomically flips the binding from pending to verified, enforcing
	// at most one verified binding per Roblox account. Returns ErrNoBinding,
	// ErrNotPending or ErrRobloxAccountTaken on invariant failure.
	Verify(ctx context.Context, discordID string, verifiedAt time.Time) error

	// CountVerified returns the number of verified bindings.
	CountVerified(ctx context.Context) (int64, error)
}

// ProfileRepository caches Roblox profile snapshots.
type ProfileRepository interface {
	// Upsert stores or refreshes a profile snapshot.
	Upsert(ctx context.Context, p *model.Profile) error

	// Get returns the cached snapshot for a user, or nil if none.
	Get(ctx context.Context, robloxUserID int64) (*model.Profile, error)

	// GetByUsername returns the cached snapshot matching a username
	// (case-insensitive), or nil if none.
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)

	// DeleteStale removes snapshots not refreshed within the threshold and
	// returns how many were removed.
	DeleteStale(ctx context.Context, threshold time.Duration) (int64, error)
}

// InventoryRepository stores withdrawable items per Roblox user.
type InventoryRepository interface {
	// AddItem appends an item row to a user's inventory.
	AddItem(ctx context.Context, item model.InventoryItem) error

	// List returns a user's inventory, newest first.
	List(ctx context.Context, robloxUserID int64) ([]model.InventoryItem, error)

	// Remove drains up to quantity units of the named item, oldest rows
	// first, decrementing batched rows and deleting rows that reach zero.
	// Returns how many units were actually removed.
	Remove(ctx context.Context, robloxUserID int64, itemName string, quantity int) (int, error)

	// CountItems returns the total number of stored item rows.
	CountItems(ctx context.Context) (int64, error)
}

// TradeRepository records deposit/withdraw history.
type TradeRepository interface {
	// Record appends a trade history row and returns its ID.
	Record(ctx context.Context, robloxUserID int64, tradeType string, items []model.TradeItem) (int64, error)

	// Complete marks a trade as completed.
	Complete(ctx context.Context, tradeID int64) error

	// CountByType returns the number of trades of the given type.
	CountByType(ctx context.Context, tradeType string) (int64, error)
}
