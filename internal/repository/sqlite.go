package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens (or creates) the SQLite database at dbPath with WAL mode
// and ensures the schema exists. All SQLite repositories share the returned
// handle.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLite] Initialized with database: %s", dbPath)
	return db, nil
}

func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		roblox_user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		fetched_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS bindings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		discord_id TEXT NOT NULL UNIQUE,
		roblox_user_id INTEGER NOT NULL,
		roblox_username TEXT NOT NULL,
		verification_code TEXT NOT NULL,
		code_issued_at DATETIME NOT NULL,
		verified_at DATETIME,
		status TEXT NOT NULL DEFAULT 'pending'
	);
	CREATE INDEX IF NOT EXISTS idx_bindings_roblox ON bindings(roblox_user_id);

	CREATE TABLE IF NOT EXISTS inventory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		roblox_user_id INTEGER NOT NULL,
		item_name TEXT NOT NULL,
		game_name TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 1,
		asset_id TEXT NOT NULL DEFAULT '',
		holder TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory(roblox_user_id);

	CREATE TABLE IF NOT EXISTS trade_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		roblox_user_id INTEGER NOT NULL,
		trade_type TEXT NOT NULL,
		items TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_trades_user ON trade_history(roblox_user_id);
	`
	_, err := db.Exec(query)
	return err
}
