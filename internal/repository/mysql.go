package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// OpenMySQL opens a MySQL connection pool and ensures the schema exists.
// Used when bindings and inventory must be shared by multiple instances.
func OpenMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQL] Initialized connection pool")
	return db, nil
}

func createMySQLTables(db *sql.DB) error {
	// MySQL rejects multi-statement Exec by default, so one DDL per call.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bindings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			discord_id VARCHAR(32) NOT NULL,
			roblox_user_id BIGINT NOT NULL,
			roblox_username VARCHAR(64) NOT NULL,
			verification_code VARCHAR(128) NOT NULL,
			code_issued_at DATETIME NOT NULL,
			verified_at DATETIME NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			UNIQUE KEY uniq_discord (discord_id),
			KEY idx_bindings_roblox (roblox_user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			roblox_user_id BIGINT NOT NULL,
			item_name VARCHAR(128) NOT NULL,
			game_name VARCHAR(64) NOT NULL DEFAULT '',
			quantity INT NOT NULL DEFAULT 1,
			asset_id VARCHAR(64) NOT NULL DEFAULT '',
			holder VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_inventory_user (roblox_user_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
