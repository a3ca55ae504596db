package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens the SQLite collection database and ensures the schema
// exists. The returned handle is shared by the catalog and collection
// repositories.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLite] Initialized with database: %s", dbPath)
	return db, nil
}

// createSQLiteTables creates the games catalog and collection tables.
func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		bgg_id TEXT UNIQUE
	);
	CREATE INDEX IF NOT EXISTS idx_games_bgg_id ON games(bgg_id);
	CREATE TABLE IF NOT EXISTS collection_items (
		user_id INTEGER NOT NULL,
		game_id INTEGER NOT NULL,
		owned INTEGER NOT NULL DEFAULT 0,
		prev_owned INTEGER NOT NULL DEFAULT 0,
		num_plays INTEGER NOT NULL DEFAULT 0,
		last_synced_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, game_id)
	);
	CREATE INDEX IF NOT EXISTS idx_collection_user ON collection_items(user_id);
	`
	_, err := db.Exec(query)
	return err
}
