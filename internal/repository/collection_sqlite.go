package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"meeplehub-api/internal/model"
)

// SQLiteCollectionRepository implements CollectionRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteCollectionRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCollectionRepository creates a collection repository over an
// already opened SQLite handle (see OpenSQLite).
func NewSQLiteCollectionRepository(db *sql.DB) *SQLiteCollectionRepository {
	return &SQLiteCollectionRepository{db: db}
}

// UpsertItem inserts or updates a collection row keyed by (user_id, game_id).
// Existence is checked first so callers learn whether the row was created;
// the per-user sync lock guarantees no concurrent writer for the same key.
func (r *SQLiteCollectionRepository) UpsertItem(ctx context.Context, item model.CollectionItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM collection_items WHERE user_id = ? AND game_id = ?`,
		item.UserID, item.GameID,
	).Scan(&exists)

	switch {
	case err == sql.ErrNoRows:
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO collection_items (user_id, game_id, owned, prev_owned, num_plays, last_synced_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.UserID, item.GameID, item.Owned, item.PrevOwned, item.NumPlays, item.LastSyncedAt)
		if err != nil {
			return false, fmt.Errorf("failed to insert collection item: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to check collection item: %w", err)
	default:
		_, err = r.db.ExecContext(ctx, `
			UPDATE collection_items
			SET owned = ?, prev_owned = ?, num_plays = ?, last_synced_at = ?
			WHERE user_id = ? AND game_id = ?`,
			item.Owned, item.PrevOwned, item.NumPlays, item.LastSyncedAt, item.UserID, item.GameID)
		if err != nil {
			return false, fmt.Errorf("failed to update collection item: %w", err)
		}
		return false, nil
	}
}

// ListByUser returns the user's collection joined with catalog names.
func (r *SQLiteCollectionRepository) ListByUser(ctx context.Context, userID int64) ([]model.CollectionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.user_id, c.game_id, g.name, c.owned, c.prev_owned, c.num_plays, c.last_synced_at
		FROM collection_items c
		JOIN games g ON g.id = c.game_id
		WHERE c.user_id = ?
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	defer rows.Close()

	items := []model.CollectionItem{}
	for rows.Next() {
		var item model.CollectionItem
		if err := rows.Scan(&item.UserID, &item.GameID, &item.GameName,
			&item.Owned, &item.PrevOwned, &item.NumPlays, &item.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collection rows: %w", err)
	}

	return items, nil
}

// GetStats returns statistics about the collection database.
func (r *SQLiteCollectionRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var items, users, games int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collection_items").Scan(&items); err != nil {
		return nil, err
	}
	stats["total_items"] = items

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT user_id) FROM collection_items").Scan(&users); err != nil {
		return nil, err
	}
	stats["total_users"] = users

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&games); err != nil {
		return nil, err
	}
	stats["catalog_games"] = games

	// MAX() strips the column's datetime affinity, so the driver hands the
	// aggregate back as text rather than time.Time.
	var lastSync sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(last_synced_at) FROM collection_items").Scan(&lastSync); err == nil && lastSync.Valid {
		if ts, ok := parseStoredTime(lastSync.String); ok {
			stats["last_sync"] = ts
		}
	}

	return stats, nil
}

// parseStoredTime decodes the textual forms SQLite hands back for
// aggregated datetime columns.
func parseStoredTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Close closes the database connection.
func (r *SQLiteCollectionRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteCollectionRepository implements CollectionRepository
var _ CollectionRepository = (*SQLiteCollectionRepository)(nil)
