package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteGameCatalogRepository implements GameCatalogRepository using SQLite.
type SQLiteGameCatalogRepository struct {
	db *sql.DB
}

// NewSQLiteGameCatalogRepository creates a catalog repository over an
// already opened SQLite handle (see OpenSQLite).
func NewSQLiteGameCatalogRepository(db *sql.DB) *SQLiteGameCatalogRepository {
	return &SQLiteGameCatalogRepository{db: db}
}

// LookupByBGGIDs resolves BGG object ids to local game ids in one query.
func (r *SQLiteGameCatalogRepository) LookupByBGGIDs(ctx context.Context, bggIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(bggIDs))
	if len(bggIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(bggIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`SELECT bgg_id, id FROM games WHERE bgg_id IN (%s)`, placeholders)

	args := make([]interface{}, len(bggIDs))
	for i, id := range bggIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up games by bgg id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bggID string
		var gameID int64
		if err := rows.Scan(&bggID, &gameID); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		result[bggID] = gameID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game rows: %w", err)
	}

	return result, nil
}

// Ensure SQLiteGameCatalogRepository implements GameCatalogRepository
var _ GameCatalogRepository = (*SQLiteGameCatalogRepository)(nil)
