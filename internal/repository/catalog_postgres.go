package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresGameCatalogRepository implements GameCatalogRepository using PostgreSQL.
type PostgresGameCatalogRepository struct {
	db *sql.DB
}

// NewPostgresGameCatalogRepository creates a catalog repository over an
// already opened PostgreSQL handle (see OpenPostgres).
func NewPostgresGameCatalogRepository(db *sql.DB) *PostgresGameCatalogRepository {
	return &PostgresGameCatalogRepository{db: db}
}

// LookupByBGGIDs resolves BGG object ids to local game ids in one query.
func (r *PostgresGameCatalogRepository) LookupByBGGIDs(ctx context.Context, bggIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(bggIDs))
	if len(bggIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT bgg_id, id FROM games WHERE bgg_id = ANY($1)`, pq.Array(bggIDs))
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

// Ensure PostgresGameCatalogRepository implements GameCatalogRepository
var _ GameCatalogRepository = (*PostgresGameCatalogRepository)(nil)
