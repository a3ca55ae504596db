package repository

import (
	"context"

	"meeplehub-api/internal/model"
)

// GameCatalogRepository defines read access to the local game catalog.
// The catalog is reference data; sync never writes to it.
type GameCatalogRepository interface {
	// LookupByBGGIDs resolves BGG object ids to local game ids in one
	// batched query. Ids with no catalog entry are absent from the result.
	LookupByBGGIDs(ctx context.Context, bggIDs []string) (map[string]int64, error)
}

// CollectionRepository defines per-user collection data access.
type CollectionRepository interface {
	// UpsertItem inserts or updates a collection row keyed by
	// (user_id, game_id). Reports whether the row was created.
	UpsertItem(ctx context.Context, item model.CollectionItem) (created bool, err error)

	// ListByUser returns all collection rows for a user, joined with
	// catalog game names.
	ListByUser(ctx context.Context, userID int64) ([]model.CollectionItem, error)

	// GetStats returns statistics about the collection database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// ProfileRepository defines access to saved user profile settings.
type ProfileRepository interface {
	// GetBGGUsername returns the user's saved BGG username, or "" when
	// none has been configured.
	GetBGGUsername(ctx context.Context, userID int64) (string, error)

	// SaveBGGUsername stores the user's BGG username.
	SaveBGGUsername(ctx context.Context, userID int64, username string) error
}
