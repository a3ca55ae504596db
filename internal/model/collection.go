package model

import "time"

// CollectionItem represents one game in a user's collection.
// Keyed uniquely by (UserID, GameID); created on first sync match and
// updated in place afterwards. Sync never deletes these rows.
type CollectionItem struct {
	UserID       int64     `json:"user_id"`
	GameID       int64     `json:"game_id"`
	GameName     string    `json:"game_name,omitempty"`
	Owned        bool      `json:"owned"`
	PrevOwned    bool      `json:"prev_owned"`
	NumPlays     int       `json:"num_plays"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// SyncReport summarizes the outcome of one collection sync.
// Returned to the caller, never persisted.
type SyncReport struct {
	MatchedCount    int      `json:"matched_count"`
	UnmatchedBGGIDs []string `json:"unmatched_bgg_ids"`
	CreatedCount    int      `json:"created_count"`
	UpdatedCount    int      `json:"updated_count"`
}
