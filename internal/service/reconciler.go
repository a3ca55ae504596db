package service

import (
	"context"
	"fmt"
	"time"

	"meeplehub-api/internal/model"
	"meeplehub-api/internal/repository"
)

// reconcile upserts collection rows for matched items. Upsert is the only
// mutation: rows absent from the remote document are left alone, so a
// partial upstream document can never destroy local history.
//
// Duplicate object ids within one document are collapsed to the last
// occurrence before writing (latest information in the document wins),
// keeping the whole step idempotent per (user, game) pair.
//
// On a storage error the counts for what already succeeded are returned
// alongside ErrPersistenceFailed.
func reconcile(ctx context.Context, collection repository.CollectionRepository, userID int64, matches []matchResult, now time.Time) (createdCount, updatedCount int, err error) {
	// Collapse to the last occurrence per game id, preserving the order
	// in which each game first appeared.
	order := make([]int64, 0, len(matches))
	latest := make(map[int64]matchResult, len(matches))
	for _, m := range matches {
		if !m.matched {
			continue
		}
		if _, ok := latest[m.gameID]; !ok {
			order = append(order, m.gameID)
		}
		latest[m.gameID] = m
	}

	for _, gameID := range order {
		m := latest[gameID]
		created, upsertErr := collection.UpsertItem(ctx, model.CollectionItem{
			UserID:       userID,
			GameID:       m.gameID,
			Owned:        m.item.Owned,
			PrevOwned:    m.item.PrevOwned,
			NumPlays:     m.item.NumPlays,
			LastSyncedAt: now,
		})
		if upsertErr != nil {
			return createdCount, updatedCount, fmt.Errorf("%w: upsert game %d: %v", ErrPersistenceFailed, m.gameID, upsertErr)
		}
		if created {
			createdCount++
		} else {
			updatedCount++
		}
	}

	return createdCount, updatedCount, nil
}
