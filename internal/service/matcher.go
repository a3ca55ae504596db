package service

import (
	"context"
	"fmt"

	"meeplehub-api/internal/bgg"
	"meeplehub-api/internal/repository"
)

// matchResult pairs a parsed BGG item with its local catalog game, if any.
// The slice produced by matchItems is a partition of the input: every item
// is classified exactly once, in document order.
type matchResult struct {
	item    bgg.Item
	gameID  int64
	matched bool
}

// matchItems resolves BGG object ids against the local game catalog with a
// single batched lookup over the distinct ids. Items without a catalog
// entry are classified unmatched; that is steady-state, not an error.
func matchItems(ctx context.Context, catalog repository.GameCatalogRepository, items []bgg.Item) ([]matchResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(items))
	distinct := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ObjectID]; ok {
			continue
		}
		seen[item.ObjectID] = struct{}{}
		distinct = append(distinct, item.ObjectID)
	}

	refs, err := catalog.LookupByBGGIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog lookup: %v", ErrPersistenceFailed, err)
	}

	results := make([]matchResult, 0, len(items))
	for _, item := range items {
		gameID, ok := refs[item.ObjectID]
		results = append(results, matchResult{
			item:    item,
			gameID:  gameID,
			matched: ok,
		})
	}
	return results, nil
}
