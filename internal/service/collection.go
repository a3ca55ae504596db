package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"meeplehub-api/internal/bgg"
	"meeplehub-api/internal/cache"
	"meeplehub-api/internal/lock"
	"meeplehub-api/internal/model"
	"meeplehub-api/internal/repository"
)

// CollectionFetcher retrieves raw collection documents from BGG.
// Implemented by bgg.Client; faked in tests.
type CollectionFetcher interface {
	FetchCollection(ctx context.Context, username string) ([]byte, error)
}

// CollectionService owns the collection sync pipeline and the read path
// over the user's synced collection.
type CollectionService struct {
	fetcher    CollectionFetcher
	catalog    repository.GameCatalogRepository
	collection repository.CollectionRepository
	profiles   repository.ProfileRepository
	locker     lock.Locker
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewCollectionService creates a collection service. fetcher, catalog,
// collection and locker are required; profiles and cache are optional.
func NewCollectionService(
	fetcher CollectionFetcher,
	catalog repository.GameCatalogRepository,
	collection repository.CollectionRepository,
	profiles repository.ProfileRepository,
	locker lock.Locker,
	listCache cache.Cache,
	cacheTTL time.Duration,
) *CollectionService {
	if fetcher == nil || catalog == nil || collection == nil || locker == nil {
		return nil
	}
	return &CollectionService{
		fetcher:    fetcher,
		catalog:    catalog,
		collection: collection,
		profiles:   profiles,
		locker:     locker,
		cache:      listCache,
		cacheTTL:   cacheTTL,
	}
}

// SyncCollection pulls the user's BGG collection and merges it into the
// local collection store.
//
// bggUsername may be empty, in which case the user's saved profile
// username is used; having neither fails with ErrNoBGGUsername. At most
// one sync per user runs at a time: a second call while one is in flight
// fails immediately with ErrSyncInProgress.
//
// Fetch failures propagate unchanged. Storage failures surface as
// ErrPersistenceFailed together with a report counting what succeeded
// before the failure.
func (s *CollectionService) SyncCollection(ctx context.Context, userID int64, bggUsername string) (*model.SyncReport, error) {
	username, err := s.resolveUsername(ctx, userID, bggUsername)
	if err != nil {
		return nil, err
	}

	acquired, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: sync lock: %v", ErrPersistenceFailed, err)
	}
	if !acquired {
		return nil, ErrSyncInProgress
	}
	// Release must happen even when the caller abandoned ctx, so the
	// Running state can never outlive the call.
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := s.locker.Release(releaseCtx, userID); releaseErr != nil {
			log.Printf("[CollectionService] Failed to release sync lock for user %d: %v", userID, releaseErr)
		}
	}()

	body, err := s.fetcher.FetchCollection(ctx, username)
	if err != nil {
		return nil, err
	}

	items := bgg.ParseCollection(body)

	matches, err := matchItems(ctx, s.catalog, items)
	if err != nil {
		log.Printf("[CollectionService] Catalog lookup failed for user %d: %v", userID, err)
		return nil, err
	}

	report := &model.SyncReport{UnmatchedBGGIDs: []string{}}
	for _, m := range matches {
		if m.matched {
			report.MatchedCount++
		} else {
			report.UnmatchedBGGIDs = append(report.UnmatchedBGGIDs, m.item.ObjectID)
		}
	}

	created, updated, err := reconcile(ctx, s.collection, userID, matches, time.Now().UTC())
	report.CreatedCount = created
	report.UpdatedCount = updated
	if err != nil {
		log.Printf("[CollectionService] Reconciliation failed for user %d after %d creates, %d updates: %v",
			userID, created, updated, err)
		return report, err
	}

	s.invalidateListing(userID)

	return report, nil
}

// resolveUsername applies the precondition: an explicit username wins,
// otherwise the saved profile one.
func (s *CollectionService) resolveUsername(ctx context.Context, userID int64, bggUsername string) (string, error) {
	username := strings.TrimSpace(bggUsername)
	if username != "" {
		return username, nil
	}
	if s.profiles == nil {
		return "", ErrNoBGGUsername
	}
	saved, err := s.profiles.GetBGGUsername(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: profile lookup: %v", ErrPersistenceFailed, err)
	}
	if saved == "" {
		return "", ErrNoBGGUsername
	}
	return saved, nil
}

// ListCollection returns the user's collection, read-through cached when a
// cache is configured.
func (s *CollectionService) ListCollection(ctx context.Context, userID int64) ([]model.CollectionItem, error) {
	key := s.listingKey(userID)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var items []model.CollectionItem
			if json.Unmarshal(data, &items) == nil {
				return items, nil
			}
		}
	}

	items, err := s.collection.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list collection: %v", ErrPersistenceFailed, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}

	return items, nil
}

// SaveBGGUsername stores the user's BGG username (the companion save
// operation for sync).
func (s *CollectionService) SaveBGGUsername(ctx context.Context, userID int64, username string) error {
	if s.profiles == nil {
		return fmt.Errorf("%w: profile store unavailable", ErrPersistenceFailed)
	}
	if err := s.profiles.SaveBGGUsername(ctx, userID, username); err != nil {
		return fmt.Errorf("%w: save bgg username: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func (s *CollectionService) listingKey(userID int64) string {
	return fmt.Sprintf("collection:%d", userID)
}

// invalidateListing drops the cached listing after a successful sync.
func (s *CollectionService) invalidateListing(userID int64) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, s.listingKey(userID)); err != nil {
		log.Printf("[CollectionService] Failed to invalidate listing cache for user %d: %v", userID, err)
	}
}
