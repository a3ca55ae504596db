package service

import "errors"

// Sync outcomes the HTTP layer maps to user-facing responses. Fetch-stage
// failures (bgg.ErrUserNotFound, bgg.ErrRateLimited, bgg.ErrUnavailable)
// propagate from the bgg package unchanged.
var (
	// ErrSyncInProgress means a sync for this user is already running.
	ErrSyncInProgress = errors.New("a sync is already in progress for this user")

	// ErrNoBGGUsername means the user never configured a BGG username and
	// did not supply one with the request.
	ErrNoBGGUsername = errors.New("no bgg username configured")

	// ErrPersistenceFailed means local storage failed while matching or
	// reconciling. The only sync failure that warrants operational alerting.
	ErrPersistenceFailed = errors.New("collection storage failure")
)
