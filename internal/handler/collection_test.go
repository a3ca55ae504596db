package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meeplehub-api/internal/bgg"
	"meeplehub-api/internal/lock"
	"meeplehub-api/internal/middleware"
	"meeplehub-api/internal/model"
	"meeplehub-api/internal/service"
	"meeplehub-api/pkg/apierror"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (s *stubFetcher) FetchCollection(ctx context.Context, username string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

type stubCatalog struct {
	refs map[string]int64
}

func (s *stubCatalog) LookupByBGGIDs(ctx context.Context, bggIDs []string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, id := range bggIDs {
		if gameID, ok := s.refs[id]; ok {
			result[id] = gameID
		}
	}
	return result, nil
}

type stubCollection struct {
	items map[int64]model.CollectionItem
}

func (s *stubCollection) UpsertItem(ctx context.Context, item model.CollectionItem) (bool, error) {
	if s.items == nil {
		s.items = make(map[int64]model.CollectionItem)
	}
	_, exists := s.items[item.GameID]
	s.items[item.GameID] = item
	return !exists, nil
}

func (s *stubCollection) ListByUser(ctx context.Context, userID int64) ([]model.CollectionItem, error) {
	var items []model.CollectionItem
	for _, item := range s.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *stubCollection) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (s *stubCollection) Close() error { return nil }

func newTestHandler(fetcher *stubFetcher, catalog *stubCatalog, collection *stubCollection) *CollectionHandler {
	svc := service.NewCollectionService(
		fetcher, catalog, collection, nil,
		lock.NewMemoryLocker(time.Minute), nil, 0,
	)
	return NewCollectionHandler(svc)
}

func authedRequest(method, target string, body []byte, userID int64) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.TokenDataKey, &model.TokenData{
		UserID:   userID,
		Username: "alice",
	})
	return req.WithContext(ctx)
}

func TestSyncErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"sync in progress", service.ErrSyncInProgress, http.StatusConflict, "CONFLICT"},
		{"no username", service.ErrNoBGGUsername, http.StatusBadRequest, "BAD_REQUEST"},
		{"bgg user missing", bgg.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"rate limited", bgg.ErrRateLimited, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"bgg unavailable", bgg.ErrUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"persistence failure", service.ErrPersistenceFailed, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := syncError(tt.err)
			apiErr, ok := mapped.(*apierror.Error)
			if !ok {
				t.Fatalf("expected *apierror.Error, got %T", mapped)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}

	t.Run("wrapped errors still map", func(t *testing.T) {
		wrapped := errors.Join(errors.New("catalog lookup timed out"), service.ErrPersistenceFailed)
		apiErr, ok := syncError(wrapped).(*apierror.Error)
		if !ok || apiErr.StatusCode != http.StatusInternalServerError {
			t.Fatalf("wrapped persistence error not mapped: %v", syncError(wrapped))
		}
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		unknown := errors.New("something else")
		if got := syncError(unknown); got != unknown {
			t.Fatalf("unknown error rewritten to %v", got)
		}
	})
}

func TestSyncHandler(t *testing.T) {
	doc := `<items>
	<item objectid="5867"><name>Alhambra</name><status own="1"/><numplays>1</numplays></item>
	<item objectid="7866"><name>Mystery</name><status own="1"/></item>
</items>`

	h := newTestHandler(
		&stubFetcher{body: []byte(doc)},
		&stubCatalog{refs: map[string]int64{"5867": 1}},
		&stubCollection{},
	)

	req := authedRequest(http.MethodPost, "/api/v1/collection/sync", []byte(`{"bgg_username":"alice"}`), 10)
	rr := httptest.NewRecorder()
	h.Sync(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool             `json:"success"`
		Data    model.SyncReport `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	report := envelope.Data
	if report.MatchedCount != 1 || report.CreatedCount != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.UnmatchedBGGIDs) != 1 || report.UnmatchedBGGIDs[0] != "7866" {
		t.Fatalf("unexpected unmatched ids: %v", report.UnmatchedBGGIDs)
	}
}

func TestSyncHandlerWithoutBody(t *testing.T) {
	h := newTestHandler(
		&stubFetcher{err: bgg.ErrUserNotFound},
		&stubCatalog{},
		&stubCollection{},
	)

	// No body and no saved profile username: precondition failure, 400.
	req := authedRequest(http.MethodPost, "/api/v1/collection/sync", nil, 10)
	rr := httptest.NewRecorder()
	h.Sync(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
	}
}

func TestSyncHandlerRequiresAuth(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, &stubCatalog{}, &stubCollection{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collection/sync", nil)
	rr := httptest.NewRecorder()
	h.Sync(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestSyncHandlerRejectsInvalidJSONBody(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, &stubCatalog{}, &stubCollection{})

	req := authedRequest(http.MethodPost, "/api/v1/collection/sync", []byte(`{not json`), 10)
	rr := httptest.NewRecorder()
	h.Sync(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetCollectionHandler(t *testing.T) {
	collection := &stubCollection{items: map[int64]model.CollectionItem{
		1: {UserID: 10, GameID: 1, GameName: "Alhambra", Owned: true, NumPlays: 3},
	}}
	h := newTestHandler(&stubFetcher{}, &stubCatalog{}, collection)

	req := authedRequest(http.MethodGet, "/api/v1/collection", nil, 10)
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			UserID int64                  `json:"user_id"`
			Items  []model.CollectionItem `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if envelope.Data.UserID != 10 || len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected listing: %+v", envelope.Data)
	}
	if envelope.Data.Items[0].GameName != "Alhambra" {
		t.Fatalf("unexpected item: %+v", envelope.Data.Items[0])
	}
}

func TestSaveBGGUsernameHandlerValidation(t *testing.T) {
	h := newTestHandler(&stubFetcher{}, &stubCatalog{}, &stubCollection{})

	for _, body := range []string{`{}`, `{"bgg_username":"   "}`} {
		req := authedRequest(http.MethodPut, "/api/v1/profile/bgg-username", []byte(body), 10)
		rr := httptest.NewRecorder()
		h.SaveBGGUsername(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rr.Code)
		}
	}
}
