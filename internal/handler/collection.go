package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"meeplehub-api/internal/bgg"
	"meeplehub-api/internal/middleware"
	"meeplehub-api/internal/service"
	"meeplehub-api/pkg/apierror"
	"meeplehub-api/pkg/response"
)

// CollectionHandler handles collection-related HTTP requests.
type CollectionHandler struct {
	collectionService *service.CollectionService
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(collectionService *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
	}
}

type syncRequest struct {
	BGGUsername string `json:"bgg_username"`
}

// Sync handles POST /api/v1/collection/sync
func (h *CollectionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid JSON body"))
			return
		}
	}

	report, err := h.collectionService.SyncCollection(r.Context(), tokenData.UserID, req.BGGUsername)
	if err != nil {
		response.Error(w, syncError(err))
		return
	}

	response.OK(w, report)
}

// syncError maps sync pipeline errors to API errors. Transient outcomes
// (in progress, rate limited, upstream unavailable) all read as "try again
// shortly"; bad usernames read as corrective-action messages.
func syncError(err error) error {
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		return apierror.Conflict("A sync is already running for this account, try again shortly")
	case errors.Is(err, service.ErrNoBGGUsername):
		return apierror.BadRequest("No BGG username configured. Save one or pass bgg_username.")
	case errors.Is(err, bgg.ErrUserNotFound):
		return apierror.NotFound("BGG username not found, check the configured username")
	case errors.Is(err, bgg.ErrRateLimited):
		return apierror.TooManyRequests("BGG is throttling requests, try again shortly")
	case errors.Is(err, bgg.ErrUnavailable):
		return apierror.ServiceUnavailable("BGG has not produced the collection yet, try again shortly")
	case errors.Is(err, service.ErrPersistenceFailed):
		log.Printf("[CollectionHandler] Persistence failure during sync: %v", err)
		return apierror.InternalError("")
	default:
		return err
	}
}

// Get handles GET /api/v1/collection
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	items, err := h.collectionService.ListCollection(r.Context(), tokenData.UserID)
	if err != nil {
		log.Printf("[CollectionHandler] Failed to list collection for user %d: %v", tokenData.UserID, err)
		response.Error(w, apierror.InternalError(""))
		return
	}

	response.OK(w, map[string]interface{}{
		"user_id": tokenData.UserID,
		"items":   items,
	})
}

type saveUsernameRequest struct {
	BGGUsername string `json:"bgg_username"`
}

// SaveBGGUsername handles PUT /api/v1/profile/bgg-username
func (h *CollectionHandler) SaveBGGUsername(w http.ResponseWriter, r *http.Request) {
	tokenData := middleware.GetTokenDataFromContext(r.Context())
	if tokenData == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req saveUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.BGGUsername) == "" {
		response.Error(w, apierror.BadRequest("bgg_username is required"))
		return
	}

	if err := h.collectionService.SaveBGGUsername(r.Context(), tokenData.UserID, req.BGGUsername); err != nil {
		log.Printf("[CollectionHandler] Failed to save bgg username for user %d: %v", tokenData.UserID, err)
		response.Error(w, apierror.InternalError(""))
		return
	}

	response.OK(w, map[string]interface{}{
		"user_id":      tokenData.UserID,
		"bgg_username": strings.TrimSpace(req.BGGUsername),
	})
}
