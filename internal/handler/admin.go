package handler

import (
	"log"
	"net/http"

	"meeplehub-api/internal/repository"
	"meeplehub-api/pkg/apierror"
	"meeplehub-api/pkg/response"
)

// AdminHandler exposes operational statistics behind the login key.
type AdminHandler struct {
	collectionRepo repository.CollectionRepository
	dbType         string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(collectionRepo repository.CollectionRepository, dbType string) *AdminHandler {
	return &AdminHandler{
		collectionRepo: collectionRepo,
		dbType:         dbType,
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collectionRepo.GetStats(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Failed to collect stats: %v", err)
		response.Error(w, apierror.InternalError("failed to collect stats"))
		return
	}

	stats["db_type"] = h.dbType
	response.OK(w, stats)
}
