package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"warehouse-sync-api/internal/middleware"
	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/internal/service"
	"warehouse-sync-api/pkg/apierror"
	"warehouse-sync-api/pkg/response"
)

// SyncHandler handles push/pull HTTP requests for both roles.
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// PushRequest represents an assistant's push batch.
type PushRequest struct {
	Items        []service.PushItemInput        `json:"items"`
	Transactions []service.PushTransactionInput `json:"transactions"`
}

// Push handles POST /api/v1/sync/assistant/push
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAssistant)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	result, err := h.syncService.Push(r.Context(), identity.AdminID, identity.ActorID, req.Items, req.Transactions)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.OK(w, result)
}

// AssistantPull handles GET /api/v1/sync/assistant/pull
func (h *SyncHandler) AssistantPull(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAssistant)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	h.pull(w, r, identity)
}

// AdminPull handles GET /api/v1/sync/admin/pull
func (h *SyncHandler) AdminPull(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAdmin)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	h.pull(w, r, identity)
}

func (h *SyncHandler) pull(w http.ResponseWriter, r *http.Request, identity *model.TokenData) {
	var since *time.Time
	if raw := r.URL.Query().Get("last_sync_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(w, apierror.BadRequest("last_sync_at must be RFC3339"))
			return
		}
		since = &parsed
	}

	result, err := h.syncService.Pull(r.Context(), identity.ActorID, identity.Role, since)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.OK(w, result)
}

// respondServiceError maps core error kinds onto the transport envelope.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.Error(w, apierror.ValidationError(validationErr.Message,
			apierror.FieldError{Field: validationErr.Field, Message: validationErr.Message}))
	case errors.Is(err, repository.ErrNotFound):
		response.Error(w, apierror.NotFound(err.Error()))
	case errors.Is(err, repository.ErrStateConflict):
		response.Error(w, apierror.Conflict(err.Error()))
	case errors.Is(err, service.ErrAccountsUnavailable):
		response.Error(w, apierror.ServiceUnavailable("account lookups unavailable"))
	default:
		response.Error(w, apierror.InternalError(""))
	}
}
