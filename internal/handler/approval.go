package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"warehouse-sync-api/internal/middleware"
	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/service"
	"warehouse-sync-api/pkg/apierror"
	"warehouse-sync-api/pkg/response"
)

// ApprovalHandler exposes the pending-action workflow over HTTP.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler.
func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// DecisionRequest carries the admin's optional comment on approve/reject.
type DecisionRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// RequestApproval handles POST /api/v1/sync/assistant/pending
func (h *ApprovalHandler) RequestApproval(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAssistant)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var input service.CreateApprovalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	action, err := h.approvals.Create(r.Context(), identity.AdminID, identity.ActorID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.Created(w, action)
}

// PendingStatus handles GET /api/v1/sync/assistant/pending
func (h *ApprovalHandler) PendingStatus(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAssistant)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	actions, err := h.approvals.ListForAssistant(r.Context(), identity.ActorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.OK(w, actions)
}

// PendingActions handles GET /api/v1/sync/admin/pending
func (h *ApprovalHandler) PendingActions(w http.ResponseWriter, r *http.Request) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAdmin)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	actions, err := h.approvals.ListPendingForAdmin(r.Context(), identity.ActorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.OK(w, actions)
}

// Approve handles POST /api/v1/sync/admin/pending/{id}/approve
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Approve)
}

// Reject handles POST /api/v1/sync/admin/pending/{id}/reject
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Reject)
}

func (h *ApprovalHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, adminID int64, actionID string, comment *string) (*model.PendingAction, error),
) {
	identity, apiErr := middleware.RequireRole(r.Context(), model.RoleAdmin)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	actionID := chi.URLParam(r, "id")
	if actionID == "" {
		response.Error(w, apierror.BadRequest("action id is required"))
		return
	}

	var req DecisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
		defer r.Body.Close()
	}

	action, err := fn(r.Context(), identity.ActorID, actionID, req.Comment)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.OK(w, action)
}
