package handler

import (
	"encoding/json"
	"net/http"

	"warehouse-sync-api/internal/middleware"
	"warehouse-sync-api/internal/notify"
	"warehouse-sync-api/pkg/apierror"
	"warehouse-sync-api/pkg/response"
)

// NotificationHandler manages device token registrations.
type NotificationHandler struct {
	registry notify.TokenRegistry
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(registry notify.TokenRegistry) *NotificationHandler {
	return &NotificationHandler{registry: registry}
}

// RegisterTokenRequest carries the caller's push device token.
type RegisterTokenRequest struct {
	Token string `json:"token"`
}

// RegisterToken handles POST /api/v1/notifications/register
func (h *NotificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetTokenDataFromContext(r.Context())
	if identity == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	if h.registry == nil {
		response.Error(w, apierror.ServiceUnavailable("push notifications not configured"))
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Token == "" {
		response.Error(w, apierror.ValidationError("token is required",
			apierror.FieldError{Field: "token", Message: "token is required"}))
		return
	}

	if err := h.registry.RegisterToken(r.Context(), identity.ActorID, identity.Role, req.Token); err != nil {
		response.Error(w, apierror.InternalError(""))
		return
	}

	response.OK(w, map[string]bool{"registered": true})
}
