package handler

import (
	"encoding/json"
	"net/http"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/internal/service"
	"warehouse-sync-api/pkg/apierror"
	"warehouse-sync-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	actorRepo    repository.ActorRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, actorRepo repository.ActorRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		actorRepo:    actorRepo,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	Login    string     `json:"login"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string     `json:"token"`
	ActorID   int64      `json:"actor_id"`
	Role      model.Role `json:"role"`
	ExpiresIn int        `json:"expires_in"`
}

// GenerateToken handles POST /auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Login == "" {
		response.Error(w, apierror.BadRequest("login is required"))
		return
	}
	if req.Password == "" {
		response.Error(w, apierror.BadRequest("password is required"))
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleAssistant {
		response.Error(w, apierror.BadRequest("role must be ADMIN or ASSISTANT"))
		return
	}

	actor, err := h.actorRepo.ValidateCredentials(r.Context(), req.Login, req.Password, req.Role)
	if err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	tokenData := model.TokenData{
		ActorID: actor.ID,
		Role:    actor.Role,
		AdminID: actor.AdminID,
		Login:   actor.Login,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ActorID:   actor.ID,
		Role:      actor.Role,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
