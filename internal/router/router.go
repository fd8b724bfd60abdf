package router

import (
	"net/http"

	"warehouse-sync-api/internal/handler"
	"warehouse-sync-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler             *handler.Handler
	SyncHandler         *handler.SyncHandler
	ApprovalHandler     *handler.ApprovalHandler
	NotificationHandler *handler.NotificationHandler
	AdminHandler        *handler.AdminHandler
	AuthHandler         *handler.AuthHandler
	AuthMiddleware      func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Sync endpoints
			r.Route("/sync", func(r chi.Router) {
				r.Route("/assistant", func(r chi.Router) {
					if cfg.SyncHandler != nil {
						r.Post("/push", cfg.SyncHandler.Push)
						r.Get("/pull", cfg.SyncHandler.AssistantPull)
					}
					if cfg.ApprovalHandler != nil {
						r.Post("/pending", cfg.ApprovalHandler.RequestApproval)
						r.Get("/pending", cfg.ApprovalHandler.PendingStatus)
					}
				})
				r.Route("/admin", func(r chi.Router) {
					if cfg.SyncHandler != nil {
						r.Get("/pull", cfg.SyncHandler.AdminPull)
					}
					if cfg.ApprovalHandler != nil {
						r.Get("/pending", cfg.ApprovalHandler.PendingActions)
						r.Post("/pending/{id}/approve", cfg.ApprovalHandler.Approve)
						r.Post("/pending/{id}/reject", cfg.ApprovalHandler.Reject)
					}
				})
			})

			// Push notification registration
			if cfg.NotificationHandler != nil {
				r.Post("/notifications/register", cfg.NotificationHandler.RegisterToken)
			}

			// Admin dashboard endpoints (X-Login-Key)
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/health", cfg.AdminHandler.GetHealth)
				})
			}
		})
	})

	return r
}
