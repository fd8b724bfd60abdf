package handler

import (
	"net/http"
	"runtime"
	"time"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/pkg/apierror"
	"warehouse-sync-api/pkg/response"
)

// AdminHandler handles operator dashboard HTTP requests.
type AdminHandler struct {
	itemRepo    repository.ItemRepository
	txRepo      repository.TransactionRepository
	pendingRepo repository.PendingActionRepository
	dbType      string // sqlite or postgres
	loginKey    string
	startTime   time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	itemRepo repository.ItemRepository,
	txRepo repository.TransactionRepository,
	pendingRepo repository.PendingActionRepository,
	dbType string,
	loginKey string,
) *AdminHandler {
	return &AdminHandler{
		itemRepo:    itemRepo,
		txRepo:      txRepo,
		pendingRepo: pendingRepo,
		dbType:      dbType,
		loginKey:    loginKey,
		startTime:   time.Now(),
	}
}

// authorize checks the X-Login-Key header shared by operator tooling.
func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if h.loginKey == "" || r.Header.Get("X-Login-Key") != h.loginKey {
		response.Error(w, apierror.Unauthorized("Invalid login key"))
		return false
	}
	return true
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Store counts
	store := make(map[string]interface{})
	if count, err := h.itemRepo.Count(ctx); err == nil {
		store["items"] = count
	} else {
		store["items_error"] = err.Error()
	}
	if count, err := h.txRepo.Count(ctx); err == nil {
		store["transactions"] = count
	} else {
		store["transactions_error"] = err.Error()
	}
	stats["store"] = store

	// Approval queue breakdown
	queue := make(map[string]interface{})
	if counts, err := h.pendingRepo.CountByStatus(ctx); err == nil {
		for _, status := range []model.PendingActionStatus{
			model.StatusPending,
			model.StatusApproved,
			model.StatusRejected,
			model.StatusExpired,
		} {
			queue[string(status)] = counts[status]
		}
	} else {
		queue["error"] = err.Error()
	}
	stats["pending_actions"] = queue

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
