package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-sync-api/internal/middleware"
	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/internal/service"
)

type syncFixture struct {
	syncHandler     *SyncHandler
	approvalHandler *ApprovalHandler
	items           repository.ItemRepository
	pending         repository.PendingActionRepository
}

// stubActorRepo resolves every caller without touching an accounts database.
type stubActorRepo struct{}

func (stubActorRepo) GetAdmin(ctx context.Context, id int64) (*model.Actor, error) {
	return &model.Actor{ID: id, Role: model.RoleAdmin, AdminID: id, IsActive: true}, nil
}

func (stubActorRepo) GetAssistant(ctx context.Context, id int64) (*model.Actor, error) {
	return &model.Actor{ID: id, Role: model.RoleAssistant, AdminID: 1, IsActive: true}, nil
}

func (stubActorRepo) ValidateCredentials(ctx context.Context, login, password string, role model.Role) (*model.Actor, error) {
	return nil, repository.ErrNotFound
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	items := repository.NewSQLiteItemRepository(db)
	txs := repository.NewSQLiteTransactionRepository(db)
	pending := repository.NewSQLitePendingActionRepository(db)

	syncService := service.NewSyncService(items, txs, pending, stubActorRepo{}, nil, 0)
	approvalService := service.NewApprovalService(pending, nil)

	return &syncFixture{
		syncHandler:     NewSyncHandler(syncService),
		approvalHandler: NewApprovalHandler(approvalService),
		items:           items,
		pending:         pending,
	}
}

func asAssistant(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.TokenDataKey, &model.TokenData{
		ActorID: 10,
		Role:    model.RoleAssistant,
		AdminID: 1,
	})
	return r.WithContext(ctx)
}

func asAdmin(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.TokenDataKey, &model.TokenData{
		ActorID: 1,
		Role:    model.RoleAdmin,
		AdminID: 1,
	})
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeData unwraps the response envelope's data field into out.
func decodeData(t *testing.T, body *bytes.Buffer, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestSyncHandler_PushRequiresAuth(t *testing.T) {
	f := newSyncFixture(t)

	req := httptest.NewRequest("POST", "/api/v1/sync/assistant/push", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	f.syncHandler.Push(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Admins cannot use the assistant push endpoint
	req = httptest.NewRequest("POST", "/api/v1/sync/assistant/push", bytes.NewBufferString(`{}`))
	w = httptest.NewRecorder()
	f.syncHandler.Push(w, asAdmin(req))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSyncHandler_PushAndPull(t *testing.T) {
	f := newSyncFixture(t)

	body := `{
		"items": [{"localId": 101, "name": "Winter Jacket", "totalQuantity": 3}],
		"transactions": [{"localId": 201, "action": "add", "itemName": "Winter Jacket", "timestamp": 1724900000000}]
	}`
	req := httptest.NewRequest("POST", "/api/v1/sync/assistant/push", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	f.syncHandler.Push(w, asAssistant(req))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var pushResult service.PushResult
	decodeData(t, w.Body, &pushResult)
	require.Len(t, pushResult.ItemMappings, 1)
	assert.Equal(t, int64(101), pushResult.ItemMappings[0].LocalID)
	require.Len(t, pushResult.TransactionMappings, 1)

	// The pushed data comes back on the admin's pull
	req = httptest.NewRequest("GET", "/api/v1/sync/admin/pull", nil)
	w = httptest.NewRecorder()
	f.syncHandler.AdminPull(w, asAdmin(req))
	require.Equal(t, http.StatusOK, w.Code)

	var pullResult service.PullResult
	decodeData(t, w.Body, &pullResult)
	require.Len(t, pullResult.Items, 1)
	assert.Equal(t, pushResult.ItemMappings[0].ServerID, pullResult.Items[0].ID)
	require.Len(t, pullResult.Transactions, 1)
	assert.False(t, pullResult.LastSyncAt.IsZero())

	// A later cursor yields an empty delta
	cursor := pullResult.LastSyncAt.Format(time.RFC3339Nano)
	req = httptest.NewRequest("GET", "/api/v1/sync/assistant/pull?last_sync_at="+cursor, nil)
	w = httptest.NewRecorder()
	f.syncHandler.AssistantPull(w, asAssistant(req))
	require.Equal(t, http.StatusOK, w.Code)

	decodeData(t, w.Body, &pullResult)
	assert.Empty(t, pullResult.Items)
}

func TestSyncHandler_PushValidationError(t *testing.T) {
	f := newSyncFixture(t)

	body := `{"transactions": [{"localId": 201, "action": "", "itemName": "x", "timestamp": 1}]}`
	req := httptest.NewRequest("POST", "/api/v1/sync/assistant/push", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	f.syncHandler.Push(w, asAssistant(req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestSyncHandler_PullDegradedAccountsStore(t *testing.T) {
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Accounts repo is nil when MySQL was unreachable at startup
	syncService := service.NewSyncService(
		repository.NewSQLiteItemRepository(db),
		repository.NewSQLiteTransactionRepository(db),
		repository.NewSQLitePendingActionRepository(db),
		nil, nil, 0)
	h := NewSyncHandler(syncService)

	req := httptest.NewRequest("GET", "/api/v1/sync/admin/pull", nil)
	w := httptest.NewRecorder()
	h.AdminPull(w, asAdmin(req))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestSyncHandler_PullRejectsBadCursor(t *testing.T) {
	f := newSyncFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/sync/admin/pull?last_sync_at=yesterday", nil)
	w := httptest.NewRecorder()
	f.syncHandler.AdminPull(w, asAdmin(req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalHandler_FullFlow(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// Seed an item via push so the approval has a live target
	pushBody := `{"items": [{"localId": 101, "name": "Winter Jacket", "totalQuantity": 1}]}`
	req := httptest.NewRequest("POST", "/api/v1/sync/assistant/push", bytes.NewBufferString(pushBody))
	w := httptest.NewRecorder()
	f.syncHandler.Push(w, asAssistant(req))
	require.Equal(t, http.StatusOK, w.Code)

	var pushResult service.PushResult
	decodeData(t, w.Body, &pushResult)
	itemID := pushResult.ItemMappings[0].ServerID

	// Assistant stages an update
	createBody := `{
		"actionType": "UPDATE_ITEM",
		"entityId": "` + itemID + `",
		"oldData": {"totalQuantity": 1},
		"newData": {"quantity": 5}
	}`
	req = httptest.NewRequest("POST", "/api/v1/sync/assistant/pending", bytes.NewBufferString(createBody))
	w = httptest.NewRecorder()
	f.approvalHandler.RequestApproval(w, asAssistant(req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var staged model.PendingAction
	decodeData(t, w.Body, &staged)
	assert.Equal(t, model.StatusPending, staged.Status)

	// Admin sees it in the queue
	req = httptest.NewRequest("GET", "/api/v1/sync/admin/pending", nil)
	w = httptest.NewRecorder()
	f.approvalHandler.PendingActions(w, asAdmin(req))
	require.Equal(t, http.StatusOK, w.Code)

	var queue []model.PendingAction
	decodeData(t, w.Body, &queue)
	require.Len(t, queue, 1)

	// Admin approves
	req = httptest.NewRequest("POST", "/api/v1/sync/admin/pending/"+staged.ID+"/approve",
		bytes.NewBufferString(`{"comment": "ok"}`))
	req = withURLParam(asAdmin(req), "id", staged.ID)
	w = httptest.NewRecorder()
	f.approvalHandler.Approve(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var decided model.PendingAction
	decodeData(t, w.Body, &decided)
	assert.Equal(t, model.StatusApproved, decided.Status)

	// The mutation landed
	item, err := f.items.GetByID(ctx, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.TotalQuantity)
	assert.Equal(t, int64(2), item.Version)

	// A second decision is a conflict
	req = httptest.NewRequest("POST", "/api/v1/sync/admin/pending/"+staged.ID+"/reject", nil)
	req = withURLParam(asAdmin(req), "id", staged.ID)
	w = httptest.NewRecorder()
	f.approvalHandler.Reject(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Assistant sees the decision in its history
	req = httptest.NewRequest("GET", "/api/v1/sync/assistant/pending", nil)
	w = httptest.NewRecorder()
	f.approvalHandler.PendingStatus(w, asAssistant(req))
	require.Equal(t, http.StatusOK, w.Code)

	var history []model.PendingAction
	decodeData(t, w.Body, &history)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusApproved, history[0].Status)
}

func TestApprovalHandler_DecideUnknownAction(t *testing.T) {
	f := newSyncFixture(t)

	req := httptest.NewRequest("POST", "/api/v1/sync/admin/pending/nope/approve", nil)
	req = withURLParam(asAdmin(req), "id", "nope")
	w := httptest.NewRecorder()
	f.approvalHandler.Approve(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
