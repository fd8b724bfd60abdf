package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
)

// In-memory doubles for the repository and dispatcher contracts. The SQL
// implementations have their own tests; these only need to be faithful to the
// interface semantics the services rely on.

type fakeItemRepo struct {
	mu      sync.Mutex
	items   []model.Item
	failure error
}

func (f *fakeItemRepo) Create(ctx context.Context, item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return f.failure
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeItemRepo) GetByID(ctx context.Context, id string, adminID int64) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].AdminID == adminID {
			item := f.items[i]
			return &item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeItemRepo) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Item, 0)
	for _, item := range f.items {
		if item.AdminID == adminID && !item.IsDeleted && item.UpdatedAt.After(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

type fakeTransactionRepo struct {
	mu      sync.Mutex
	txs     []model.Transaction
	failure error
}

func (f *fakeTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return f.failure
	}
	f.txs = append(f.txs, *tx)
	return nil
}

func (f *fakeTransactionRepo) GetByID(ctx context.Context, id string, adminID int64) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txs {
		if f.txs[i].ID == id && f.txs[i].AdminID == adminID {
			tx := f.txs[i]
			return &tx, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTransactionRepo) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Transaction, 0)
	for _, tx := range f.txs {
		if tx.AdminID == adminID && !tx.IsDeleted && tx.CreatedAt.After(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.txs)), nil
}

type fakePendingRepo struct {
	mu               sync.Mutex
	actions          map[string]*model.PendingAction
	createFailure    error
	markSentFailure  error
	markSentCalls    int
	expireDueReturns int64
	expireDueFailure error
	expireDueCalls   int
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{actions: make(map[string]*model.PendingAction)}
}

func (f *fakePendingRepo) Create(ctx context.Context, action *model.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFailure != nil {
		return f.createFailure
	}
	copied := *action
	f.actions[action.ID] = &copied
	return nil
}

func (f *fakePendingRepo) GetForAdmin(ctx context.Context, id string, adminID int64) (*model.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	action, ok := f.actions[id]
	if !ok || action.AdminID != adminID {
		return nil, repository.ErrNotFound
	}
	copied := *action
	return &copied, nil
}

func (f *fakePendingRepo) ListPendingForAdmin(ctx context.Context, adminID int64) ([]model.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PendingAction, 0)
	for _, action := range f.actions {
		if action.AdminID == adminID && action.Status == model.StatusPending {
			out = append(out, *action)
		}
	}
	return out, nil
}

func (f *fakePendingRepo) ListForAssistant(ctx context.Context, assistantID int64) ([]model.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PendingAction, 0)
	for _, action := range f.actions {
		if action.AssistantID == assistantID && action.Status != model.StatusExpired {
			out = append(out, *action)
		}
	}
	return out, nil
}

func (f *fakePendingRepo) ListApprovedSince(ctx context.Context, assistantID int64, since time.Time) ([]model.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PendingAction, 0)
	for _, action := range f.actions {
		if action.AssistantID == assistantID && action.Status == model.StatusApproved &&
			action.RespondedAt != nil && action.RespondedAt.After(since) {
			out = append(out, *action)
		}
	}
	return out, nil
}

func (f *fakePendingRepo) transition(id string, adminID int64, to model.PendingActionStatus, comment *string, now time.Time) (*model.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	action, ok := f.actions[id]
	if !ok || action.AdminID != adminID {
		return nil, repository.ErrNotFound
	}
	if action.Status != model.StatusPending {
		return nil, repository.ErrStateConflict
	}
	action.Status = to
	action.AdminComment = comment
	action.RespondedAt = &now
	copied := *action
	return &copied, nil
}

func (f *fakePendingRepo) Approve(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	return f.transition(id, adminID, model.StatusApproved, comment, now)
}

func (f *fakePendingRepo) Reject(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	return f.transition(id, adminID, model.StatusRejected, comment, now)
}

func (f *fakePendingRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireDueCalls++
	if f.expireDueFailure != nil {
		return 0, f.expireDueFailure
	}
	if f.expireDueReturns > 0 {
		return f.expireDueReturns, nil
	}
	var expired int64
	for _, action := range f.actions {
		if action.Status == model.StatusPending && action.ExpiresAt.Before(now) {
			action.Status = model.StatusExpired
			at := now
			action.RespondedAt = &at
			expired++
		}
	}
	return expired, nil
}

func (f *fakePendingRepo) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markSentCalls++
	if f.markSentFailure != nil {
		return f.markSentFailure
	}
	if action, ok := f.actions[id]; ok {
		action.NotificationSent = true
		action.NotificationSentAt = &at
	}
	return nil
}

func (f *fakePendingRepo) CountByStatus(ctx context.Context) (map[model.PendingActionStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[model.PendingActionStatus]int64)
	for _, action := range f.actions {
		counts[action.Status]++
	}
	return counts, nil
}

type fakeActorRepo struct {
	mu         sync.Mutex
	admins     map[int64]*model.Actor
	assistants map[int64]*model.Actor
	lookups    int
}

func newFakeActorRepo() *fakeActorRepo {
	return &fakeActorRepo{
		admins:     make(map[int64]*model.Actor),
		assistants: make(map[int64]*model.Actor),
	}
}

func (f *fakeActorRepo) addAdmin(id int64) {
	f.admins[id] = &model.Actor{ID: id, Role: model.RoleAdmin, AdminID: id, IsActive: true}
}

func (f *fakeActorRepo) addAssistant(id, adminID int64) {
	f.assistants[id] = &model.Actor{ID: id, Role: model.RoleAssistant, AdminID: adminID, IsActive: true}
}

func (f *fakeActorRepo) GetAdmin(ctx context.Context, id int64) (*model.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if actor, ok := f.admins[id]; ok {
		copied := *actor
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeActorRepo) GetAssistant(ctx context.Context, id int64) (*model.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if actor, ok := f.assistants[id]; ok {
		copied := *actor
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeActorRepo) ValidateCredentials(ctx context.Context, login, password string, role model.Role) (*model.Actor, error) {
	return nil, errors.New("not implemented")
}

type fakeDispatcher struct {
	mu             sync.Mutex
	failure        error
	createdCalls   int
	approvedCalls  int
	rejectedCalls  int
	lastActionID   string
	lastRecipient  int64
}

func (f *fakeDispatcher) NotifyPendingCreated(ctx context.Context, adminID int64, action *model.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdCalls++
	f.lastActionID = action.ID
	f.lastRecipient = adminID
	return f.failure
}

func (f *fakeDispatcher) NotifyApproved(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvedCalls++
	f.lastActionID = action.ID
	f.lastRecipient = assistantID
	return f.failure
}

func (f *fakeDispatcher) NotifyRejected(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectedCalls++
	f.lastActionID = action.ID
	f.lastRecipient = assistantID
	return f.failure
}

var (
	_ repository.ItemRepository          = (*fakeItemRepo)(nil)
	_ repository.TransactionRepository   = (*fakeTransactionRepo)(nil)
	_ repository.PendingActionRepository = (*fakePendingRepo)(nil)
	_ repository.ActorRepository         = (*fakeActorRepo)(nil)
)
