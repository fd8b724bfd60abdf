package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-sync-api/internal/cache"
	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/pkg/uid"
)

func newSyncFixture() (*SyncService, *fakeItemRepo, *fakeTransactionRepo, *fakePendingRepo, *fakeActorRepo) {
	items := &fakeItemRepo{}
	txs := &fakeTransactionRepo{}
	pending := newFakePendingRepo()
	actors := newFakeActorRepo()
	svc := NewSyncService(items, txs, pending, actors, nil, 0)
	return svc, items, txs, pending, actors
}

func TestSyncService_PushMapsEveryElement(t *testing.T) {
	ctx := context.Background()
	svc, items, txs, _, _ := newSyncFixture()

	result, err := svc.Push(ctx, 1, 10,
		[]PushItemInput{
			{LocalID: 101, Name: "Winter Jacket", TotalQuantity: 3},
			{LocalID: 102, Name: "Running Shoes", TotalQuantity: 7},
		},
		[]PushTransactionInput{
			{LocalID: 201, Action: "add", ItemName: "Winter Jacket", Timestamp: time.Now().UnixMilli()},
		})
	require.NoError(t, err)

	// Mappings come back in input order with fresh server ids
	require.Len(t, result.ItemMappings, 2)
	assert.Equal(t, int64(101), result.ItemMappings[0].LocalID)
	assert.Equal(t, int64(102), result.ItemMappings[1].LocalID)
	assert.True(t, uid.IsValid(result.ItemMappings[0].ServerID))
	assert.NotEqual(t, result.ItemMappings[0].ServerID, result.ItemMappings[1].ServerID)

	require.Len(t, result.TransactionMappings, 1)
	assert.Equal(t, int64(201), result.TransactionMappings[0].LocalID)

	// Rows are persisted under the owning admin at version 1
	require.Len(t, items.items, 2)
	assert.Equal(t, int64(1), items.items[0].AdminID)
	assert.Equal(t, int64(1), items.items[0].Version)
	require.Len(t, txs.txs, 1)
	assert.Equal(t, int64(1), txs.txs[0].AdminID)
}

func TestSyncService_PushRetryCreatesDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, items, _, _, _ := newSyncFixture()

	batch := []PushItemInput{{LocalID: 101, Name: "Winter Jacket"}}

	first, err := svc.Push(ctx, 1, 10, batch, nil)
	require.NoError(t, err)
	second, err := svc.Push(ctx, 1, 10, batch, nil)
	require.NoError(t, err)

	// No dedup on localId: a blind retry mints a second identity
	assert.NotEqual(t, first.ItemMappings[0].ServerID, second.ItemMappings[0].ServerID)
	assert.Len(t, items.items, 2)
}

func TestSyncService_PushValidatesBeforePersisting(t *testing.T) {
	ctx := context.Background()
	svc, items, txs, _, _ := newSyncFixture()

	_, err := svc.Push(ctx, 1, 10,
		[]PushItemInput{{LocalID: 101, Name: "Winter Jacket"}},
		[]PushTransactionInput{{LocalID: 201, Action: "add", ItemName: ""}})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "transactions[0].itemName", vErr.Field)

	// Whole-batch validation runs before any create
	assert.Empty(t, items.items)
	assert.Empty(t, txs.txs)
}

func TestSyncService_PullDefaultsToEpoch(t *testing.T) {
	ctx := context.Background()
	svc, items, _, _, actors := newSyncFixture()
	actors.addAdmin(1)

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	items.items = append(items.items, model.Item{ID: uid.New(), AdminID: 1, Name: "ancient", UpdatedAt: old})

	result, err := svc.Pull(ctx, 1, model.RoleAdmin, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Empty(t, result.ApprovedActions, "admins get no approved-actions feed")
	assert.WithinDuration(t, time.Now().UTC(), result.LastSyncAt, 2*time.Second)
}

func TestSyncService_PullAssistantGetsApprovedActions(t *testing.T) {
	ctx := context.Background()
	svc, items, _, pending, actors := newSyncFixture()
	actors.addAdmin(1)
	actors.addAssistant(10, 1)

	now := time.Now().UTC()
	items.items = append(items.items, model.Item{ID: uid.New(), AdminID: 1, Name: "shared", UpdatedAt: now})

	respondedAt := now.Add(-time.Minute)
	action := &model.PendingAction{
		ID:          uid.New(),
		AdminID:     1,
		AssistantID: 10,
		ActionType:  model.ActionDeleteItem,
		Status:      model.StatusApproved,
		RespondedAt: &respondedAt,
	}
	pending.actions[action.ID] = action

	since := now.Add(-time.Hour)
	result, err := svc.Pull(ctx, 10, model.RoleAssistant, &since)
	require.NoError(t, err)

	// The assistant sees the admin's data set plus its own approved actions
	require.Len(t, result.Items, 1)
	require.Len(t, result.ApprovedActions, 1)
	assert.Equal(t, action.ID, result.ApprovedActions[0].ID)

	// An action responded before the cursor is not replayed
	cursor := result.LastSyncAt
	result, err = svc.Pull(ctx, 10, model.RoleAssistant, &cursor)
	require.NoError(t, err)
	assert.Empty(t, result.ApprovedActions)
	assert.Empty(t, result.Items)
}

func TestSyncService_PullCursorNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, actors := newSyncFixture()
	actors.addAdmin(1)

	future := time.Now().UTC().Add(time.Hour)
	result, err := svc.Pull(ctx, 1, model.RoleAdmin, &future)
	require.NoError(t, err)
	assert.False(t, result.LastSyncAt.Before(future))
}

func TestSyncService_PullWithoutAccountsStore(t *testing.T) {
	ctx := context.Background()

	// main wires a nil accounts repo when MySQL is down at startup
	svc := NewSyncService(&fakeItemRepo{}, &fakeTransactionRepo{}, newFakePendingRepo(), nil, nil, 0)

	_, err := svc.Pull(ctx, 1, model.RoleAdmin, nil)
	assert.ErrorIs(t, err, ErrAccountsUnavailable)

	_, err = svc.Pull(ctx, 10, model.RoleAssistant, nil)
	assert.ErrorIs(t, err, ErrAccountsUnavailable)
}

func TestSyncService_PullUnknownActor(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newSyncFixture()

	_, err := svc.Pull(ctx, 42, model.RoleAdmin, nil)
	assert.Error(t, err)
}

func TestSyncService_PullCachesActorResolution(t *testing.T) {
	ctx := context.Background()
	items := &fakeItemRepo{}
	txs := &fakeTransactionRepo{}
	pending := newFakePendingRepo()
	actors := newFakeActorRepo()
	actors.addAssistant(10, 1)

	c := cache.NewMemoryCache()
	defer c.Close()
	svc := NewSyncService(items, txs, pending, actors, c, time.Minute)

	_, err := svc.Pull(ctx, 10, model.RoleAssistant, nil)
	require.NoError(t, err)
	_, err = svc.Pull(ctx, 10, model.RoleAssistant, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, actors.lookups, "second pull resolves from cache")
}
