package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/pkg/uid"
)

func validUpdateInput(entityID string) CreateApprovalInput {
	return CreateApprovalInput{
		ActionType: model.ActionUpdateItem,
		EntityID:   entityID,
		OldData:    json.RawMessage(`{"totalQuantity":1}`),
		NewData:    json.RawMessage(`{"quantity":5}`),
	}
}

func TestApprovalService_Create(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewApprovalService(pending, dispatcher)

	itemID := uid.New()
	before := time.Now().UTC()
	action, err := svc.Create(ctx, 1, 10, validUpdateInput(itemID))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, action.Status)
	require.NotNil(t, action.ItemID)
	assert.Equal(t, itemID, *action.ItemID)
	assert.Nil(t, action.TransactionID)
	assert.WithinDuration(t, before.Add(model.PendingActionTTL), action.ExpiresAt, 2*time.Second)

	// Admin was notified about this action and the flag recorded
	assert.Equal(t, 1, dispatcher.createdCalls)
	assert.Equal(t, int64(1), dispatcher.lastRecipient)
	assert.Equal(t, action.ID, dispatcher.lastActionID)
	assert.True(t, action.NotificationSent)
	assert.Equal(t, 1, pending.markSentCalls)
}

func TestApprovalService_CreateSurvivesDispatchFailure(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	dispatcher := &fakeDispatcher{failure: errors.New("push gateway down")}
	svc := NewApprovalService(pending, dispatcher)

	action, err := svc.Create(ctx, 1, 10, validUpdateInput(uid.New()))
	require.NoError(t, err, "notification failure must not fail the create")

	assert.False(t, action.NotificationSent)
	assert.Zero(t, pending.markSentCalls)

	// The action is still staged and visible to the admin
	stored, err := pending.GetForAdmin(ctx, action.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestApprovalService_CreateDeleteTransactionTargetsTransaction(t *testing.T) {
	ctx := context.Background()
	svc := NewApprovalService(newFakePendingRepo(), &fakeDispatcher{})

	txID := uid.New()
	action, err := svc.Create(ctx, 1, 10, CreateApprovalInput{
		ActionType: model.ActionDeleteTransaction,
		EntityID:   txID,
		OldData:    json.RawMessage(`{"action":"add"}`),
	})
	require.NoError(t, err)

	require.NotNil(t, action.TransactionID)
	assert.Equal(t, txID, *action.TransactionID)
	assert.Nil(t, action.ItemID)
	assert.JSONEq(t, `{}`, string(action.NewData))
}

func TestApprovalService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	svc := NewApprovalService(pending, &fakeDispatcher{})

	tests := []struct {
		name  string
		input CreateApprovalInput
	}{
		{"unknown action type", CreateApprovalInput{
			ActionType: "RENAME_ITEM",
			EntityID:   uid.New(),
			OldData:    json.RawMessage(`{}`),
		}},
		{"missing entity id", CreateApprovalInput{
			ActionType: model.ActionDeleteItem,
			OldData:    json.RawMessage(`{}`),
		}},
		{"update without payload", CreateApprovalInput{
			ActionType: model.ActionUpdateItem,
			EntityID:   uid.New(),
			OldData:    json.RawMessage(`{}`),
		}},
		{"delete with payload", CreateApprovalInput{
			ActionType: model.ActionDeleteItem,
			EntityID:   uid.New(),
			OldData:    json.RawMessage(`{}`),
			NewData:    json.RawMessage(`{"quantity":5}`),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, 10, tt.input)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
	assert.Empty(t, pending.actions, "invalid input stages nothing")
}

func TestApprovalService_ApproveNotifiesAssistant(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewApprovalService(pending, dispatcher)

	staged, err := svc.Create(ctx, 1, 10, validUpdateInput(uid.New()))
	require.NoError(t, err)

	comment := "go ahead"
	action, err := svc.Approve(ctx, 1, staged.ID, &comment)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, action.Status)
	assert.Equal(t, 1, dispatcher.approvedCalls)
	assert.Equal(t, int64(10), dispatcher.lastRecipient)
	assert.Equal(t, staged.ID, dispatcher.lastActionID)
}

func TestApprovalService_ApproveSurvivesDispatchFailure(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewApprovalService(pending, dispatcher)

	staged, err := svc.Create(ctx, 1, 10, validUpdateInput(uid.New()))
	require.NoError(t, err)

	dispatcher.failure = errors.New("push gateway down")
	action, err := svc.Approve(ctx, 1, staged.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, action.Status)
}

func TestApprovalService_RejectPropagatesConflicts(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewApprovalService(pending, dispatcher)

	staged, err := svc.Create(ctx, 1, 10, validUpdateInput(uid.New()))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, 1, staged.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.rejectedCalls)

	// Terminal states cannot be re-decided
	_, err = svc.Approve(ctx, 1, staged.ID, nil)
	assert.ErrorIs(t, err, repository.ErrStateConflict)

	// Unknown ids surface as not found
	_, err = svc.Reject(ctx, 1, uid.New(), nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApprovalService_Listings(t *testing.T) {
	ctx := context.Background()
	pending := newFakePendingRepo()
	svc := NewApprovalService(pending, nil)

	staged, err := svc.Create(ctx, 1, 10, validUpdateInput(uid.New()))
	require.NoError(t, err)

	open, err := svc.ListPendingForAdmin(ctx, 1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, staged.ID, open[0].ID)

	history, err := svc.ListForAssistant(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Expired actions drop out of the assistant view
	pending.actions[staged.ID].Status = model.StatusExpired
	history, err = svc.ListForAssistant(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
