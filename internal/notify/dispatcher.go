// Package notify implements best-effort push notification dispatch.
// Every call is fire-and-forget from the caller's perspective: failures are
// logged by the caller and never fail the triggering operation.
package notify

import (
	"context"
	"log"

	"warehouse-sync-api/internal/model"
)

// Dispatcher is the notification contract consumed by the sync core.
type Dispatcher interface {
	// NotifyPendingCreated tells the admin a new approval request is waiting.
	NotifyPendingCreated(ctx context.Context, adminID int64, action *model.PendingAction) error

	// NotifyApproved tells the assistant its request was approved.
	NotifyApproved(ctx context.Context, assistantID int64, action *model.PendingAction) error

	// NotifyRejected tells the assistant its request was rejected.
	NotifyRejected(ctx context.Context, assistantID int64, action *model.PendingAction) error
}

// TokenRegistry stores device push tokens per actor.
type TokenRegistry interface {
	// RegisterToken records a device token for the actor.
	RegisterToken(ctx context.Context, actorID int64, role model.Role, token string) error
}

// actionTypeText renders an action type for notification bodies.
func actionTypeText(t model.PendingActionType) string {
	switch t {
	case model.ActionUpdateItem:
		return "update an item"
	case model.ActionDeleteItem:
		return "delete an item"
	case model.ActionDeleteTransaction:
		return "delete a transaction"
	}
	return string(t)
}

// NoopDispatcher is used when no delivery backend is configured.
type NoopDispatcher struct{}

// NotifyPendingCreated logs and drops the notification.
func (NoopDispatcher) NotifyPendingCreated(ctx context.Context, adminID int64, action *model.PendingAction) error {
	log.Printf("[Notify] (noop) pending action %s for admin %d", action.ID, adminID)
	return nil
}

// NotifyApproved logs and drops the notification.
func (NoopDispatcher) NotifyApproved(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	log.Printf("[Notify] (noop) action %s approved, assistant %d", action.ID, assistantID)
	return nil
}

// NotifyRejected logs and drops the notification.
func (NoopDispatcher) NotifyRejected(ctx context.Context, assistantID int64, action *model.PendingAction) error {
	log.Printf("[Notify] (noop) action %s rejected, assistant %d", action.ID, assistantID)
	return nil
}

// RegisterToken drops the token.
func (NoopDispatcher) RegisterToken(ctx context.Context, actorID int64, role model.Role, token string) error {
	return nil
}

var (
	_ Dispatcher    = NoopDispatcher{}
	_ TokenRegistry = NoopDispatcher{}
)
