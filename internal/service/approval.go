package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"warehouse-sync-api/internal/model"
	"warehouse-sync-api/internal/notify"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/pkg/uid"
)

// CreateApprovalInput is an assistant's request to stage a gated mutation.
type CreateApprovalInput struct {
	ActionType model.PendingActionType `json:"actionType"`
	EntityID   string                  `json:"entityId"`
	OldData    json.RawMessage         `json:"oldData"`
	NewData    json.RawMessage         `json:"newData,omitempty"`
	Reason     *string                 `json:"reason,omitempty"`
}

// ApprovalService owns the pending-action state machine. All terminal
// transitions go through the repository's conditional-update guard, so
// concurrent approve/reject/expire races produce exactly one winner.
type ApprovalService struct {
	pending    repository.PendingActionRepository
	dispatcher notify.Dispatcher
}

// NewApprovalService creates a new approval service.
func NewApprovalService(pending repository.PendingActionRepository, dispatcher notify.Dispatcher) *ApprovalService {
	if dispatcher == nil {
		dispatcher = notify.NoopDispatcher{}
	}
	return &ApprovalService{pending: pending, dispatcher: dispatcher}
}

// Create stages a new PENDING action expiring in 24 hours and notifies the
// admin. Notification failure never fails the create.
func (s *ApprovalService) Create(ctx context.Context, adminID, assistantID int64, input CreateApprovalInput) (*model.PendingAction, error) {
	if !input.ActionType.Valid() {
		return nil, validationErr("actionType", "unknown action type")
	}
	if input.EntityID == "" {
		return nil, validationErr("entityId", "entityId is required")
	}
	if err := model.ValidateActionData(input.ActionType, input.OldData, input.NewData); err != nil {
		return nil, &ValidationError{Field: "newData", Message: err.Error()}
	}

	now := time.Now().UTC()
	action := &model.PendingAction{
		ID:          uid.New(),
		AdminID:     adminID,
		AssistantID: assistantID,
		ActionType:  input.ActionType,
		Status:      model.StatusPending,
		OldData:     input.OldData,
		NewData:     normalizeNewData(input.NewData),
		Reason:      input.Reason,
		CreatedAt:   now,
		ExpiresAt:   now.Add(model.PendingActionTTL),
	}
	if input.ActionType == model.ActionDeleteTransaction {
		action.TransactionID = &input.EntityID
	} else {
		action.ItemID = &input.EntityID
	}

	if err := s.pending.Create(ctx, action); err != nil {
		return nil, err
	}

	if err := s.dispatcher.NotifyPendingCreated(ctx, adminID, action); err != nil {
		log.Printf("[ApprovalService] Failed to notify admin %d about action %s: %v", adminID, action.ID, err)
	} else if err := s.pending.MarkNotificationSent(ctx, action.ID, time.Now().UTC()); err != nil {
		log.Printf("[ApprovalService] Failed to mark notification sent for %s: %v", action.ID, err)
	} else {
		action.NotificationSent = true
	}

	return action, nil
}

// Approve transitions the action to APPROVED and applies the staged mutation
// as one unit of work, then notifies the assistant best-effort.
func (s *ApprovalService) Approve(ctx context.Context, adminID int64, actionID string, comment *string) (*model.PendingAction, error) {
	action, err := s.pending.Approve(ctx, actionID, adminID, comment, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.NotifyApproved(ctx, action.AssistantID, action); err != nil {
		log.Printf("[ApprovalService] Failed to notify assistant %d about approval of %s: %v", action.AssistantID, action.ID, err)
	}
	return action, nil
}

// Reject transitions the action to REJECTED without applying anything, then
// notifies the assistant best-effort.
func (s *ApprovalService) Reject(ctx context.Context, adminID int64, actionID string, comment *string) (*model.PendingAction, error) {
	action, err := s.pending.Reject(ctx, actionID, adminID, comment, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.NotifyRejected(ctx, action.AssistantID, action); err != nil {
		log.Printf("[ApprovalService] Failed to notify assistant %d about rejection of %s: %v", action.AssistantID, action.ID, err)
	}
	return action, nil
}

// ListPendingForAdmin returns the admin's open approval queue.
func (s *ApprovalService) ListPendingForAdmin(ctx context.Context, adminID int64) ([]model.PendingAction, error) {
	return s.pending.ListPendingForAdmin(ctx, adminID)
}

// ListForAssistant returns the assistant's request history (EXPIRED omitted).
func (s *ApprovalService) ListForAssistant(ctx context.Context, assistantID int64) ([]model.PendingAction, error) {
	return s.pending.ListForAssistant(ctx, assistantID)
}

// normalizeNewData keeps the stored column NOT NULL friendly.
func normalizeNewData(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("{}")
	}
	return data
}
