package model

import (
	"encoding/json"
	"time"
)

// PendingActionType identifies the staged mutation kind.
type PendingActionType string

const (
	ActionUpdateItem        PendingActionType = "UPDATE_ITEM"
	ActionDeleteItem        PendingActionType = "DELETE_ITEM"
	ActionDeleteTransaction PendingActionType = "DELETE_TRANSACTION"
)

// Valid reports whether t is a known action type.
func (t PendingActionType) Valid() bool {
	switch t {
	case ActionUpdateItem, ActionDeleteItem, ActionDeleteTransaction:
		return true
	}
	return false
}

// PendingActionStatus is the approval state of a staged mutation.
type PendingActionStatus string

const (
	StatusPending  PendingActionStatus = "PENDING"
	StatusApproved PendingActionStatus = "APPROVED"
	StatusRejected PendingActionStatus = "REJECTED"
	StatusExpired  PendingActionStatus = "EXPIRED"
)

// PendingActionTTL is how long an unanswered request stays actionable.
const PendingActionTTL = 24 * time.Hour

// PendingAction is a staged, approval-gated mutation request.
// PENDING is the only non-terminal status; any transition out of it is
// irreversible and happens at most once.
type PendingAction struct {
	ID                 string              `json:"id"`
	AdminID            int64               `json:"adminId"`
	AssistantID        int64               `json:"assistantId"`
	ActionType         PendingActionType   `json:"actionType"`
	Status             PendingActionStatus `json:"status"`
	ItemID             *string             `json:"itemId,omitempty"`
	TransactionID      *string             `json:"transactionId,omitempty"`
	OldData            json.RawMessage     `json:"oldData"`
	NewData            json.RawMessage     `json:"newData"`
	Reason             *string             `json:"reason,omitempty"`
	AdminComment       *string             `json:"adminComment,omitempty"`
	NotificationSent   bool                `json:"notificationSent"`
	NotificationSentAt *time.Time          `json:"notificationSentAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	ExpiresAt          time.Time           `json:"expiresAt"`
	RespondedAt        *time.Time          `json:"respondedAt,omitempty"`
}

// EntityID returns whichever of ItemID/TransactionID is populated.
func (a *PendingAction) EntityID() string {
	if a.ItemID != nil {
		return *a.ItemID
	}
	if a.TransactionID != nil {
		return *a.TransactionID
	}
	return ""
}
