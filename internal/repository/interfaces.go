package repository

import (
	"context"
	"errors"
	"time"

	"warehouse-sync-api/internal/model"
)

var (
	// ErrNotFound indicates the record does not exist or is not owned by the caller.
	ErrNotFound = errors.New("record not found")

	// ErrStateConflict indicates a pending action was no longer PENDING when a
	// terminal transition was attempted. Expected outcome of a lost race.
	ErrStateConflict = errors.New("pending action is not in pending state")
)

// ItemRepository defines item data access methods.
type ItemRepository interface {
	// Create persists a new item.
	Create(ctx context.Context, item *model.Item) error

	// GetByID retrieves an item scoped to its owning admin.
	GetByID(ctx context.Context, id string, adminID int64) (*model.Item, error)

	// ListChangedSince returns non-deleted items owned by adminID with
	// updatedAt strictly after since, ordered by updatedAt then id.
	ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Item, error)

	// Count returns the total number of item rows.
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository defines transaction data access methods.
type TransactionRepository interface {
	// Create persists a new transaction.
	Create(ctx context.Context, tx *model.Transaction) error

	// GetByID retrieves a transaction scoped to its owning admin.
	GetByID(ctx context.Context, id string, adminID int64) (*model.Transaction, error)

	// ListChangedSince returns non-deleted transactions owned by adminID with
	// createdAt strictly after since, ordered by createdAt then id.
	ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Transaction, error)

	// Count returns the total number of transaction rows.
	Count(ctx context.Context) (int64, error)
}

// PendingActionRepository defines pending action data access methods.
// Approve, Reject and ExpireDue all use the same conditional-update guard
// ("status still PENDING") so at most one terminal transition ever wins.
type PendingActionRepository interface {
	// Create persists a new PENDING action.
	Create(ctx context.Context, action *model.PendingAction) error

	// GetForAdmin retrieves an action scoped to its admin.
	GetForAdmin(ctx context.Context, id string, adminID int64) (*model.PendingAction, error)

	// ListPendingForAdmin returns PENDING actions for an admin, newest first.
	ListPendingForAdmin(ctx context.Context, adminID int64) ([]model.PendingAction, error)

	// ListForAssistant returns PENDING/APPROVED/REJECTED actions for an
	// assistant, newest first. EXPIRED is omitted.
	ListForAssistant(ctx context.Context, assistantID int64) ([]model.PendingAction, error)

	// ListApprovedSince returns APPROVED actions of an assistant responded
	// strictly after since.
	ListApprovedSince(ctx context.Context, assistantID int64, since time.Time) ([]model.PendingAction, error)

	// Approve transitions PENDING -> APPROVED and applies the staged mutation
	// in the same unit of work. Returns ErrNotFound if the action does not
	// exist for adminID, ErrStateConflict if it is no longer PENDING. On any
	// apply failure nothing is committed.
	Approve(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error)

	// Reject transitions PENDING -> REJECTED. Same guard discipline as Approve.
	Reject(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error)

	// ExpireDue transitions every PENDING action with expiresAt < now to
	// EXPIRED, returning how many rows changed. Idempotent.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)

	// MarkNotificationSent records that the creation notification went out.
	MarkNotificationSent(ctx context.Context, id string, at time.Time) error

	// CountByStatus returns row counts per status.
	CountByStatus(ctx context.Context) (map[model.PendingActionStatus]int64, error)
}

// ActorRepository defines account lookups against the accounts database.
type ActorRepository interface {
	// GetAdmin resolves an active admin by id.
	GetAdmin(ctx context.Context, id int64) (*model.Actor, error)

	// GetAssistant resolves an active assistant by id, including its owning admin.
	GetAssistant(ctx context.Context, id int64) (*model.Actor, error)

	// ValidateCredentials checks login+password for the given role.
	ValidateCredentials(ctx context.Context, login, password string, role model.Role) (*model.Actor, error)
}
