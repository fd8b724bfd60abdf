package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"warehouse-sync-api/internal/model"
)

const pendingColumns = `id, admin_id, assistant_id, action_type, status, item_id, transaction_id,
	old_data, new_data, reason, admin_comment, notification_sent, notification_sent_at,
	created_at, expires_at, responded_at`

// SQLitePendingActionRepository implements PendingActionRepository using SQLite.
//
// Approve and Reject run the "status still PENDING" guard and, for Approve, the
// staged item/transaction mutation inside one transaction, so a lost race shows
// up as ErrStateConflict and an apply failure leaves the action untouched.
type SQLitePendingActionRepository struct {
	db *sql.DB
}

// NewSQLitePendingActionRepository creates a new SQLite pending action repository.
func NewSQLitePendingActionRepository(db *sql.DB) *SQLitePendingActionRepository {
	return &SQLitePendingActionRepository{db: db}
}

// Create persists a new PENDING action.
func (r *SQLitePendingActionRepository) Create(ctx context.Context, action *model.PendingAction) error {
	query := `
		INSERT INTO pending_actions (` + pendingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		action.ID, action.AdminID, action.AssistantID, action.ActionType, action.Status,
		action.ItemID, action.TransactionID, string(action.OldData), string(action.NewData),
		action.Reason, action.AdminComment, action.NotificationSent, action.NotificationSentAt,
		action.CreatedAt, action.ExpiresAt, action.RespondedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pending action: %w", err)
	}
	return nil
}

// GetForAdmin retrieves an action scoped to its admin.
func (r *SQLitePendingActionRepository) GetForAdmin(ctx context.Context, id string, adminID int64) (*model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions WHERE id = ? AND admin_id = ?`

	action, err := scanPendingAction(r.db.QueryRowContext(ctx, query, id, adminID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending action: %w", err)
	}
	return action, nil
}

// ListPendingForAdmin returns PENDING actions for an admin, newest first.
func (r *SQLitePendingActionRepository) ListPendingForAdmin(ctx context.Context, adminID int64) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE admin_id = ? AND status = 'PENDING'
		ORDER BY created_at DESC, id DESC`
	return r.queryActions(ctx, query, adminID)
}

// ListForAssistant returns PENDING/APPROVED/REJECTED actions, newest first.
func (r *SQLitePendingActionRepository) ListForAssistant(ctx context.Context, assistantID int64) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE assistant_id = ? AND status IN ('PENDING', 'APPROVED', 'REJECTED')
		ORDER BY created_at DESC, id DESC`
	return r.queryActions(ctx, query, assistantID)
}

// ListApprovedSince returns APPROVED actions responded strictly after since.
func (r *SQLitePendingActionRepository) ListApprovedSince(ctx context.Context, assistantID int64, since time.Time) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE assistant_id = ? AND status = 'APPROVED' AND responded_at > ?
		ORDER BY responded_at ASC, id ASC`
	return r.queryActions(ctx, query, assistantID, since)
}

// Approve transitions PENDING -> APPROVED and applies the staged mutation.
func (r *SQLitePendingActionRepository) Approve(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	action, err := scanPendingAction(tx.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_actions WHERE id = ? AND admin_id = ?`, id, adminID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pending action: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'APPROVED', admin_comment = ?, responded_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		comment, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to approve pending action: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrStateConflict
	}

	if err := applyActionSQLite(ctx, tx, action, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	action.Status = model.StatusApproved
	action.AdminComment = comment
	action.RespondedAt = &now
	return action, nil
}

// Reject transitions PENDING -> REJECTED without applying the mutation.
func (r *SQLitePendingActionRepository) Reject(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	action, err := r.GetForAdmin(ctx, id, adminID)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'REJECTED', admin_comment = ?, responded_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		comment, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reject pending action: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrStateConflict
	}

	action.Status = model.StatusRejected
	action.AdminComment = comment
	action.RespondedAt = &now
	return action, nil
}

// ExpireDue transitions every overdue PENDING action to EXPIRED.
func (r *SQLitePendingActionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'EXPIRED', responded_at = ?
		WHERE status = 'PENDING' AND expires_at < ?`,
		now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending actions: %w", err)
	}
	return res.RowsAffected()
}

// MarkNotificationSent records that the creation notification went out.
func (r *SQLitePendingActionRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions SET notification_sent = 1, notification_sent_at = ? WHERE id = ?`,
		at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// CountByStatus returns row counts per status.
func (r *SQLitePendingActionRepository) CountByStatus(ctx context.Context) (map[model.PendingActionStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM pending_actions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.PendingActionStatus]int64)
	for rows.Next() {
		var status model.PendingActionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *SQLitePendingActionRepository) queryActions(ctx context.Context, query string, args ...any) ([]model.PendingAction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}
	defer rows.Close()

	actions := make([]model.PendingAction, 0)
	for rows.Next() {
		action, err := scanPendingAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending action: %w", err)
		}
		actions = append(actions, *action)
	}
	return actions, rows.Err()
}

func scanPendingAction(row rowScanner) (*model.PendingAction, error) {
	var action model.PendingAction
	var oldData, newData string
	err := row.Scan(
		&action.ID, &action.AdminID, &action.AssistantID, &action.ActionType, &action.Status,
		&action.ItemID, &action.TransactionID, &oldData, &newData,
		&action.Reason, &action.AdminComment, &action.NotificationSent, &action.NotificationSentAt,
		&action.CreatedAt, &action.ExpiresAt, &action.RespondedAt)
	if err != nil {
		return nil, err
	}
	action.OldData = []byte(oldData)
	action.NewData = []byte(newData)
	return &action, nil
}

// applyActionSQLite applies the staged mutation inside the approval transaction.
// UPDATE_ITEM merges the payload fields and bumps version by exactly 1; deletes
// set the one-way is_deleted flag. A missing target aborts the whole approval.
func applyActionSQLite(ctx context.Context, tx *sql.Tx, action *model.PendingAction, now time.Time) error {
	switch action.ActionType {
	case model.ActionUpdateItem:
		if action.ItemID == nil {
			return fmt.Errorf("%w: UPDATE_ITEM action has no item id", ErrNotFound)
		}
		payload, err := model.DecodeUpdateItemPayload(action.NewData)
		if err != nil {
			return err
		}

		setClauses, args := itemUpdateClauses(payload, "?")
		setClauses = append(setClauses, "version = version + 1", "updated_at = ?")
		args = append(args, now, *action.ItemID, action.AdminID)

		query := "UPDATE items SET " + strings.Join(setClauses, ", ") +
			" WHERE id = ? AND admin_id = ? AND is_deleted = 0"
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to apply item update: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: item %s", ErrNotFound, *action.ItemID)
		}
		return nil

	case model.ActionDeleteItem:
		if action.ItemID == nil {
			return fmt.Errorf("%w: DELETE_ITEM action has no item id", ErrNotFound)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE items SET is_deleted = 1, updated_at = ? WHERE id = ? AND admin_id = ?`,
			now, *action.ItemID, action.AdminID)
		if err != nil {
			return fmt.Errorf("failed to apply item delete: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: item %s", ErrNotFound, *action.ItemID)
		}
		return nil

	case model.ActionDeleteTransaction:
		if action.TransactionID == nil {
			return fmt.Errorf("%w: DELETE_TRANSACTION action has no transaction id", ErrNotFound)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions SET is_deleted = 1 WHERE id = ? AND admin_id = ?`,
			*action.TransactionID, action.AdminID)
		if err != nil {
			return fmt.Errorf("failed to apply transaction delete: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: transaction %s", ErrNotFound, *action.TransactionID)
		}
		return nil

	default:
		return fmt.Errorf("unknown action type %q", action.ActionType)
	}
}

// itemUpdateClauses builds SET clauses for the non-nil payload fields.
// placeholder is "?" for sqlite/mysql style; postgres callers rewrite afterwards.
func itemUpdateClauses(p *model.UpdateItemPayload, placeholder string) ([]string, []any) {
	clauses := make([]string, 0, 8)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		clauses = append(clauses, column+" = "+placeholder)
		args = append(args, value)
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Code != nil {
		add("code", *p.Code)
	}
	if p.Warehouse != nil {
		add("warehouse", *p.Warehouse)
	}
	if p.NumberOfBoxes != nil {
		add("number_of_boxes", *p.NumberOfBoxes)
	}
	if p.BoxSizeQuantities != nil {
		add("box_size_quantities", *p.BoxSizeQuantities)
	}
	if p.SizeType != nil {
		add("size_type", *p.SizeType)
	}
	if p.ItemType != nil {
		add("item_type", *p.ItemType)
	}
	if p.Row != nil {
		add(`"row"`, *p.Row)
	}
	if p.Position != nil {
		add(`"position"`, *p.Position)
	}
	if p.Side != nil {
		add("side", *p.Side)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	if p.TotalQuantity != nil {
		add("total_quantity", *p.TotalQuantity)
	} else if p.Quantity != nil {
		add("total_quantity", *p.Quantity)
	}
	if p.TotalValue != nil {
		add("total_value", *p.TotalValue)
	}
	if p.QRCodeType != nil {
		add("qr_code_type", *p.QRCodeType)
	}
	if p.QRCodes != nil {
		add("qr_codes", *p.QRCodes)
	}

	return clauses, args
}

// Ensure SQLitePendingActionRepository implements PendingActionRepository
var _ PendingActionRepository = (*SQLitePendingActionRepository)(nil)
