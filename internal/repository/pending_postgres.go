package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"warehouse-sync-api/internal/model"
)

// PostgresPendingActionRepository implements PendingActionRepository using PostgreSQL.
// Same guard discipline as the SQLite implementation: the status check and the
// staged mutation commit as one transaction.
type PostgresPendingActionRepository struct {
	db *sql.DB
}

// NewPostgresPendingActionRepository creates a new PostgreSQL pending action repository.
func NewPostgresPendingActionRepository(db *sql.DB) *PostgresPendingActionRepository {
	return &PostgresPendingActionRepository{db: db}
}

// Create persists a new PENDING action.
func (r *PostgresPendingActionRepository) Create(ctx context.Context, action *model.PendingAction) error {
	query := `
		INSERT INTO pending_actions (` + pendingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

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
func (r *PostgresPendingActionRepository) GetForAdmin(ctx context.Context, id string, adminID int64) (*model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions WHERE id = $1 AND admin_id = $2`

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
func (r *PostgresPendingActionRepository) ListPendingForAdmin(ctx context.Context, adminID int64) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE admin_id = $1 AND status = 'PENDING'
		ORDER BY created_at DESC, id DESC`
	return r.queryActions(ctx, query, adminID)
}

// ListForAssistant returns PENDING/APPROVED/REJECTED actions, newest first.
func (r *PostgresPendingActionRepository) ListForAssistant(ctx context.Context, assistantID int64) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE assistant_id = $1 AND status IN ('PENDING', 'APPROVED', 'REJECTED')
		ORDER BY created_at DESC, id DESC`
	return r.queryActions(ctx, query, assistantID)
}

// ListApprovedSince returns APPROVED actions responded strictly after since.
func (r *PostgresPendingActionRepository) ListApprovedSince(ctx context.Context, assistantID int64, since time.Time) ([]model.PendingAction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_actions
		WHERE assistant_id = $1 AND status = 'APPROVED' AND responded_at > $2
		ORDER BY responded_at ASC, id ASC`
	return r.queryActions(ctx, query, assistantID, since)
}

// Approve transitions PENDING -> APPROVED and applies the staged mutation.
func (r *PostgresPendingActionRepository) Approve(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	action, err := scanPendingAction(tx.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_actions WHERE id = $1 AND admin_id = $2`, id, adminID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pending action: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'APPROVED', admin_comment = $1, responded_at = $2
		WHERE id = $3 AND status = 'PENDING'`,
		comment, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to approve pending action: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrStateConflict
	}

	if err := applyActionPostgres(ctx, tx, action, now); err != nil {
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
func (r *PostgresPendingActionRepository) Reject(ctx context.Context, id string, adminID int64, comment *string, now time.Time) (*model.PendingAction, error) {
	action, err := r.GetForAdmin(ctx, id, adminID)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'REJECTED', admin_comment = $1, responded_at = $2
		WHERE id = $3 AND status = 'PENDING'`,
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
func (r *PostgresPendingActionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions
		SET status = 'EXPIRED', responded_at = $1
		WHERE status = 'PENDING' AND expires_at < $2`,
		now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending actions: %w", err)
	}
	return res.RowsAffected()
}

// MarkNotificationSent records that the creation notification went out.
func (r *PostgresPendingActionRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_actions SET notification_sent = TRUE, notification_sent_at = $1 WHERE id = $2`,
		at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// CountByStatus returns row counts per status.
func (r *PostgresPendingActionRepository) CountByStatus(ctx context.Context) (map[model.PendingActionStatus]int64, error) {
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

func (r *PostgresPendingActionRepository) queryActions(ctx context.Context, query string, args ...any) ([]model.PendingAction, error) {
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

func applyActionPostgres(ctx context.Context, tx *sql.Tx, action *model.PendingAction, now time.Time) error {
	switch action.ActionType {
	case model.ActionUpdateItem:
		if action.ItemID == nil {
			return fmt.Errorf("%w: UPDATE_ITEM action has no item id", ErrNotFound)
		}
		payload, err := model.DecodeUpdateItemPayload(action.NewData)
		if err != nil {
			return err
		}

		clauses, args := itemUpdateClauses(payload, "?")
		clauses = append(clauses, "version = version + 1", "updated_at = ?")
		args = append(args, now, *action.ItemID, action.AdminID)

		query := "UPDATE items SET " + strings.Join(clauses, ", ") +
			" WHERE id = ? AND admin_id = ? AND is_deleted = FALSE"
		res, err := tx.ExecContext(ctx, numberPlaceholders(query), args...)
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
			UPDATE items SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND admin_id = $3`,
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
			UPDATE transactions SET is_deleted = TRUE WHERE id = $1 AND admin_id = $2`,
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

// numberPlaceholders rewrites "?" placeholders to "$1".."$n" for lib/pq.
func numberPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Ensure PostgresPendingActionRepository implements PendingActionRepository
var _ PendingActionRepository = (*PostgresPendingActionRepository)(nil)
