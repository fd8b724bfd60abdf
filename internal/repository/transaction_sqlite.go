package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"warehouse-sync-api/internal/model"
)

const transactionColumns = `id, admin_id, item_id, action, item_name, "timestamp", details,
	is_deleted, created_at`

// SQLiteTransactionRepository implements TransactionRepository using SQLite.
type SQLiteTransactionRepository struct {
	db *sql.DB
}

// NewSQLiteTransactionRepository creates a new SQLite transaction repository.
func NewSQLiteTransactionRepository(db *sql.DB) *SQLiteTransactionRepository {
	return &SQLiteTransactionRepository{db: db}
}

// Create persists a new transaction.
func (r *SQLiteTransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.AdminID, tx.ItemID, tx.Action, tx.ItemName,
		tx.Timestamp, tx.Details, tx.IsDeleted, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction scoped to its owning admin.
func (r *SQLiteTransactionRepository) GetByID(ctx context.Context, id string, adminID int64) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND admin_id = ?`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, adminID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// ListChangedSince returns non-deleted transactions created strictly after since.
func (r *SQLiteTransactionRepository) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE admin_id = ? AND is_deleted = 0 AND created_at > ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, adminID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]model.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// Count returns the total number of transaction rows.
func (r *SQLiteTransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID, &tx.AdminID, &tx.ItemID, &tx.Action, &tx.ItemName,
		&tx.Timestamp, &tx.Details, &tx.IsDeleted, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Ensure SQLiteTransactionRepository implements TransactionRepository
var _ TransactionRepository = (*SQLiteTransactionRepository)(nil)
