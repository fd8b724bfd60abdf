package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"warehouse-sync-api/internal/model"
)

// PostgresTransactionRepository implements TransactionRepository using PostgreSQL.
type PostgresTransactionRepository struct {
	db *sql.DB
}

// NewPostgresTransactionRepository creates a new PostgreSQL transaction repository.
func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

// Create persists a new transaction.
func (r *PostgresTransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.AdminID, tx.ItemID, tx.Action, tx.ItemName,
		tx.Timestamp, tx.Details, tx.IsDeleted, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction scoped to its owning admin.
func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id string, adminID int64) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND admin_id = $2`

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
func (r *PostgresTransactionRepository) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE admin_id = $1 AND is_deleted = FALSE AND created_at > $2
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
func (r *PostgresTransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

// Ensure PostgresTransactionRepository implements TransactionRepository
var _ TransactionRepository = (*PostgresTransactionRepository)(nil)
