package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"warehouse-sync-api/internal/model"
)

// PostgresItemRepository implements ItemRepository using PostgreSQL.
type PostgresItemRepository struct {
	db *sql.DB
}

// NewPostgresItemRepository creates a new PostgreSQL item repository.
func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

// Create persists a new item.
func (r *PostgresItemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.AdminID, item.Name, item.Code, item.Warehouse,
		item.NumberOfBoxes, item.BoxSizeQuantities, item.SizeType, item.ItemType,
		item.Row, item.Position, item.Side, item.ImageURL,
		item.TotalQuantity, item.TotalValue, item.QRCodeType, item.QRCodes,
		item.Version, item.IsDeleted, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetByID retrieves an item scoped to its owning admin.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id string, adminID int64) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 AND admin_id = $2`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, adminID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListChangedSince returns non-deleted items changed strictly after since.
func (r *PostgresItemRepository) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE admin_id = $1 AND is_deleted = FALSE AND updated_at > $2
		ORDER BY updated_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, adminID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Count returns the total number of item rows.
func (r *PostgresItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// Ensure PostgresItemRepository implements ItemRepository
var _ ItemRepository = (*PostgresItemRepository)(nil)
