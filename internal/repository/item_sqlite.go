package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"warehouse-sync-api/internal/model"
)

const itemColumns = `id, admin_id, name, code, warehouse, number_of_boxes, box_size_quantities,
	size_type, item_type, "row", "position", side, image_url, total_quantity, total_value,
	qr_code_type, qr_codes, version, is_deleted, created_at, updated_at`

// SQLiteItemRepository implements ItemRepository using SQLite.
type SQLiteItemRepository struct {
	db *sql.DB
}

// NewSQLiteItemRepository creates a new SQLite item repository.
func NewSQLiteItemRepository(db *sql.DB) *SQLiteItemRepository {
	return &SQLiteItemRepository{db: db}
}

// Create persists a new item.
func (r *SQLiteItemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

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
func (r *SQLiteItemRepository) GetByID(ctx context.Context, id string, adminID int64) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ? AND admin_id = ?`

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
func (r *SQLiteItemRepository) ListChangedSince(ctx context.Context, adminID int64, since time.Time) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE admin_id = ? AND is_deleted = 0 AND updated_at > ?
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
func (r *SQLiteItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID, &item.AdminID, &item.Name, &item.Code, &item.Warehouse,
		&item.NumberOfBoxes, &item.BoxSizeQuantities, &item.SizeType, &item.ItemType,
		&item.Row, &item.Position, &item.Side, &item.ImageURL,
		&item.TotalQuantity, &item.TotalValue, &item.QRCodeType, &item.QRCodes,
		&item.Version, &item.IsDeleted, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Ensure SQLiteItemRepository implements ItemRepository
var _ ItemRepository = (*SQLiteItemRepository)(nil)
