package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// OpenPostgres opens the sync database on PostgreSQL and creates the schema.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[Postgres] Initialized sync database")
	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		admin_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		warehouse TEXT NOT NULL DEFAULT '',
		number_of_boxes BIGINT NOT NULL DEFAULT 0,
		box_size_quantities TEXT NOT NULL DEFAULT '',
		size_type TEXT NOT NULL DEFAULT '',
		item_type TEXT NOT NULL DEFAULT '',
		"row" TEXT,
		"position" TEXT,
		side TEXT,
		image_url TEXT,
		total_quantity BIGINT NOT NULL DEFAULT 0,
		total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		qr_code_type TEXT NOT NULL DEFAULT '',
		qr_codes TEXT,
		version BIGINT NOT NULL DEFAULT 1,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_admin_updated ON items(admin_id, updated_at);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		admin_id BIGINT NOT NULL,
		item_id TEXT,
		action TEXT NOT NULL,
		item_name TEXT NOT NULL,
		"timestamp" BIGINT NOT NULL,
		details TEXT,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_admin_created ON transactions(admin_id, created_at);

	CREATE TABLE IF NOT EXISTS pending_actions (
		id TEXT PRIMARY KEY,
		admin_id BIGINT NOT NULL,
		assistant_id BIGINT NOT NULL,
		action_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		item_id TEXT,
		transaction_id TEXT,
		old_data TEXT NOT NULL,
		new_data TEXT NOT NULL,
		reason TEXT,
		admin_comment TEXT,
		notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
		notification_sent_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		responded_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_pending_admin_status ON pending_actions(admin_id, status);
	CREATE INDEX IF NOT EXISTS idx_pending_assistant ON pending_actions(assistant_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_pending_expiry ON pending_actions(status, expires_at);
	`
	_, err := db.Exec(query)
	return err
}
