package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens the sync database with WAL mode and creates the schema.
// The returned handle is shared by the item, transaction and pending action
// repositories so approval applies can span tables in one transaction.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLite] Initialized sync database: %s", dbPath)
	return db, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		admin_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		warehouse TEXT NOT NULL DEFAULT '',
		number_of_boxes INTEGER NOT NULL DEFAULT 0,
		box_size_quantities TEXT NOT NULL DEFAULT '',
		size_type TEXT NOT NULL DEFAULT '',
		item_type TEXT NOT NULL DEFAULT '',
		"row" TEXT,
		"position" TEXT,
		side TEXT,
		image_url TEXT,
		total_quantity INTEGER NOT NULL DEFAULT 0,
		total_value REAL NOT NULL DEFAULT 0,
		qr_code_type TEXT NOT NULL DEFAULT '',
		qr_codes TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_admin_updated ON items(admin_id, updated_at);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		admin_id INTEGER NOT NULL,
		item_id TEXT,
		action TEXT NOT NULL,
		item_name TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		details TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_admin_created ON transactions(admin_id, created_at);

	CREATE TABLE IF NOT EXISTS pending_actions (
		id TEXT PRIMARY KEY,
		admin_id INTEGER NOT NULL,
		assistant_id INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		item_id TEXT,
		transaction_id TEXT,
		old_data TEXT NOT NULL,
		new_data TEXT NOT NULL,
		reason TEXT,
		admin_comment TEXT,
		notification_sent INTEGER NOT NULL DEFAULT 0,
		notification_sent_at DATETIME,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		responded_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_pending_admin_status ON pending_actions(admin_id, status);
	CREATE INDEX IF NOT EXISTS idx_pending_assistant ON pending_actions(assistant_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_pending_expiry ON pending_actions(status, expires_at);
	`
	_, err := db.Exec(query)
	return err
}
