// Package db provides SQLite database management for sync history and metadata.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Sync history table
-- Tracks which processor transactions have been written to the ledger
CREATE TABLE IF NOT EXISTS sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    processor TEXT NOT NULL,           -- 'paypal' or 'stripe'
    external_id TEXT NOT NULL,         -- Transaction ID from the processor
    document_number TEXT NOT NULL,     -- YYYYMMDD-NNNNN
    settled_at TEXT NOT NULL,          -- YYYY-MM-DD HH:MM:SS
    amount TEXT NOT NULL,              -- Decimal string
    currency_code TEXT NOT NULL,
    customer_id INTEGER,               -- Ledger ids, NULL when not created
    invoice_id INTEGER,
    income_id INTEGER,
    expense_id INTEGER,
    status TEXT NOT NULL,              -- 'complete', 'partial' or 'failed'
    error TEXT NOT NULL DEFAULT '',
    run_id TEXT NOT NULL,
    synced_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(processor, external_id)
);

CREATE INDEX IF NOT EXISTS idx_sync_history_processor_id
    ON sync_history(processor, external_id);

CREATE INDEX IF NOT EXISTS idx_sync_history_status
    ON sync_history(status);

CREATE INDEX IF NOT EXISTS idx_sync_history_run
    ON sync_history(run_id);

-- Sync metadata table
-- Stores key-value metadata about sync operations
CREATE TABLE IF NOT EXISTS sync_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.db.Exec(Schema); err != nil {
		return err
	}
	return nil
}
