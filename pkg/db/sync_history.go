package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SyncStatus is the outcome of writing one transaction to the ledger.
type SyncStatus string

const (
	// StatusComplete means every planned record was created.
	StatusComplete SyncStatus = "complete"
	// StatusPartial means some records were created before a failure.
	StatusPartial SyncStatus = "partial"
	// StatusFailed means no invoice or transaction was created; the
	// transaction may be retried.
	StatusFailed SyncStatus = "failed"
)

// Metadata keys.
const (
	MetaLastRunID    = "last_run_id"
	MetaLastSyncFrom = "last_sync_from"
	MetaLastSyncTo   = "last_sync_to"
)

// SyncRecord represents a sync history record.
type SyncRecord struct {
	ID             int64
	Processor      string
	ExternalID     string
	DocumentNumber string
	SettledAt      string
	Amount         string
	CurrencyCode   string
	CustomerID     sql.NullInt64
	InvoiceID      sql.NullInt64
	IncomeID       sql.NullInt64
	ExpenseID      sql.NullInt64
	Status         SyncStatus
	Error          string
	RunID          string
	SyncedAt       time.Time
}

// SyncHistory manages sync history operations.
type SyncHistory struct {
	conn *Connection
}

// NewSyncHistory creates a new SyncHistory instance.
func NewSyncHistory(conn *Connection) *SyncHistory {
	return &SyncHistory{conn: conn}
}

// NullID returns a NULL for 0 and a valid id otherwise.
func NullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// RecordSync records a sync operation.
// If the record already exists (same processor + external_id), it updates it.
func (s *SyncHistory) RecordSync(record SyncRecord) error {
	query := `
		INSERT INTO sync_history (
			processor, external_id, document_number, settled_at, amount, currency_code,
			customer_id, invoice_id, income_id, expense_id, status, error, run_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(processor, external_id) DO UPDATE SET
			document_number = excluded.document_number,
			settled_at = excluded.settled_at,
			amount = excluded.amount,
			currency_code = excluded.currency_code,
			customer_id = excluded.customer_id,
			invoice_id = excluded.invoice_id,
			income_id = excluded.income_id,
			expense_id = excluded.expense_id,
			status = excluded.status,
			error = excluded.error,
			run_id = excluded.run_id,
			synced_at = CURRENT_TIMESTAMP
	`

	_, err := s.conn.db.Exec(query,
		record.Processor,
		record.ExternalID,
		record.DocumentNumber,
		record.SettledAt,
		record.Amount,
		record.CurrencyCode,
		record.CustomerID,
		record.InvoiceID,
		record.IncomeID,
		record.ExpenseID,
		string(record.Status),
		record.Error,
		record.RunID,
	)

	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	return nil
}

// IsSynced checks if a transaction has reached the ledger, completely or
// partially. Failed attempts do not count.
func (s *SyncHistory) IsSynced(processor, externalID string) (bool, error) {
	query := `
		SELECT COUNT(*) as count FROM sync_history
		WHERE processor = ? AND external_id = ? AND status != ?
	`

	var count int
	err := s.conn.db.QueryRow(query, processor, externalID, string(StatusFailed)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if synced: %w", err)
	}

	return count > 0, nil
}

const selectRecord = `
	SELECT id, processor, external_id, document_number, settled_at, amount, currency_code,
		customer_id, invoice_id, income_id, expense_id, status, error, run_id, synced_at
	FROM sync_history
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*SyncRecord, error) {
	var record SyncRecord
	var status string

	if err := row.Scan(
		&record.ID,
		&record.Processor,
		&record.ExternalID,
		&record.DocumentNumber,
		&record.SettledAt,
		&record.Amount,
		&record.CurrencyCode,
		&record.CustomerID,
		&record.InvoiceID,
		&record.IncomeID,
		&record.ExpenseID,
		&status,
		&record.Error,
		&record.RunID,
		&record.SyncedAt,
	); err != nil {
		return nil, err
	}

	record.Status = SyncStatus(status)
	return &record, nil
}

// GetSyncRecord retrieves a sync record by processor and external ID.
// It returns nil, nil when no record exists.
func (s *SyncHistory) GetSyncRecord(processor, externalID string) (*SyncRecord, error) {
	query := selectRecord + `WHERE processor = ? AND external_id = ?`

	record, err := scanRecord(s.conn.db.QueryRow(query, processor, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync record: %w", err)
	}

	return record, nil
}

// GetSyncRecordsByStatus retrieves all sync records with the given status,
// newest document first.
func (s *SyncHistory) GetSyncRecordsByStatus(status SyncStatus) ([]SyncRecord, error) {
	query := selectRecord + `WHERE status = ? ORDER BY document_number DESC`

	return s.queryRecords(query, string(status))
}

// GetSyncRecordsByRun retrieves the records written by one run.
func (s *SyncHistory) GetSyncRecordsByRun(runID string) ([]SyncRecord, error) {
	query := selectRecord + `WHERE run_id = ? ORDER BY document_number`

	return s.queryRecords(query, runID)
}

func (s *SyncHistory) queryRecords(query string, args ...any) ([]SyncRecord, error) {
	rows, err := s.conn.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync records: %w", err)
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync records: %w", err)
	}

	return records, nil
}

// GetSyncedIDs retrieves the external IDs of every transaction of a processor
// that reached the ledger. This is useful for bulk filtering.
func (s *SyncHistory) GetSyncedIDs(processor string) ([]string, error) {
	query := `
		SELECT external_id FROM sync_history WHERE processor = ? AND status != ?
	`

	rows, err := s.conn.db.Query(query, processor, string(StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to get synced IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DeleteSyncRecord deletes a sync record.
// Use case: Force re-sync of a transaction after cleaning up the ledger.
func (s *SyncHistory) DeleteSyncRecord(processor, externalID string) (bool, error) {
	query := `DELETE FROM sync_history WHERE processor = ? AND external_id = ?`

	result, err := s.conn.db.Exec(query, processor, externalID)
	if err != nil {
		return false, fmt.Errorf("failed to delete sync record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// ProcessorStats holds per-status counts for one processor.
type ProcessorStats struct {
	Processor string
	Complete  int
	Partial   int
	Failed    int
}

// Total returns the number of records for the processor.
func (p ProcessorStats) Total() int {
	return p.Complete + p.Partial + p.Failed
}

// Stats represents sync statistics.
type Stats struct {
	Processors []ProcessorStats
	LastSync   sql.NullString
	LastRunID  string
}

// GetStats retrieves sync statistics.
func (s *SyncHistory) GetStats() (*Stats, error) {
	var stats Stats

	rows, err := s.conn.db.Query(`
		SELECT processor, status, COUNT(*) FROM sync_history
		GROUP BY processor, status
		ORDER BY processor
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	byProcessor := make(map[string]int)
	for rows.Next() {
		var processor, status string
		var count int
		if err := rows.Scan(&processor, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}

		i, ok := byProcessor[processor]
		if !ok {
			i = len(stats.Processors)
			byProcessor[processor] = i
			stats.Processors = append(stats.Processors, ProcessorStats{Processor: processor})
		}

		switch SyncStatus(status) {
		case StatusComplete:
			stats.Processors[i].Complete = count
		case StatusPartial:
			stats.Processors[i].Partial = count
		case StatusFailed:
			stats.Processors[i].Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	// Get last sync time
	err = s.conn.db.QueryRow(`SELECT MAX(synced_at) FROM sync_history`).Scan(&stats.LastSync)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last sync time: %w", err)
	}

	stats.LastRunID, err = s.GetMetadata(MetaLastRunID)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (s *SyncHistory) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM sync_metadata WHERE key = ?`

	var value string
	err := s.conn.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (s *SyncHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.conn.db.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
