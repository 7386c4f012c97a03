/*
Package sqlite provides the SQLite-backed receipt history store.

PURPOSE:
  Records every receipt handed to the submission pipeline together with its
  outcome, so operators can answer "what was issued for contract X", retry
  failures, and audit dry runs. This store records outcomes; it never
  submits anything itself.

KEY TABLE:
  receipts: one row per (receipt, submission attempt)

INDEXES:
  idx_receipts_contract:  contract history lookups (hot path)
  idx_receipts_created:   recent-first listings
  idx_receipts_status:    failure triage
  idx_receipts_period:    period-range searches

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite opened in WAL mode:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/receipts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  Use ":memory:" for tests.

SEE ALSO:
  - landlord: produces the ReceiptData these records are built from
  - api: exposes this store to the orchestrator
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/arrenda/receipt-engine/landlord"
)

const (
	dateLayout = "2006-01-02"

	// Submission outcomes.
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// ErrReceiptNotFound is returned when a record id does not exist.
var ErrReceiptNotFound = errors.New("receipt record not found")

// ReceiptRecord is one submission outcome in the history.
type ReceiptRecord struct {
	ID             int64
	ContractID     string
	TenantName     string
	FromDate       time.Time
	ToDate         time.Time
	PaymentDate    time.Time
	Value          decimal.Decimal
	ReceiptType    string
	ReceiptNumber  string // portal-assigned number, empty on failure
	Status         string
	ErrorMessage   string
	ProcessingMode string // "bulk" or "step"
	DryRun         bool
	CreatedAt      time.Time
}

// RecordFromReceipt seeds a history record from a generated receipt. The
// caller fills in the outcome fields (Status, ReceiptNumber, ErrorMessage)
// after the submission attempt.
func RecordFromReceipt(r landlord.ReceiptData, tenantName string) ReceiptRecord {
	return ReceiptRecord{
		ContractID:  r.ContractID,
		TenantName:  tenantName,
		FromDate:    r.FromDate,
		ToDate:      r.ToDate,
		PaymentDate: r.PaymentDate,
		Value:       r.Value,
		ReceiptType: r.ReceiptType,
	}
}

// Store implements the receipt history on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at the given database path. Use ":memory:" for an
// in-memory database. The schema is migrated on open.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS receipts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contract_id TEXT NOT NULL,
		tenant_name TEXT,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		payment_date TEXT,
		value TEXT NOT NULL,
		receipt_type TEXT,
		receipt_number TEXT,
		status TEXT NOT NULL,
		error_message TEXT,
		processing_mode TEXT,
		dry_run INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_contract ON receipts(contract_id);
	CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at);
	CREATE INDEX IF NOT EXISTS idx_receipts_status ON receipts(status);
	CREATE INDEX IF NOT EXISTS idx_receipts_period ON receipts(from_date, to_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// SaveReceipt inserts one record and returns its assigned id. A zero
// CreatedAt is stamped with the current time.
func (s *Store) SaveReceipt(ctx context.Context, rec ReceiptRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.insert(ctx, s.db, rec)
	if err != nil {
		return 0, fmt.Errorf("save receipt: %w", err)
	}
	return res, nil
}

// SaveBatch inserts all records in one transaction: either the whole batch
// lands in history or none of it does.
func (s *Store) SaveBatch(ctx context.Context, recs []ReceiptRecord) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		id, err := s.insert(ctx, tx, rec)
		if err != nil {
			return nil, fmt.Errorf("save receipt for contract %s: %w", rec.ContractID, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return ids, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, rec ReceiptRecord) (int64, error) {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO receipts (
			contract_id, tenant_name, from_date, to_date, payment_date,
			value, receipt_type, receipt_number, status, error_message,
			processing_mode, dry_run, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ContractID,
		rec.TenantName,
		rec.FromDate.Format(dateLayout),
		rec.ToDate.Format(dateLayout),
		formatDate(rec.PaymentDate),
		rec.Value.String(),
		rec.ReceiptType,
		rec.ReceiptNumber,
		rec.Status,
		rec.ErrorMessage,
		rec.ProcessingMode,
		boolToInt(rec.DryRun),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteReceipt removes one record from history.
func (s *Store) DeleteReceipt(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete receipt %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrReceiptNotFound, id)
	}
	return nil
}

// ClearAll wipes the history and returns how many records were removed.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts`)
	if err != nil {
		return 0, fmt.Errorf("clear receipts: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// READS
// =============================================================================

const selectColumns = `
	id, contract_id, tenant_name, from_date, to_date, payment_date,
	value, receipt_type, receipt_number, status, error_message,
	processing_mode, dry_run, created_at`

// ReceiptByID fetches one record.
func (s *Store) ReceiptByID(ctx context.Context, id int64) (ReceiptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM receipts WHERE id = ?`, id)

	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ReceiptRecord{}, fmt.Errorf("%w: id %d", ErrReceiptNotFound, id)
	}
	return rec, err
}

// ReceiptsByContract returns a contract's history, newest first.
func (s *Store) ReceiptsByContract(ctx context.Context, contractID string) ([]ReceiptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM receipts
		 WHERE contract_id = ? ORDER BY created_at DESC, id DESC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("receipts by contract: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// RecentReceipts returns the newest records, capped at limit.
func (s *Store) RecentReceipts(ctx context.Context, limit int) ([]ReceiptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM receipts
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// SearchFilter narrows a history search. Zero-valued fields are ignored.
type SearchFilter struct {
	ContractID string
	Status     string
	DryRun     *bool
	// Created-at range, inclusive.
	From  time.Time
	To    time.Time
	Limit int
}

// SearchReceipts returns records matching every set filter field, newest
// first.
func (s *Store) SearchReceipts(ctx context.Context, filter SearchFilter) ([]ReceiptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conds []string
	var args []any

	if filter.ContractID != "" {
		conds = append(conds, "contract_id = ?")
		args = append(args, filter.ContractID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.DryRun != nil {
		conds = append(conds, "dry_run = ?")
		args = append(args, boolToInt(*filter.DryRun))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}

	query := `SELECT ` + selectColumns + ` FROM receipts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// Stats summarizes the whole history.
type Stats struct {
	TotalReceipts   int
	Successful      int
	Failed          int
	DryRun          int
	UniqueContracts int
	TotalValue      decimal.Decimal
	AverageValue    decimal.Decimal
	// Zero when the history is empty.
	EarliestCreated time.Time
	LatestCreated   time.Time
}

// Stats computes history-wide aggregates. Value sums are computed in Go so
// decimal precision survives.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalValue: decimal.Zero, AverageValue: decimal.Zero}

	rows, err := s.db.QueryContext(ctx,
		`SELECT value, status, dry_run, created_at FROM receipts`)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var valueStr, status, createdStr string
		var dryRun int
		if err := rows.Scan(&valueStr, &status, &dryRun, &createdStr); err != nil {
			return stats, err
		}

		value, err := decimal.NewFromString(valueStr)
		if err != nil {
			return stats, fmt.Errorf("stats: bad stored value %q: %w", valueStr, err)
		}
		created, err := time.Parse(time.RFC3339, createdStr)
		if err != nil {
			return stats, fmt.Errorf("stats: bad stored timestamp %q: %w", createdStr, err)
		}

		stats.TotalReceipts++
		stats.TotalValue = stats.TotalValue.Add(value)
		switch status {
		case StatusSuccess:
			stats.Successful++
		case StatusFailed:
			stats.Failed++
		}
		if dryRun != 0 {
			stats.DryRun++
		}
		if stats.EarliestCreated.IsZero() || created.Before(stats.EarliestCreated) {
			stats.EarliestCreated = created
		}
		if created.After(stats.LatestCreated) {
			stats.LatestCreated = created
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT contract_id) FROM receipts`).Scan(&stats.UniqueContracts); err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}

	if stats.TotalReceipts > 0 {
		stats.AverageValue = stats.TotalValue.Div(decimal.NewFromInt(int64(stats.TotalReceipts))).Round(2)
	}

	return stats, nil
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (ReceiptRecord, error) {
	var rec ReceiptRecord
	var fromStr, toStr, paymentStr, valueStr, createdStr string
	var dryRun int

	err := row.Scan(
		&rec.ID, &rec.ContractID, &rec.TenantName,
		&fromStr, &toStr, &paymentStr,
		&valueStr, &rec.ReceiptType, &rec.ReceiptNumber,
		&rec.Status, &rec.ErrorMessage,
		&rec.ProcessingMode, &dryRun, &createdStr,
	)
	if err != nil {
		return ReceiptRecord{}, err
	}

	if rec.FromDate, err = time.Parse(dateLayout, fromStr); err != nil {
		return ReceiptRecord{}, fmt.Errorf("bad stored from_date %q: %w", fromStr, err)
	}
	if rec.ToDate, err = time.Parse(dateLayout, toStr); err != nil {
		return ReceiptRecord{}, fmt.Errorf("bad stored to_date %q: %w", toStr, err)
	}
	if paymentStr != "" {
		if rec.PaymentDate, err = time.Parse(dateLayout, paymentStr); err != nil {
			return ReceiptRecord{}, fmt.Errorf("bad stored payment_date %q: %w", paymentStr, err)
		}
	}
	if rec.Value, err = decimal.NewFromString(valueStr); err != nil {
		return ReceiptRecord{}, fmt.Errorf("bad stored value %q: %w", valueStr, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return ReceiptRecord{}, fmt.Errorf("bad stored created_at %q: %w", createdStr, err)
	}
	rec.DryRun = dryRun != 0

	return rec, nil
}

func scanReceipts(rows *sql.Rows) ([]ReceiptRecord, error) {
	var recs []ReceiptRecord
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
