// Package journal keeps a local record of every receipt issued from this
// workstation.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"recibi/internal/logging"
)

// Entry is one issued receipt.
type Entry struct {
	ID            string
	SessionID     string
	BeneficiaryID string
	HolderID      string
	AidCode       string
	Amount        decimal.Decimal
	PaymentMethod string
	Professional  string
	FilePath      string
	CreatedAt     time.Time
}

// Store is the sqlite-backed journal.
type Store struct {
	db        *sql.DB
	dbPath    string
	sessionID string
	mu        sync.RWMutex
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:        db,
		dbPath:    path,
		sessionID: uuid.NewString(),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Journal("opened %s (session %s)", path, s.sessionID)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// SessionID identifies the receipts issued through this Store.
func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		beneficiary_id TEXT NOT NULL,
		holder_id TEXT NOT NULL DEFAULT '',
		aid_code TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		professional TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_beneficiary ON receipts(beneficiary_id);
	CREATE INDEX IF NOT EXISTS idx_receipts_created ON receipts(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores e, filling ID, SessionID and CreatedAt when empty.
func (s *Store) Record(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SessionID == "" {
		e.SessionID = s.sessionID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO receipts (id, session_id, beneficiary_id, holder_id, aid_code,
			amount, payment_method, professional, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.BeneficiaryID, e.HolderID, e.AidCode,
		e.Amount.StringFixed(2), e.PaymentMethod, e.Professional, e.FilePath,
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		logging.JournalError("record %s: %v", e.ID, err)
		return fmt.Errorf("failed to record receipt: %w", err)
	}

	logging.Journal("recorded %s for %s (%s)", e.ID, e.BeneficiaryID, e.AidCode)
	return nil
}

// List returns the most recent entries first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectEntries + ` ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(query, args...)
}

// ForBeneficiary returns the entries issued to id, most recent first.
func (s *Store) ForBeneficiary(id string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.query(selectEntries+` WHERE beneficiary_id = ? ORDER BY created_at DESC, rowid DESC`, id)
}

// Count returns the number of recorded receipts.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM receipts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return n, nil
}

const selectEntries = `
	SELECT id, session_id, beneficiary_id, holder_id, aid_code, amount,
		payment_method, professional, file_path, created_at
	FROM receipts`

func (s *Store) query(query string, args ...interface{}) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var amount, created string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.BeneficiaryID, &e.HolderID, &e.AidCode,
			&amount, &e.PaymentMethod, &e.Professional, &e.FilePath, &created); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("receipt %s: bad amount %q: %w", e.ID, amount, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("receipt %s: bad timestamp %q: %w", e.ID, created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
