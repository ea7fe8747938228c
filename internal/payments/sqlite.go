package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS payment_intents (
	reference  TEXT PRIMARY KEY,
	kind       TEXT NOT NULL DEFAULT '',
	amount     REAL NOT NULL DEFAULT 0,
	phone      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	receipt    TEXT NOT NULL DEFAULT '',
	failure    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore keeps intents in a local sqlite database, surviving restarts
// on a single node.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, intent Intent) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_intents (reference, kind, amount, phone, status, receipt, failure, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reference) DO NOTHING`,
		intent.Reference, intent.Kind, intent.Amount, intent.Phone,
		string(intent.Status), intent.Receipt, intent.Failure, now, now)
	if err != nil {
		return fmt.Errorf("create intent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Resolve(ctx context.Context, reference string, status Status, receipt, failure string) error {
	now := s.now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("resolve intent: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM payment_intents WHERE reference = ?`, reference).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_intents (reference, status, receipt, failure, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			reference, string(status), receipt, failure, now, now)
		if err != nil {
			return fmt.Errorf("resolve intent: %w", err)
		}
	case err != nil:
		return fmt.Errorf("resolve intent: %w", err)
	case Status(current).Terminal():
		return nil
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE payment_intents SET status = ?, receipt = ?, failure = ?, updated_at = ?
			WHERE reference = ?`,
			string(status), receipt, failure, now, reference)
		if err != nil {
			return fmt.Errorf("resolve intent: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, reference string) (Intent, bool, error) {
	var intent Intent
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT reference, kind, amount, phone, status, receipt, failure, created_at, updated_at
		FROM payment_intents WHERE reference = ?`, reference).
		Scan(&intent.Reference, &intent.Kind, &intent.Amount, &intent.Phone,
			&status, &intent.Receipt, &intent.Failure, &intent.CreatedAt, &intent.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Intent{}, false, nil
	}
	if err != nil {
		return Intent{}, false, fmt.Errorf("get intent: %w", err)
	}
	intent.Status = Status(status)
	return intent, true, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
