package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS payment_intents (
	reference  TEXT PRIMARY KEY,
	kind       TEXT NOT NULL DEFAULT '',
	amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
	phone      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	receipt    TEXT NOT NULL DEFAULT '',
	failure    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore keeps intents in postgres so several nodes share one view.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore connects with a standard postgres DSN and ensures the
// schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres store: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) Create(ctx context.Context, intent Intent) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_intents (reference, kind, amount, phone, status, receipt, failure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (reference) DO NOTHING`,
		intent.Reference, intent.Kind, intent.Amount, intent.Phone,
		string(intent.Status), intent.Receipt, intent.Failure, now, now)
	if err != nil {
		return fmt.Errorf("create intent: %w", err)
	}
	return nil
}

func (s *PostgresStore) Resolve(ctx context.Context, reference string, status Status, receipt, failure string) error {
	now := s.now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("resolve intent: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM payment_intents WHERE reference = $1 FOR UPDATE`, reference).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_intents (reference, status, receipt, failure, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
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
			UPDATE payment_intents SET status = $1, receipt = $2, failure = $3, updated_at = $4
			WHERE reference = $5`,
			string(status), receipt, failure, now, reference)
		if err != nil {
			return fmt.Errorf("resolve intent: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) Get(ctx context.Context, reference string) (Intent, bool, error) {
	var intent Intent
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT reference, kind, amount, phone, status, receipt, failure, created_at, updated_at
		FROM payment_intents WHERE reference = $1`, reference).
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

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
