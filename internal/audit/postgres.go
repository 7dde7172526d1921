package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the audit schema if it does not exist.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id     UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			kind   TEXT NOT NULL,
			detail TEXT NOT NULL,
			at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS audit_events_run_id_idx ON audit_events (run_id, at);
	`)
	if err != nil {
		return fmt.Errorf("migrate audit store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, run_id, kind, detail, at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.RunID, string(event.Kind), event.Detail, event.At,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, kind, detail, at
		FROM audit_events WHERE run_id = $1 ORDER BY at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &e.RunID, &kind, &e.Detail, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
