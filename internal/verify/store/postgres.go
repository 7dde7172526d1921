package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"idmatch/internal/verify/models"
)

// Postgres persists runs in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate creates the schema if it does not exist. A tool this size carries
// its DDL instead of a migration framework.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          UUID PRIMARY KEY,
			status      TEXT NOT NULL,
			source_file TEXT NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS run_results (
			run_id       UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position     INT NOT NULL,
			row_id       TEXT NOT NULL,
			sheet_id     TEXT NOT NULL,
			extracted_id TEXT NOT NULL,
			match        BOOLEAN NOT NULL,
			image_path   TEXT NOT NULL,
			note         TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);
		CREATE INDEX IF NOT EXISTS runs_started_at_idx ON runs (started_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("migrate run store: %w", err)
	}
	return nil
}

func (s *Postgres) Save(ctx context.Context, run *models.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, status, source_file, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at`,
		run.ID, string(run.Status), run.SourceFile, run.StartedAt, nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_results WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear run results: %w", err)
	}
	for _, res := range run.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_results
				(run_id, position, row_id, sheet_id, extracted_id, match, image_path, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run.ID, res.Position, res.RowID, res.SheetID, res.ExtractedID,
			res.Match, res.ImagePath, res.Note,
		)
		if err != nil {
			return fmt.Errorf("save run result %d: %w", res.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	run := &models.Run{}
	var status string
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, source_file, started_at, finished_at
		FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &status, &run.SourceFile, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	run.Status = models.RunStatus(status)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, row_id, sheet_id, extracted_id, match, image_path, note
		FROM run_results WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load run results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.RowResult
		if err := rows.Scan(&res.Position, &res.RowID, &res.SheetID,
			&res.ExtractedID, &res.Match, &res.ImagePath, &res.Note); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run results: %w", err)
	}
	return run, nil
}

func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, source_file, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*models.Run
	for rows.Next() {
		run := &models.Run{}
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &status, &run.SourceFile, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = models.RunStatus(status)
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
