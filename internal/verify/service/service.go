// Package service orchestrates a verification run: read the sheet, and for
// every row download the card image, OCR it, extract the national ID, and
// compare it against the spreadsheet value.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"idmatch/internal/audit"
	"idmatch/internal/platform/metrics"
	"idmatch/internal/verify/extract"
	"idmatch/internal/verify/models"
	"idmatch/internal/verify/ocr"
	"idmatch/internal/verify/sheet"
	"idmatch/internal/verify/store"
	pkgerrors "idmatch/pkg/errors"
)

// Fetcher downloads one card image and returns the stored filename.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, position int) (string, error)
}

// ReadSheet loads up to limit rows from the workbook at path.
type ReadSheet func(path string, limit int) ([]sheet.Row, error)

// Config carries the run parameters the pipeline needs.
type Config struct {
	SheetPath   string
	DownloadDir string
	RowLimit    int
	Workers     int
}

// Service runs the verification pipeline.
type Service struct {
	cfg     Config
	sheets  ReadSheet
	fetcher Fetcher
	reader  ocr.Reader
	runs    store.RunStore
	logger  *slog.Logger

	metrics *metrics.Metrics
	audit   *audit.Emitter
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(emitter *audit.Emitter) Option {
	return func(s *Service) { s.audit = emitter }
}

// WithReadSheet replaces the workbook loader; tests use it to avoid writing
// xlsx fixtures.
func WithReadSheet(read ReadSheet) Option {
	return func(s *Service) { s.sheets = read }
}

func New(cfg Config, fetcher Fetcher, reader ocr.Reader, runs store.RunStore, logger *slog.Logger, opts ...Option) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	s := &Service{
		cfg:     cfg,
		sheets:  sheet.Read,
		fetcher: fetcher,
		reader:  reader,
		runs:    runs,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one full verification pass and returns the persisted run
// together with the flash messages describing its outcome. Row-level
// failures degrade into result notes; only a failure to read the sheet
// itself fails the run, and even that is reported through a flash rather
// than an error so the results page always renders.
func (s *Service) Run(ctx context.Context) (*models.Run, []models.Flash) {
	started := time.Now()
	run := models.NewRun(filepath.Base(s.cfg.SheetPath), started)

	s.logger.InfoContext(ctx, "verification run started",
		"run_id", run.ID.String(),
		"sheet", s.cfg.SheetPath,
	)
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist run", "error", err.Error())
	}
	s.audit.Emit(ctx, audit.NewEvent(run.ID, audit.KindRunStarted, run.SourceFile))

	rows, err := s.sheets(s.cfg.SheetPath, s.cfg.RowLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read sheet",
			"run_id", run.ID.String(),
			"error", err.Error(),
		)
		run.Fail(time.Now())
		if err := s.runs.Save(ctx, run); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist run", "error", err.Error())
		}
		s.audit.Emit(ctx, audit.NewEvent(run.ID, audit.KindRunFailed, err.Error()))
		return run, []models.Flash{
			models.DangerFlash(fmt.Sprintf("Error reading Excel file: %v", err)),
		}
	}

	results := make([]models.RowResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, row := range rows {
		g.Go(func() error {
			results[i] = s.processRow(gctx, run, row)
			return nil
		})
	}
	// Workers only report through their result slot, so Wait cannot fail.
	_ = g.Wait()

	run.Complete(results, time.Now())
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist run", "error", err.Error())
	}
	s.audit.Emit(ctx, audit.NewEvent(run.ID, audit.KindRunCompleted,
		fmt.Sprintf("%d rows, %d matches", len(results), run.Matches())))
	s.metrics.ObserveRunDuration(time.Since(started))

	s.logger.InfoContext(ctx, "verification run completed",
		"run_id", run.ID.String(),
		"rows", len(results),
		"matches", run.Matches(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return run, []models.Flash{
		models.SuccessFlash(fmt.Sprintf("Successfully processed %d rows from the Excel file.", len(results))),
	}
}

// FindRun loads a persisted run by its string ID.
func (s *Service) FindRun(ctx context.Context, id string) (*models.Run, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeBadRequest, "invalid run id %q", id)
	}
	return s.runs.FindByID(ctx, parsed)
}

// RecentRuns lists run summaries, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	return s.runs.ListRecent(ctx, limit)
}

// processRow verifies a single row. Every failure path returns a usable
// RowResult; processing never aborts the rest of the run.
func (s *Service) processRow(ctx context.Context, run *models.Run, row sheet.Row) models.RowResult {
	result := models.RowResult{
		Position: row.Position,
		RowID:    row.RowID,
		SheetID:  row.NationalityID,
	}

	filename, err := s.fetcher.Fetch(ctx, row.ImageURL, row.Position)
	if err != nil {
		s.metrics.IncrementDownloadFailures()
		s.logger.WarnContext(ctx, "image download failed",
			"run_id", run.ID.String(),
			"row", row.Position,
			"error", err.Error(),
		)
		result.Note = fmt.Sprintf("download failed: %v", err)
		return s.finishRow(ctx, run, result)
	}
	result.ImagePath = filename

	img, err := os.ReadFile(filepath.Join(s.cfg.DownloadDir, filename))
	if err != nil {
		s.metrics.IncrementOCRFailures()
		result.Note = fmt.Sprintf("read downloaded image: %v", err)
		return s.finishRow(ctx, run, result)
	}

	text, err := s.reader.Text(ctx, img)
	if err != nil {
		s.metrics.IncrementOCRFailures()
		s.logger.WarnContext(ctx, "text detection failed",
			"run_id", run.ID.String(),
			"row", row.Position,
			"error", err.Error(),
		)
		result.Note = fmt.Sprintf("text detection failed: %v", err)
		return s.finishRow(ctx, run, result)
	}

	id, ok := extract.NationalID(text)
	if !ok {
		result.Note = "no national ID found in text"
		return s.finishRow(ctx, run, result)
	}

	result.ExtractedID = id
	result.Match = id == row.NationalityID
	return s.finishRow(ctx, run, result)
}

// finishRow records metrics and the mismatch audit trail for a completed row.
func (s *Service) finishRow(ctx context.Context, run *models.Run, result models.RowResult) models.RowResult {
	s.metrics.ObserveRow(result.Match)
	if !result.Match {
		detail := fmt.Sprintf("row %s: sheet %q vs extracted %q",
			result.RowID, result.SheetID, result.ExtractedID)
		if result.Note != "" {
			detail = fmt.Sprintf("row %s: %s", result.RowID, result.Note)
		}
		s.audit.Emit(ctx, audit.NewEvent(run.ID, audit.KindRowMismatch, detail))
	}
	return result
}
