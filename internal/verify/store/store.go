// Package store persists verification runs. Stores are interface-driven so
// the pipeline and web layer stay testable and the memory and Postgres
// implementations stay swappable.
package store

import (
	"context"

	"github.com/google/uuid"

	"idmatch/internal/verify/models"
	pkgerrors "idmatch/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "run not found")

// RunStore persists verification runs and their row results.
type RunStore interface {
	// Save inserts or replaces the run; results are stored with it.
	Save(ctx context.Context, run *models.Run) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	// ListRecent returns up to limit runs, newest first, without results.
	ListRecent(ctx context.Context, limit int) ([]*models.Run, error)
}
