//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idmatch/internal/verify/models"
	"idmatch/internal/verify/store"
	"idmatch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.Migrate(s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "run_results", "runs"))
}

func newTestRun(startedAt time.Time) *models.Run {
	run := models.NewRun("ids.xlsx", startedAt)
	run.Complete([]models.RowResult{
		{Position: 2, RowID: "u-1", SheetID: "29801011234567", ExtractedID: "29801011234567", Match: true, ImagePath: "row_2.jpg"},
		{Position: 3, RowID: "u-2", SheetID: "30102251234567", ExtractedID: "", Match: false, Note: "download failed: 403"},
	}, startedAt.Add(time.Minute))
	return run
}

func (s *PostgresStoreSuite) TestSaveAndFindRoundTrip() {
	ctx := context.Background()
	run := newTestRun(time.Now().UTC().Truncate(time.Microsecond))

	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.FindByID(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.RunStatusCompleted, found.Status)
	s.Equal("ids.xlsx", found.SourceFile)
	s.Require().Len(found.Results, 2)
	s.Equal(2, found.Results[0].Position)
	s.True(found.Results[0].Match)
	s.Equal("row_2.jpg", found.Results[0].ImagePath)
	s.Equal("download failed: 403", found.Results[1].Note)
}

func (s *PostgresStoreSuite) TestSaveIsIdempotentUpsert() {
	ctx := context.Background()
	run := models.NewRun("ids.xlsx", time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, run))

	run.Complete([]models.RowResult{
		{Position: 2, RowID: "u-1", SheetID: "29801011234567", ExtractedID: "29801011234567", Match: true},
	}, time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.FindByID(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.RunStatusCompleted, found.Status)
	s.Len(found.Results, 1)
	s.False(found.FinishedAt.IsZero())
}

func (s *PostgresStoreSuite) TestFindUnknownID() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListRecent() {
	ctx := context.Background()
	base := time.Now().UTC()
	older := newTestRun(base.Add(-time.Hour))
	newer := newTestRun(base)
	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))

	runs, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(newer.ID, runs[0].ID)
	s.Equal(older.ID, runs[1].ID)
	s.Nil(runs[0].Results)
}
