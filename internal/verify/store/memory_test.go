package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idmatch/internal/verify/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRun(startedAt time.Time) *models.Run {
	run := models.NewRun("ids.xlsx", startedAt)
	run.Complete([]models.RowResult{
		{Position: 2, RowID: "u-1", SheetID: "29801011234567", ExtractedID: "29801011234567", Match: true, ImagePath: "row_2.jpg"},
		{Position: 3, RowID: "u-2", SheetID: "30102251234567", ExtractedID: "", Match: false, Note: "download failed"},
	}, startedAt.Add(time.Minute))
	return run
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	run := s.newRun(time.Now())
	s.Require().NoError(s.store.Save(s.ctx, run))

	found, err := s.store.FindByID(s.ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.RunStatusCompleted, found.Status)
	s.Require().Len(found.Results, 2)
	s.Equal("u-1", found.Results[0].RowID)
	s.True(found.Results[0].Match)
	s.Equal("download failed", found.Results[1].Note)
}

func (s *MemoryStoreSuite) TestFindUnknownID() {
	_, err := s.store.FindByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestStoredRunIsIsolated() {
	run := s.newRun(time.Now())
	s.Require().NoError(s.store.Save(s.ctx, run))

	// Mutating the caller's copy must not leak into the store.
	run.Results[0].Match = false

	found, err := s.store.FindByID(s.ctx, run.ID)
	s.Require().NoError(err)
	s.True(found.Results[0].Match)
}

func (s *MemoryStoreSuite) TestListRecentOrdersNewestFirst() {
	base := time.Now()
	oldest := s.newRun(base.Add(-2 * time.Hour))
	middle := s.newRun(base.Add(-time.Hour))
	newest := s.newRun(base)
	for _, run := range []*models.Run{middle, oldest, newest} {
		s.Require().NoError(s.store.Save(s.ctx, run))
	}

	runs, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(newest.ID, runs[0].ID)
	s.Equal(middle.ID, runs[1].ID)
	// Summaries carry no row results.
	s.Nil(runs[0].Results)
}
