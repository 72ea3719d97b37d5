package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	pkgerrors "github.com/turtacn/CivicPulse/pkg/errors"
)

var runColumns = []string{
	"run_id", "status", "error_code", "error_message", "digest", "cache_hit", "archive_key",
	"total_requests", "chronic_hotspots", "high_priority_hotspots", "gap_neighborhoods", "completed_at",
}

type RunRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo *RunRepository
}

func (s *RunRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.repo = NewRunRepository(postgres.NewConnectionWithDB(s.db, nil), nil)
}

func (s *RunRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *RunRepoTestSuite) TestPublishRunCompleted() {
	at := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	evt := analysis.RunCompleted{
		RunID: "run-1", Status: analysis.RunStatusSucceeded, Digest: "abc", ArchiveKey: "analysis/runs/run-1/document.json",
		TotalRequests: 120, ChronicHotspots: 3, HighPriorityHotspots: 1, GapNeighborhoods: 2, CompletedAt: at,
	}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_runs")).
		WithArgs("run-1", "succeeded", "", "", "abc", false, "analysis/runs/run-1/document.json", 120, 3, 1, 2, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.PublishRunCompleted(context.Background(), evt))
}

func (s *RunRepoTestSuite) TestRecord_Failure() {
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_runs")).WillReturnError(errors.New("disk full"))

	err := s.repo.Record(context.Background(), analysis.RunCompleted{RunID: "run-2", Status: analysis.RunStatusFailed})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func (s *RunRepoTestSuite) TestRecord_RequiresRunID() {
	err := s.repo.Record(context.Background(), analysis.RunCompleted{})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func (s *RunRepoTestSuite) TestRecent() {
	at := time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery("SELECT run_id, .* FROM analysis_runs").
		WithArgs(DefaultRecentRuns).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-2", "rejected", "INPUT_001", "empty dataset", "", false, "", 0, 0, 0, 0, at).
			AddRow("run-1", "succeeded", "", "", "abc", true, "k", 120, 3, 1, 2, at.Add(-24*time.Hour)))

	runs, err := s.repo.Recent(context.Background(), 0)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal("run-2", runs[0].RunID)
	s.Equal("INPUT_001", runs[0].ErrorCode)
	s.Equal("empty dataset", runs[0].Error)
	s.True(runs[1].CacheHit)
	s.Equal(120, runs[1].TotalRequests)
}

func (s *RunRepoTestSuite) TestRecent_Error() {
	s.mock.ExpectQuery("SELECT run_id").WithArgs(5).WillReturnError(errors.New("boom"))

	_, err := s.repo.Recent(context.Background(), 5)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestRunRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RunRepoTestSuite))
}

//Personal.AI order the ending
