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

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	pkgerrors "github.com/turtacn/CivicPulse/pkg/errors"
)

type PostRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo *PostRepository
}

func (s *PostRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	s.repo = NewPostRepository(postgres.NewConnectionWithDB(s.db, nil), nil)
}

func (s *PostRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *PostRepoTestSuite) TestLoadPosts() {
	created := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery("SELECT post_id, .* FROM weak_signal_posts").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "category", "title", "body", "created_at", "location_hints"}).
			AddRow("p1", "pothole", "Huge pothole", "on Pratt", created, `{"Pratt St","Fells Point"}`).
			AddRow("p2", "", "", "", nil, `{}`))

	posts, err := s.repo.LoadPosts(context.Background())
	s.Require().NoError(err)
	s.Require().Len(posts, 2)
	s.Equal([]string{"Pratt St", "Fells Point"}, posts[0].LocationHints)
	s.Equal("on Pratt", posts[0].Text)
	s.Require().NotNil(posts[0].CreatedAt)
	s.True(created.Equal(*posts[0].CreatedAt))
	s.Equal([]string{}, posts[1].LocationHints)
	s.Nil(posts[1].CreatedAt)
}

func (s *PostRepoTestSuite) TestLoadPosts_EmptyTableIsAbsent() {
	s.mock.ExpectQuery("SELECT post_id").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "category", "title", "body", "created_at", "location_hints"}))

	posts, err := s.repo.LoadPosts(context.Background())
	s.NoError(err)
	s.Nil(posts)
}

func (s *PostRepoTestSuite) TestLoadPosts_Error() {
	s.mock.ExpectQuery("SELECT post_id").WillReturnError(errors.New("timeout"))

	_, err := s.repo.LoadPosts(context.Background())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSourceUnavailable))
}

func (s *PostRepoTestSuite) TestImport() {
	posts := []servicerequest.WeakSignalPost{
		{ID: "p1", Category: "pothole", Title: "t", Text: "body", LocationHints: []string{"Canton"}},
		{ID: "p2"},
	}

	s.mock.ExpectBegin()
	prep := s.mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO weak_signal_posts"))
	prep.ExpectExec().
		WithArgs("p1", "pothole", "t", "body", nil, `{"Canton"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("p2", "", "", "", nil, `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	n, err := s.repo.Import(context.Background(), posts)
	s.NoError(err)
	s.Equal(2, n)
}

func (s *PostRepoTestSuite) TestImport_BeginFails() {
	s.mock.ExpectBegin().WillReturnError(errors.New("conn busy"))

	_, err := s.repo.Import(context.Background(), []servicerequest.WeakSignalPost{{ID: "p1"}})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestPostRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PostRepoTestSuite))
}

//Personal.AI order the ending
