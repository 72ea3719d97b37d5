package cli

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

func expectImport(mock sqlmock.Sqlmock, table string, rows int) {
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO " + table))
	for i := 0; i < rows; i++ {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func TestImport_RequestsAndPosts(t *testing.T) {
	h := newHarness(t)
	requests, posts := h.fixtures()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h.infra = &bootstrap.Infrastructure{Postgres: postgres.NewConnectionWithDB(db, nil)}

	expectImport(mock, "service_requests", 6)
	expectImport(mock, "weak_signal_posts", 3)
	mock.ExpectClose()

	require.NoError(t, h.run("--output-format", "json", "import", "--requests", requests, "--posts", posts))

	var res ImportResult
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &res))
	assert.Equal(t, ImportResult{Requests: 6, Posts: 3}, res)
	require.Len(t, h.needs, 1)
	assert.Equal(t, bootstrap.Needs{Postgres: true}, h.needs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_PostsOnly(t *testing.T) {
	h := newHarness(t)
	_, posts := h.fixtures()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h.infra = &bootstrap.Infrastructure{Postgres: postgres.NewConnectionWithDB(db, nil)}

	expectImport(mock, "weak_signal_posts", 3)
	mock.ExpectClose()

	require.NoError(t, h.run("import", "--posts", posts))
	assert.Contains(t, h.out.String(), "OK: imported 0 service requests and 3 posts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_NothingToImport(t *testing.T) {
	h := newHarness(t)

	err := h.run("import")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
	assert.Empty(t, h.needs)
}

func TestImport_BadFilesFailBeforeConnecting(t *testing.T) {
	h := newHarness(t)
	bad := h.write("bad.csv", "id,body\n1,hello\n")

	err := h.run("import", "--posts", bad)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingColumn))
	assert.Equal(t, ExitInputError, ExitCode(err))

	err = h.run("import", "--requests", h.dir+"/missing.csv")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceUnavailable))
	assert.Empty(t, h.needs)
}

func TestImport_NoPostgres(t *testing.T) {
	h := newHarness(t)
	requests, _ := h.fixtures()
	h.infra = &bootstrap.Infrastructure{}

	err := h.run("import", "--requests", requests)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigurationErr))
}

//Personal.AI order the ending
