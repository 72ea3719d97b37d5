package postgres

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/migrations"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/CivicPulse/pkg/errors"
)

type fakeRunner struct {
	upErr      error
	stepsErr   error
	steps      []int
	version    uint
	dirty      bool
	versionErr error
	forced     []int
	closed     int
}

func (f *fakeRunner) Up() error { return f.upErr }

func (f *fakeRunner) Steps(n int) error {
	f.steps = append(f.steps, n)
	return f.stepsErr
}

func (f *fakeRunner) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }

func (f *fakeRunner) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func (f *fakeRunner) Close() (error, error) {
	f.closed++
	return nil, nil
}

func newFakeMigrator(r *fakeRunner) *Migrator {
	return &Migrator{
		open:   func() (migrationRunner, error) { return r, nil },
		logger: logging.NewNopLogger(),
	}
}

func TestEmbeddedMigrations_AreComplete(t *testing.T) {
	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)

	var versions []uint
	for {
		versions = append(versions, v)

		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "version %d has no up script", v)
		body, err := io.ReadAll(up)
		require.NoError(t, err)
		up.Close()
		assert.Contains(t, string(body), "CREATE TABLE")

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d has no down script", v)
		down.Close()

		v, err = src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, []uint{1, 2, 3}, versions)
}

func TestMigrator_Up(t *testing.T) {
	r := &fakeRunner{version: 3}
	require.NoError(t, newFakeMigrator(r).Up())
	assert.Equal(t, 1, r.closed)
}

func TestMigrator_Up_NoChange(t *testing.T) {
	r := &fakeRunner{upErr: migrate.ErrNoChange, version: 3}
	assert.NoError(t, newFakeMigrator(r).Up())
}

func TestMigrator_Up_Failure(t *testing.T) {
	r := &fakeRunner{upErr: errors.New("syntax error at or near")}
	err := newFakeMigrator(r).Up()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMigrationFailed))
	assert.Equal(t, 1, r.closed)
}

func TestMigrator_Down(t *testing.T) {
	r := &fakeRunner{}
	m := newFakeMigrator(r)

	require.NoError(t, m.Down(2))
	assert.Equal(t, []int{-2}, r.steps)

	err := m.Down(0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeInvalidParam))
	assert.Len(t, r.steps, 1)

	r.stepsErr = migrate.ErrNoChange
	err = m.Down(1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMigrationFailed))
	assert.Contains(t, err.Error(), "no migrations to roll back")
}

func TestMigrator_Version(t *testing.T) {
	r := &fakeRunner{version: 2, dirty: true}
	v, dirty, err := newFakeMigrator(r).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.True(t, dirty)

	r = &fakeRunner{version: 7, versionErr: migrate.ErrNilVersion}
	v, dirty, err = newFakeMigrator(r).Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	r = &fakeRunner{versionErr: errors.New("relation does not exist")}
	_, _, err = newFakeMigrator(r).Version()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMigrationFailed))
}

func TestMigrator_Force(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, newFakeMigrator(r).Force(2))
	assert.Equal(t, []int{2}, r.forced)
}

func TestMigrator_OpenFailure(t *testing.T) {
	m := &Migrator{
		open:   func() (migrationRunner, error) { return nil, errors.New("dial tcp: connection refused") },
		logger: logging.NewNopLogger(),
	}
	err := m.Up()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMigrationFailed))
}

//Personal.AI order the ending
