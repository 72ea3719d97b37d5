package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/pkg/errors"
)

type fakeMigrator struct {
	upCalls   int
	downSteps []int
	forced    []int
	version   uint
	dirty     bool
	err       error
}

func (m *fakeMigrator) Up() error {
	m.upCalls++
	return m.err
}

func (m *fakeMigrator) Down(steps int) error {
	m.downSteps = append(m.downSteps, steps)
	return m.err
}

func (m *fakeMigrator) Version() (uint, bool, error) {
	return m.version, m.dirty, m.err
}

func (m *fakeMigrator) Force(version int) error {
	m.forced = append(m.forced, version)
	return m.err
}

func TestMigrateUp(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("migrate", "up"))
	assert.Equal(t, 1, h.migrator.upCalls)
	assert.Contains(t, h.out.String(), "OK: migrations applied")
	assert.Equal(t, "db.internal", h.pgConfig.Host)
}

func TestMigrateUp_Error(t *testing.T) {
	h := newHarness(t)
	h.migrator.err = errors.New(errors.ErrCodeMigrationFailed, "boom")

	err := h.run("migrate", "up")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMigrationFailed))
	assert.NotContains(t, h.out.String(), "OK:")
}

func TestMigrateDown(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("migrate", "down"))
	require.NoError(t, h.run("migrate", "down", "--steps", "2"))
	assert.Equal(t, []int{1, 2}, h.migrator.downSteps)
	assert.Contains(t, h.out.String(), "rolled back 2 migration(s)")
}

func TestMigrateVersion(t *testing.T) {
	h := newHarness(t)
	h.migrator.version = 4
	h.migrator.dirty = true

	require.NoError(t, h.run("migrate", "version"))
	assert.Equal(t, "schema version 4 (dirty)\n", h.out.String())

	require.NoError(t, h.run("--output-format", "json", "migrate", "version"))
	var status MigrationStatus
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &status))
	assert.Equal(t, MigrationStatus{Version: 4, Dirty: true}, status)
}

func TestMigrateForce(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("migrate", "force", "3"))
	assert.Equal(t, []int{3}, h.migrator.forced)
	assert.Contains(t, h.out.String(), "schema version forced to 3")

	for _, arg := range []string{"abc", "-1"} {
		err := h.run("migrate", "force", "--", arg)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam), arg)
	}
	assert.Equal(t, []int{3}, h.migrator.forced)
}

//Personal.AI order the ending
