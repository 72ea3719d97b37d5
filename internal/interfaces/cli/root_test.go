package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/testutil"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// harness runs the root command against fakes and captures its output.
type harness struct {
	t   *testing.T
	dir string

	configPath string
	out        *bytes.Buffer
	errOut     *bytes.Buffer
	log        *testutil.MockLogger
	logCfg     logging.LogConfig

	migrator *fakeMigrator
	pgConfig config.PostgresConfig

	infra   *bootstrap.Infrastructure
	openErr error
	needs   []bootstrap.Needs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		t:          t,
		dir:        dir,
		configPath: filepath.Join(dir, "civicpulse.yaml"),
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
		log:        testutil.NewMockLogger(),
		migrator:   &fakeMigrator{},
	}
	h.write("civicpulse.yaml", "log:\n  level: info\npostgres:\n  host: db.internal\n")
	return h
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	p := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		OpenInfrastructure: func(ctx context.Context, cfg *config.Config, needs bootstrap.Needs, log logging.Logger) (*bootstrap.Infrastructure, error) {
			h.needs = append(h.needs, needs)
			if h.openErr != nil {
				return nil, h.openErr
			}
			if h.infra != nil {
				return h.infra, nil
			}
			return bootstrap.Open(ctx, cfg, needs, log)
		},
		NewMigrator: func(cfg config.PostgresConfig, _ logging.Logger) Migrator {
			h.pgConfig = cfg
			return h.migrator
		},
		NewLogger: func(cfg logging.LogConfig) (logging.Logger, error) {
			h.logCfg = cfg
			return h.log, nil
		},
	}
}

func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	root := NewRootCommand(h.deps())
	root.SetArgs(append([]string{"--config", h.configPath, "--no-color"}, args...))
	root.SetOut(h.out)
	root.SetErr(h.errOut)
	return root.ExecuteContext(context.Background())
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand(Dependencies{})
	assert.Equal(t, "civicpulse", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"analyze", "import", "migrate", "version"}, names)

	for _, flag := range []string{"config", "log-level", "output-format", "verbose", "no-color", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestPersistentPreRun_LoggerSettings(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("version"))
	assert.Equal(t, "info", h.logCfg.Level)
	assert.Equal(t, "console", h.logCfg.Format)
	assert.Equal(t, []string{"stderr"}, h.logCfg.OutputPaths)

	require.NoError(t, h.run("--log-level", "warn", "version"))
	assert.Equal(t, "warn", h.logCfg.Level)

	require.NoError(t, h.run("--log-level", "warn", "--verbose", "version"))
	assert.Equal(t, "debug", h.logCfg.Level)
}

func TestPersistentPreRun_Errors(t *testing.T) {
	h := newHarness(t)

	err := h.run("--output-format", "xml", "version")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	h.configPath = filepath.Join(h.dir, "missing.yaml")
	err = h.run("version")
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigurationErr))
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("version"))
	assert.Contains(t, h.out.String(), "civicpulse "+Version)

	require.NoError(t, h.run("--output-format", "json", "version"))
	var info BuildInfo
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &info))
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitInputError, ExitCode(errors.New(errors.ErrCodeEmptyDataset, "empty")))
	assert.Equal(t, ExitInputError, ExitCode(fmt.Errorf("run: %w", errors.New(errors.ErrCodeMalformedInput, "bad row"))))
	assert.Equal(t, ExitFailure, ExitCode(errors.New(errors.ErrCodeDatabaseError, "down")))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewVersionCmd()
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

//Personal.AI order the ending
