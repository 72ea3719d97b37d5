// Package cli implements the civicpulse command line: one-shot analysis runs,
// staging imports and schema migrations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInputError = 2
)

// Output formats for command results.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	Deps         Dependencies
}

// Migrator is the schema migration surface used by the migrate command.
type Migrator interface {
	Up() error
	Down(steps int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
}

// Dependencies are the factories commands build their collaborators with.
type Dependencies struct {
	OpenInfrastructure func(ctx context.Context, cfg *config.Config, needs bootstrap.Needs, log logging.Logger) (*bootstrap.Infrastructure, error)
	NewMigrator        func(cfg config.PostgresConfig, log logging.Logger) Migrator
	NewLogger          func(cfg logging.LogConfig) (logging.Logger, error)
}

// DefaultDependencies connects to the real backends.
func DefaultDependencies() Dependencies {
	return Dependencies{
		OpenInfrastructure: bootstrap.Open,
		NewMigrator: func(cfg config.PostgresConfig, log logging.Logger) Migrator {
			return postgres.NewMigrator(cfg, log)
		},
		NewLogger: logging.NewLogger,
	}
}

func (d Dependencies) withDefaults() Dependencies {
	def := DefaultDependencies()
	if d.OpenInfrastructure == nil {
		d.OpenInfrastructure = def.OpenInfrastructure
	}
	if d.NewMigrator == nil {
		d.NewMigrator = def.NewMigrator
	}
	if d.NewLogger == nil {
		d.NewLogger = def.NewLogger
	}
	return d
}

// NewRootCommand creates the root command with its global flags and every
// subcommand.
func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &RootOptions{}
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "civicpulse",
		Short: "CivicPulse finds chronic 311 hotspots and under-reported neighborhoods",
		Long: "CivicPulse analyzes a snapshot of Baltimore 311 service requests: it clusters\n" +
			"reports into chronic hotspots, flags likely failed fixes, summarizes every\n" +
			"neighborhood and compares official volume with social-media mentions.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./civicpulse.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.OutputFormat, "output-format", OutputText, "result format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "overall command timeout")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewImportCmd(),
		NewMigrateCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps Dependencies) error {
	switch strings.ToLower(opts.OutputFormat) {
	case OutputText, OutputJSON:
	default:
		return errors.Newf(errors.ErrCodeInvalidParam, "unsupported --output-format %q", opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigurationErr, "config initialization failed")
	}
	logger, err := initLogger(cfg, opts, deps)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigurationErr, "logger initialization failed")
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		Deps:         deps,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads the file named by --config, or the first of
// ./civicpulse.yaml, ~/.civicpulse/config.yaml and /etc/civicpulse/config.yaml.
// Environment overrides apply either way.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFromFile(opts.ConfigPath)
	}
	return config.Load()
}

// initLogger builds a console logger on stderr so stdout stays clean for
// documents and reports.
func initLogger(cfg *config.Config, opts *RootOptions, deps Dependencies) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return deps.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext applies the --timeout budget.
func (c *CLIContext) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(cmd.Context(), c.Timeout)
	}
	return context.WithCancel(cmd.Context())
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(DefaultDependencies())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		PrintError(root, err)
	}
	return ExitCode(err)
}

// ExitCode maps err to a process exit code: 2 for bad input data, 1 for
// anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsInputError(err):
		return ExitInputError
	default:
		return ExitFailure
	}
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

//Personal.AI order the ending
