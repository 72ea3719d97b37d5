package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/config"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// TriggeredByCLI marks runs started from the command line.
const TriggeredByCLI = "cli"

// stdoutPath writes the document to standard output.
const stdoutPath = "-"

type analyzeOptions struct {
	requests string
	posts    string
	output   string
	format   string
	top      int
	source   string
	pretty   bool
	archive  bool
	noCache  bool
}

// RunSummary is the --output-format json result of analyze.
type RunSummary struct {
	RunID       string                        `json:"run_id"`
	Output      string                        `json:"output"`
	Format      string                        `json:"format"`
	CacheHit    bool                          `json:"cache_hit"`
	Digest      string                        `json:"digest,omitempty"`
	ArchiveKey  string                        `json:"archive_key,omitempty"`
	Sanitize    servicerequest.SanitizeReport `json:"sanitize"`
	Summary     domainanalysis.Summary        `json:"summary"`
	TopHotspots []domainanalysis.Hotspot      `json:"top_hotspots"`
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and write the result document",
		Long: "Load a service-request snapshot (and optionally weak-signal posts), run the\n" +
			"hotspot, neighborhood, gap and category analyses, write the document and\n" +
			"print a summary report.",
		Example: "  civicpulse analyze --requests data/311.csv --posts data/reddit.csv --output out.json\n" +
			"  civicpulse analyze --source postgres --format yaml --output - --top 5",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, cliCtx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.requests, "requests", "", "service request CSV (overrides input.requests_path)")
	f.StringVar(&opts.posts, "posts", "", "weak-signal post CSV (overrides input.posts_path)")
	f.StringVar(&opts.output, "output", "", "document path, - for stdout (overrides output.path)")
	f.StringVar(&opts.format, "format", "", "document format: json|yaml (overrides output.format)")
	f.IntVar(&opts.top, "top", 0, "hotspots shown in the report (overrides output.top)")
	f.StringVar(&opts.source, "source", "", "input source: csv|minio|postgres (overrides input.source)")
	f.BoolVar(&opts.pretty, "pretty", true, "indent the document")
	f.BoolVar(&opts.archive, "archive", false, "archive the document and inputs to object storage")
	f.BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache")
	return cmd
}

// applyTo overlays explicitly set flags on a copy of the configuration.
func (o *analyzeOptions) applyTo(cmd *cobra.Command, base *config.Config) config.Config {
	cfg := *base
	f := cmd.Flags()
	if f.Changed("requests") {
		cfg.Input.RequestsPath = o.requests
		if !f.Changed("source") {
			cfg.Input.Source = config.SourceCSV
		}
		// Explicit files replace the configured pair.
		if !f.Changed("posts") {
			cfg.Input.PostsPath = ""
		}
	}
	if f.Changed("posts") {
		cfg.Input.PostsPath = o.posts
	}
	if f.Changed("output") {
		cfg.Output.Path = o.output
	}
	if f.Changed("format") {
		cfg.Output.Format = o.format
	}
	if f.Changed("top") {
		cfg.Output.Top = o.top
	}
	if f.Changed("source") {
		cfg.Input.Source = strings.ToLower(o.source)
	}
	if f.Changed("pretty") {
		cfg.Output.Pretty = o.pretty
	}
	return cfg
}

func runAnalyze(cmd *cobra.Command, cliCtx *CLIContext, opts *analyzeOptions) error {
	cfg := opts.applyTo(cmd, cliCtx.Config)
	log := cliCtx.Logger.Named("analyze")

	format, err := analysis.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	switch cfg.Input.Source {
	case config.SourceCSV, config.SourceMinIO, config.SourcePostgres:
	default:
		return errors.Newf(errors.ErrCodeInvalidParam, "unsupported --source %q", cfg.Input.Source)
	}
	if opts.archive && !cfg.MinIO.Enabled {
		return errors.New(errors.ErrCodeConfigurationErr, "--archive needs minio.enabled")
	}

	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()

	needs := bootstrap.Needs{
		Postgres:   cfg.Input.Source == config.SourcePostgres,
		Redis:      !opts.noCache,
		MinIO:      opts.archive || cfg.Input.Source == config.SourceMinIO,
		OpenSearch: cfg.OpenSearch.Enabled,
	}
	infra, err := cliCtx.Deps.OpenInfrastructure(ctx, &cfg, needs, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := bootstrap.NewService(&cfg, infra, bootstrap.ServiceOptions{NoCache: opts.noCache}, log)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, analysis.RunRequest{
		Source:      cfg.Input.Source,
		NoCache:     opts.noCache,
		Archive:     opts.archive,
		TriggeredBy: TriggeredByCLI,
	})
	if err != nil {
		return err
	}

	data, err := analysis.EncodeDocument(res.Document, format, cfg.Output.Pretty)
	if err != nil {
		return err
	}
	report := cmd.OutOrStdout()
	if cfg.Output.Path == stdoutPath {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "write document")
		}
		report = cmd.ErrOrStderr()
	} else if err := writeFile(cfg.Output.Path, data); err != nil {
		return err
	}
	log.Info("analysis written",
		logging.String("run_id", res.RunID.String()),
		logging.String("path", cfg.Output.Path),
		logging.String("format", string(format)),
		logging.Int("hotspots", len(res.Document.Hotspots)))

	if cliCtx.OutputFormat == OutputJSON {
		return printJSON(report, RunSummary{
			RunID:       res.RunID.String(),
			Output:      cfg.Output.Path,
			Format:      string(format),
			CacheHit:    res.CacheHit,
			Digest:      res.Digest,
			ArchiveKey:  res.ArchiveKey,
			Sanitize:    res.Sanitize,
			Summary:     res.Document.Summary,
			TopHotspots: res.Document.TopHotspots(cfg.Output.Top),
		})
	}
	WriteReport(report, res, cfg.Output.Top, cliCtx.NoColor)
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "create output directory").WithDetail(dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "write document").WithDetail(path)
	}
	return nil
}

//Personal.AI order the ending
