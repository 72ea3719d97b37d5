package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/CivicPulse/internal/bootstrap"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/csvsource"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// ImportResult is the --output-format json result of import.
type ImportResult struct {
	Requests int `json:"requests"`
	Posts    int `json:"posts"`
}

// NewImportCmd creates the import command that stages CSV exports in
// PostgreSQL for the postgres input source.
func NewImportCmd() *cobra.Command {
	var requestsPath, postsPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stage CSV exports in the database",
		Long: "Read a service-request export and, optionally, a weak-signal export and\n" +
			"upsert them into the staging tables read by --source postgres.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if requestsPath == "" && postsPath == "" {
				return errors.New(errors.ErrCodeInvalidParam, "nothing to import: pass --requests and/or --posts")
			}
			return runImport(cmd, cliCtx, requestsPath, postsPath)
		},
	}
	cmd.Flags().StringVar(&requestsPath, "requests", "", "service request CSV")
	cmd.Flags().StringVar(&postsPath, "posts", "", "weak-signal post CSV")
	return cmd
}

func runImport(cmd *cobra.Command, cliCtx *CLIContext, requestsPath, postsPath string) error {
	log := cliCtx.Logger.Named("import")
	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()

	// Parse before connecting so bad files fail fast.
	var records []servicerequest.ServiceRequest
	if requestsPath != "" {
		ds, err := readFile(requestsPath, func(f *os.File) (*servicerequest.Dataset, error) {
			return csvsource.ReadRequests(f)
		})
		if err != nil {
			return err
		}
		records = ds.Requests
	}
	var posts []servicerequest.WeakSignalPost
	if postsPath != "" {
		p, err := readFile(postsPath, func(f *os.File) ([]servicerequest.WeakSignalPost, error) {
			return csvsource.ReadPosts(f)
		})
		if err != nil {
			return err
		}
		posts = p
	}

	cfg := *cliCtx.Config
	cfg.Postgres.Enabled = true
	infra, err := cliCtx.Deps.OpenInfrastructure(ctx, &cfg, bootstrap.Needs{Postgres: true}, log)
	if err != nil {
		return err
	}
	defer infra.Close()
	if infra.Postgres == nil {
		return errors.New(errors.ErrCodeConfigurationErr, "import needs a postgres connection")
	}

	res, err := importAll(ctx, infra, records, posts, log)
	if err != nil {
		return err
	}
	if cliCtx.OutputFormat == OutputJSON {
		return printJSON(cmd.OutOrStdout(), res)
	}
	PrintSuccess(cmd, fmt.Sprintf("imported %d service requests and %d posts", res.Requests, res.Posts))
	return nil
}

func importAll(ctx context.Context, infra *bootstrap.Infrastructure, records []servicerequest.ServiceRequest, posts []servicerequest.WeakSignalPost, log logging.Logger) (ImportResult, error) {
	var res ImportResult
	var err error
	if len(records) > 0 {
		if res.Requests, err = repositories.NewRequestRepository(infra.Postgres, log).Import(ctx, records); err != nil {
			return res, err
		}
	}
	if len(posts) > 0 {
		if res.Posts, err = repositories.NewPostRepository(infra.Postgres, log).Import(ctx, posts); err != nil {
			return res, err
		}
	}
	return res, nil
}

func readFile[T any](path string, read func(f *os.File) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "input file missing").WithDetail(path)
		}
		return zero, errors.Wrap(err, errors.ErrCodeInternal, "open input file").WithDetail(path)
	}
	defer f.Close()
	return read(f)
}

//Personal.AI order the ending
