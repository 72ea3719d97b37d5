package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/CivicPulse/pkg/errors"
)

// MigrationStatus is the --output-format json result of migrate version.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// NewMigrateCmd creates the migrate command for the staging schema.
func NewMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the staging database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil {
				return err
			}
			PrintSuccess(cmd, "migrations applied")
			return nil
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), MigrationStatus{Version: v, Dirty: dirty})
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", v, state)
			return nil
		},
	}

	forceCmd := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return errors.Newf(errors.ErrCodeInvalidParam, "invalid version %q", args[0])
			}
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Force(v); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", v))
			return nil
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
	return migrateCmd
}

func migratorFor(cmd *cobra.Command) (Migrator, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return cliCtx.Deps.NewMigrator(cliCtx.Config.Postgres, cliCtx.Logger), nil
}

//Personal.AI order the ending
