package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateResult is the JSON payload of the migrate command.
type MigrateResult struct {
	Database      string `json:"database"`
	SchemaVersion int    `json:"schema_version"`
	Records       int    `json:"records"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the record store",
		Long: `Open the record store, creating it or upgrading an older layout to the
current schema, and report the resulting schema version.

Example:
  callerid migrate --db ./callerid.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	version, err := e.store.SchemaVersion(ctx)
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to read schema version", err)
	}
	count, err := e.store.Count(ctx)
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to count records", err)
	}

	res := MigrateResult{Database: e.cfg.DBPath, SchemaVersion: version, Records: count}
	if e.formatter.Format == "json" {
		return e.formatter.Success(res)
	}
	return e.formatter.Success(fmt.Sprintf("%s: schema version %d, %d records", res.Database, res.SchemaVersion, res.Records))
}
