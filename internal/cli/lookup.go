package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/callerid/internal/directory"
	"github.com/roach88/callerid/internal/photocache"
)

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <number>",
		Short: "Answer a dialer phone lookup",
		Long: `Run the directory phone lookup the dialer performs for an incoming or
outgoing number and print the resulting row.

Example:
  callerid lookup +919876543210`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(rootOpts, args[0], cmd)
		},
	}
}

func runLookup(opts *RootOptions, number string, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	photos, err := photocache.New(e.cfg.PhotoDir,
		photocache.WithTTL(e.cfg.PhotoTTL),
		photocache.WithLogger(e.log.Logger),
	)
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeConfig, "failed to open photo cache", err)
	}

	p := directory.New(directory.Config{
		Authority:     e.cfg.Authority,
		AppName:       e.cfg.AppName,
		DefaultLabel:  e.cfg.DefaultLabel,
		TokenTTL:      e.cfg.PhotoTTL,
		LookupTimeout: e.cfg.LookupTimeout,
	}, e.repo, photos, directory.WithLogger(e.log.Logger))

	cur := p.LookupPhone(cmd.Context(), number, nil)
	if cur.Len() == 0 {
		return e.formatter.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no record for %s", number), nil)
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(cur)
	}

	tw := tabwriter.NewWriter(e.formatter.Writer, 0, 4, 2, ' ', 0)
	for _, col := range cur.Columns {
		v, _ := cur.Value(0, col)
		if v == nil {
			v = ""
		}
		fmt.Fprintf(tw, "%s:\t%v\n", col, v)
	}
	return tw.Flush()
}
