package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callerid/internal/harness"
	"github.com/roach88/callerid/internal/logger"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>...",
		Short: "Run call scenarios against the state machine",
		Long: `Run one or more call scenarios. Each scenario seeds a scratch record
store, feeds telephony events, timer advances and dismissals to the call
state machine on a fake clock, and checks its assertions against the
resulting trace.

Exit code 1 means at least one scenario's assertions failed.

Example:
  callerid simulate ./scenarios/duplicate_ringing.yaml
  callerid simulate ./scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, args, cmd)
		},
	}
}

// SimulateResult is one entry of the JSON payload of the simulate command.
type SimulateResult struct {
	Scenario string `json:"scenario"`
	*harness.Result
}

func runSimulate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
	if !opts.Verbose {
		log = logger.Discard()
	}

	var (
		results []SimulateResult
		failed  int
	)
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeScenario, fmt.Sprintf("failed to load %s", path), err)
		}

		res, err := harness.Run(cmd.Context(), s,
			harness.WithLogger(log.WithComponent("harness").Logger),
			harness.WithDriver(cfg.DBDriver),
		)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeScenario, fmt.Sprintf("failed to run %s", s.Name), err)
		}
		if !res.Pass {
			failed++
		}
		results = append(results, SimulateResult{Scenario: s.Name, Result: res})

		if f.Format != "json" {
			printScenario(f, s.Name, res)
		}
	}

	if f.Format == "json" {
		if failed > 0 {
			_ = f.Error(ErrCodeAssertions, fmt.Sprintf("%d of %d scenarios failed", failed, len(results)), results)
		} else if err := f.Success(results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d of %d scenarios failed", ErrCodeAssertions, failed, len(results)))
	}
	return nil
}

func printScenario(f *OutputFormatter, name string, res *harness.Result) {
	status := "PASS"
	if !res.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(f.Writer, "%s %s (final state %s)\n", status, name, res.State)

	if f.Verbose || !res.Pass {
		for _, e := range res.Trace {
			fmt.Fprintf(f.Writer, "  %s\n", harness.FormatEvent(e))
		}
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(f.Writer, "  error: %s\n", msg)
	}
}
