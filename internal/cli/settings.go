package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callerid/internal/bridge"
	"github.com/roach88/callerid/internal/platform"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
	}

	cmd.AddCommand(newShowPopupCommand(rootOpts))
	cmd.AddCommand(newCountryCommand(rootOpts))

	return cmd
}

func newShowPopupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show-popup [on|off]",
		Short: "Show or set whether the incoming-call overlay is shown",
		Long: `Without an argument, print whether the incoming-call overlay is enabled.
With "on" or "off" (or any boolean), store the new value.

Example:
  callerid settings show-popup
  callerid settings show-popup off`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowPopup(rootOpts, args, cmd)
		},
	}
}

// parseSwitch accepts on/off next to the strconv boolean spellings.
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func runShowPopup(opts *RootOptions, args []string, cmd *cobra.Command) error {
	var (
		set  bool
		show bool
	)
	if len(args) == 1 {
		v, err := parseSwitch(args[0])
		if err != nil {
			f := newFormatter(opts, cmd)
			return f.fail(ExitCommandError, ErrCodeInvalid, fmt.Sprintf("invalid value %q: want on or off", args[0]), nil)
		}
		set, show = true, v
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	if set {
		if err := e.store.Settings().SetShowPopup(ctx, show); err != nil {
			return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to store setting", err)
		}
	} else {
		show, err = e.store.Settings().ShowPopup(ctx)
		if err != nil {
			return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to read setting", err)
		}
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]bool{"show": show})
	}
	if show {
		return e.formatter.Success("show-popup: on")
	}
	return e.formatter.Success("show-popup: off")
}

func newCountryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "country",
		Short: "Print the dial country code",
		Long: `Print the region used to interpret numbers without a calling code: the
SIM country when one is configured, otherwise the default country.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCountry(rootOpts, cmd)
		},
	}
}

func runCountry(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	dev := platform.NewStatic(e.cfg.Platform.OverlayPermission, e.cfg.Platform.AutoGrant, e.cfg.Platform.SimCountry)
	b := bridge.New(e.repo, dev, dev,
		bridge.WithDefaultCountry(e.cfg.DefaultCountry),
		bridge.WithLogger(e.log.Logger),
	)

	region := b.GetDialCountryCode()
	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]string{"country": region})
	}
	return e.formatter.Success(region)
}
