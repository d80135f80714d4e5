package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callerid/internal/caller"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <number>",
		Short: "Show the record for a phone number",
		Long: `Show the record stored under a phone number. The number may be the full
international number (with or without "+") or the national number.

Example:
  callerid get +919876543210
  callerid get 9876543210 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}
}

func runGet(opts *RootOptions, number string, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	rec, err := e.store.Get(cmd.Context(), caller.NormalizeNumber(number))
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to read record", err)
	}
	if rec == nil {
		return e.formatter.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no record for %s", number), nil)
	}
	return e.formatter.Record(*rec)
}

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Record caller.Record
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <number>",
		Short: "Add or replace a record",
		Long: `Add a record for a full international phone number, replacing any record
already stored under it. When --national is omitted and --region names a
known country, the national number is derived by stripping the region's
calling code.

Example:
  callerid put +919876543210 --name "Asha Rao" --prefix Dr. --region IN
  callerid put 14155550100 --name "Front Desk" --labels Work`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(opts, args[0], cmd)
		},
	}

	r := &opts.Record
	cmd.Flags().StringVar(&r.Name, "name", "", "caller name (required)")
	cmd.Flags().StringVar(&r.PhoneNumber, "national", "", "national number")
	cmd.Flags().StringVar(&r.CountryCode, "region", "", "ISO 3166 region of the number")
	cmd.Flags().StringVar(&r.Prefix, "prefix", "", "name prefix, e.g. Dr.")
	cmd.Flags().StringVar(&r.Suffix, "suffix", "", "name suffix, e.g. MD")
	cmd.Flags().StringVar(&r.Appointment, "appointment", "", "appointment text")
	cmd.Flags().StringVar(&r.Location, "location", "", "location")
	cmd.Flags().StringVar(&r.Email, "email", "", "email address")
	cmd.Flags().StringVar(&r.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&r.Website, "website", "", "website")
	cmd.Flags().StringVar(&r.Birthday, "birthday", "", "birthday")
	cmd.Flags().StringVar(&r.Labels, "labels", "", "label shown by the dialer")
	cmd.Flags().StringVar(&r.Nickname, "nickname", "", "nickname")
	cmd.Flags().StringVar(&r.Photo, "photo", "", "photo as base64 or a data URI")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runPut(opts *PutOptions, number string, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	rec := opts.Record
	rec.FullPhoneNumber = number
	rec = completeRecord(rec)
	if !rec.Valid() {
		return e.formatter.fail(ExitFailure, ErrCodeInvalid, "name and number are required", nil)
	}

	if err := e.store.Put(cmd.Context(), rec); err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to store record", err)
	}
	e.formatter.VerboseLog("stored %s", rec.FullPhoneNumber)
	return e.formatter.Record(rec)
}

// completeRecord normalizes rec and fills the national number from the
// region's calling code when it is missing.
func completeRecord(rec caller.Record) caller.Record {
	rec = rec.Normalized()
	if rec.PhoneNumber == "" && rec.CountryCode != "" {
		if national := caller.StripCallingCode(rec.CountryCode, rec.FullPhoneNumber); national != rec.FullPhoneNumber {
			rec.PhoneNumber = national
		}
	}
	return rec
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all records",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	recs, err := e.store.ListAll(cmd.Context())
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to list records", err)
	}
	return e.formatter.Records(recs)
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "keys",
		Short:         "List the full phone number of every record",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(rootOpts, cmd)
		},
	}
}

func runKeys(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	keys, err := e.store.ListAllKeys(cmd.Context())
	if err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to list keys", err)
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(keys)
	}
	for _, k := range keys {
		fmt.Fprintln(e.formatter.Writer, k)
	}
	return nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>...",
		Short: "Delete records by full phone number",
		Long: `Delete the records stored under the given full phone numbers. Numbers
without a record are ignored.

Example:
  callerid delete 919876543210 14155550100`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args, cmd)
		},
	}
}

func runDelete(opts *RootOptions, numbers []string, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	keys := make([]string, len(numbers))
	for i, n := range numbers {
		keys[i] = caller.NormalizeNumber(n)
	}
	if err := e.store.DeleteMany(cmd.Context(), keys); err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to delete records", err)
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]any{"deleted": keys})
	}
	return e.formatter.Success(fmt.Sprintf("deleted %s", strings.Join(keys, ", ")))
}

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete every record",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deleting every record")

	return cmd
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		f := newFormatter(opts.RootOptions, cmd)
		return f.fail(ExitCommandError, ErrCodeInvalid, "refusing to clear without --yes", nil)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.Clear(cmd.Context()); err != nil {
		return e.formatter.fail(ExitCommandError, ErrCodeStore, "failed to clear records", err)
	}
	return e.formatter.Success("cleared")
}
