package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/callerid/internal/caller"
)

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Invalid  []string `json:"invalid,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a YAML or JSON file",
		Long: `Import a list of records from a YAML or JSON file ("-" reads stdin).
Records without a name or full phone number are skipped; the rest are
stored in one transaction, replacing records with the same number.

Example:
  callerid import ./contacts.yaml
  cat contacts.json | callerid import -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	recs, err := readRecords(path, cmd.InOrStdin())
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeReadFailed, "failed to read records", err)
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res := ImportResult{}
	valid := make([]caller.Record, 0, len(recs))
	for i, rec := range recs {
		rec = completeRecord(rec)
		if !rec.Valid() {
			res.Skipped++
			res.Invalid = append(res.Invalid, fmt.Sprintf("record %d: name and fullPhoneNumber are required", i))
			f.VerboseLog("skipping record %d", i)
			continue
		}
		valid = append(valid, rec)
	}

	if err := e.store.PutMany(cmd.Context(), valid); err != nil {
		return f.fail(ExitCommandError, ErrCodeStore, "failed to store records", err)
	}
	res.Imported = len(valid)

	if f.Format == "json" {
		return f.Success(res)
	}
	return f.Success(fmt.Sprintf("imported %d records, skipped %d", res.Imported, res.Skipped))
}

// readRecords decodes a record list. YAML is a superset of JSON, so one
// decoder reads both.
func readRecords(path string, stdin io.Reader) ([]caller.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var recs []caller.Record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, nil
}
