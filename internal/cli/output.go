package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/callerid/internal/caller"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (record not found, scenario failed, etc.)
	ExitCommandError = 2 // Command error (bad config, database cannot be opened, etc.)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration could not be loaded
	ErrCodeStore       = "E003" // Store could not be opened or failed
	ErrCodeNotFound    = "E004" // No record for the number
	ErrCodeInvalid     = "E005" // Invalid record or argument
	ErrCodeReadFailed  = "E006" // Input file could not be read
	ErrCodeScenario    = "E007" // Scenario failed to load or run
	ErrCodeAssertions  = "E008" // Scenario assertions failed
	ErrCodeServeFailed = "E009" // Daemon stopped with an error
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Records outputs records as a JSON list or as an aligned table.
func (f *OutputFormatter) Records(recs []caller.Record) error {
	if f.Format == "json" {
		return f.Success(recs)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNATIONAL\tREGION\tNAME\tLABEL")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.FullPhoneNumber, r.PhoneNumber, r.CountryCode, r.DisplayName(), r.Label(caller.DefaultLabel))
	}
	return tw.Flush()
}

// Record outputs one record, field by field in text mode.
func (f *OutputFormatter) Record(r caller.Record) error {
	if f.Format == "json" {
		return f.Success(r)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fields := []struct{ name, value string }{
		{"Number", r.FullPhoneNumber},
		{"National", r.PhoneNumber},
		{"Region", r.CountryCode},
		{"Name", r.DisplayName()},
		{"Appointment", r.Appointment},
		{"Location", r.Location},
		{"Email", r.Email},
		{"Notes", r.Notes},
		{"Website", r.Website},
		{"Birthday", r.Birthday},
		{"Labels", r.Labels},
		{"Nickname", r.Nickname},
	}
	for _, fld := range fields {
		if fld.value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", fld.name, fld.value)
		}
	}
	if r.Photo != "" {
		fmt.Fprintf(tw, "Photo:\t%d bytes encoded\n", len(r.Photo))
	}
	return tw.Flush()
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// fail reports an error and returns the ExitError carrying code.
func (f *OutputFormatter) fail(exitCode int, errCode, message string, err error) error {
	var details any
	if err != nil {
		details = err.Error()
	}
	_ = f.Error(errCode, message, details)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", errCode, message), err)
}
