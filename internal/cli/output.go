package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"scoria/internal/registry"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // request reached the node and was refused
	ExitCommandError = 2 // bad flags, missing key, unreachable node
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as JSON or aligned text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// Print writes v as indented JSON in json mode, or the key/value pairs in
// text mode.
func (f *OutputFormatter) Print(v any, pairs ...string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if _, err := fmt.Fprintf(f.Writer, "%-10s %s\n", pairs[i]+":", pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func attributePairs(prefix []string, attrs []registry.Attribute) []string {
	pairs := append([]string{}, prefix...)
	for _, attr := range attrs {
		pairs = append(pairs, attr.Key, attr.Value)
	}
	return pairs
}
