package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // run completed with no failures
	ExitFailure      = 1 // run completed but at least one action or calendar failed
	ExitCommandError = 2 // command error (bad config, store open failure, auth problems)
)

// ExitError carries a specific process exit code.
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

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// A nil error is success; a non-ExitError defaults to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter renders command results as text or a JSON envelope.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope for machine-readable output.
type Response struct {
	Status string `json:"status"`          // "ok" or "failed"
	Data   any    `json:"data,omitempty"`  // structured payload (e.g. the run report)
	Error  string `json:"error,omitempty"` // command-level error message
}

// Result writes the outcome of a run: the text rendering in text mode, the
// structured payload in JSON mode. ok=false marks a run that had failures.
func (f *OutputFormatter) Result(ok bool, text string, data any) error {
	if f.Format == "json" {
		status := "ok"
		if !ok {
			status = "failed"
		}
		return json.NewEncoder(f.Writer).Encode(Response{Status: status, Data: data})
	}
	_, err := fmt.Fprint(f.Writer, text)
	return err
}
