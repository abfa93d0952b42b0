package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Input rejected or scenarios failed (parse error, invalid query, failed resolution)
	ExitCommandError = 2 // Command error (missing files, unreadable graph, etc.)
)

// ExitError carries the process exit code a command failed with.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // short description, usually a CLI error code
	Err     error  // cause, may be nil
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

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process exit code: ExitSuccess for
// nil, the ExitError's code when err wraps one, ExitFailure otherwise.
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

// ReportError prints err to w unless a command has already reported it.
// Commands report their own failures through OutputFormatter and return an
// ExitError; anything else, such as a flag parsing error from cobra, has not
// been shown yet.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fmt.Fprintln(w, err)
}

// OutputFormatter writes command output as text or as a JSON CLIResponse.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; falls back to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status    string    `json:"status"`               // "ok" or "error"
	Data      any       `json:"data,omitempty"`       // success payload
	Error     *CLIError `json:"error,omitempty"`      // error details
	RequestID string    `json:"request_id,omitempty"` // resolution correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success prints data as-is in text mode, or as the payload of an "ok"
// response.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error prints a coded error. Details are shown in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
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

// Fail reports err through Error and returns the ExitError the command
// should return.
func (f *OutputFormatter) Fail(exitCode int, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exitCode, code, err)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog prints a diagnostic line when verbose. It goes to the error
// writer so JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the writer for diagnostics.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
