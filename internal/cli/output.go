package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation (validation, conflict, missing record)
	ExitCommandError = 2 // Command error (bad flags, configuration, backend unavailable)
)

// Error codes reported in the error envelope.
const (
	ErrCodeGeneric    = "error"
	ErrCodeValidation = "validation"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeBackend    = "backend"
)

// ExitError represents an error with a specific exit code.
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
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data as a JSON envelope, or calls text in text mode.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	text(f.Writer)
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

// Fail reports err and returns it as an ExitError carrying the exit code
// of its category.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classify(err)
	var details any
	var ge *goerrors.Error
	if errors.As(err, &ge) && len(ge.ValidationErrors) > 0 {
		details = ge.ValidationErrors
	}
	_ = f.Error(code, err.Error(), details)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
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

func classify(err error) (string, int) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitCommandError {
		return ErrCodeGeneric, ExitCommandError
	}
	switch {
	case goerrors.HasCategory(err, goerrors.CategoryValidation), goerrors.HasCategory(err, goerrors.CategoryBadInput):
		return ErrCodeValidation, ExitFailure
	case goerrors.HasCategory(err, goerrors.CategoryNotFound):
		return ErrCodeNotFound, ExitFailure
	case goerrors.HasCategory(err, goerrors.CategoryConflict):
		return ErrCodeConflict, ExitFailure
	case goerrors.HasCategory(err, goerrors.CategoryExternal):
		return ErrCodeBackend, ExitCommandError
	}
	return ErrCodeGeneric, ExitFailure
}
