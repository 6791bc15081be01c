package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrNotARepository indicates the target path has no repository metadata
	ErrNotARepository = errors.New("not a git repository")

	// ErrCleanWorkingTree indicates there is nothing to stage or commit
	ErrCleanWorkingTree = errors.New("working tree clean")

	// ErrCollectionFailed indicates a read-only git query exited non-zero
	ErrCollectionFailed = errors.New("failed to collect repository context")

	// ErrAdvisoryUnavailable indicates the advisory service could not produce a response
	ErrAdvisoryUnavailable = errors.New("advisory service unavailable")

	// ErrNoCommandBlock indicates the response contained no fenced shell block
	ErrNoCommandBlock = errors.New("no fenced shell command block in response")

	// ErrMultipleCommandBlocks indicates the response contained more than one fenced shell block
	ErrMultipleCommandBlocks = errors.New("more than one fenced shell command block in response")

	// ErrDisallowedCommand indicates a proposed line is outside the allowed command vocabulary
	ErrDisallowedCommand = errors.New("disallowed command")

	// ErrMalformedCommitMessage indicates a commit subject is not a Conventional Commit
	ErrMalformedCommitMessage = errors.New("malformed commit message")

	// ErrEmptyProposal indicates the proposal contained no commands
	ErrEmptyProposal = errors.New("no commands proposed")

	// ErrEmptyPath indicates an empty path argument
	ErrEmptyPath = errors.New("empty path")

	// ErrCommandExecutionFailed indicates a git command exited non-zero in apply mode
	ErrCommandExecutionFailed = errors.New("command execution failed")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidPlan indicates a saved plan file could not be used
	ErrInvalidPlan = errors.New("invalid plan file")
)

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GitError represents a git query that could not be started or exited non-zero.
type GitError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *GitError) Unwrap() error {
	return e.Err
}

// NewGitError creates a GitError that wraps ErrCollectionFailed unless a cause is given.
func NewGitError(args []string, exitCode int, stderr string, err error) *GitError {
	if err == nil {
		err = ErrCollectionFailed
	}
	return &GitError{
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}

// AdvisoryError represents a failed call to the advisory service.
type AdvisoryError struct {
	Provider string
	Model    string
	Err      error
}

// Error implements the error interface.
func (e *AdvisoryError) Error() string {
	return fmt.Sprintf("%s (%s model %q): %v", ErrAdvisoryUnavailable, e.Provider, e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the transport cause.
func (e *AdvisoryError) Unwrap() []error {
	return []error{ErrAdvisoryUnavailable, e.Err}
}

// NewAdvisoryError creates a new AdvisoryError.
func NewAdvisoryError(provider, model string, err error) *AdvisoryError {
	return &AdvisoryError{
		Provider: provider,
		Model:    model,
		Err:      err,
	}
}

// CommandError points at the proposed line that invalidated a batch.
// Line is 1-based within the command block; 0 means the position is unknown.
type CommandError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
	}
	if e.Text != "" {
		fmt.Fprintf(&b, " %q", e.Text)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(line int, text, reason string, err error) *CommandError {
	return &CommandError{
		Line:   line,
		Text:   text,
		Reason: reason,
		Err:    err,
	}
}

// ExecutionError records the command that halted an apply run.
// Index is 1-based. ExitCode is -1 when the process could not be started.
type ExecutionError struct {
	Index    int
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %d failed with exit code %d: %s", e.Index, e.ExitCode, e.Command)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the start failure, if any.
func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommandExecutionFailed}
	}
	return []error{ErrCommandExecutionFailed, e.Err}
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(index int, command string, exitCode int, stderr string, err error) *ExecutionError {
	return &ExecutionError{
		Index:    index,
		Command:  command,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}

// ConfigError represents an error in the application configuration.
// It includes the parameter name, its value if available, and the underlying error.
type ConfigError struct {
	Parameter string
	Value     interface{}
	Err       error
}

// Error implements the error interface with details about the invalid configuration.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError wrapping ErrInvalidConfiguration.
func NewConfigError(parameter string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       Wrap(ErrInvalidConfiguration, reason),
	}
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var execErr *ExecutionError
	if As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}
