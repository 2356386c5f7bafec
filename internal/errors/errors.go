package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for fs-harness
const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitInitialization    = 2
	ExitReadinessTimeout  = 3
	ExitProcessCrash      = 4
	ExitCommandExecution  = 5
	ExitPortAllocation    = 6
	ExitConfigError       = 7
	ExitInvalidTransition = 8
)

// HarnessError is the base error type for fs-harness
type HarnessError struct {
	Code    int
	Message string
	Cause   error
}

func (e *HarnessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *HarnessError) ExitCode() int {
	return e.Code
}

// New creates a new HarnessError
func New(code int, message string) *HarnessError {
	return &HarnessError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a HarnessError
func Wrap(code int, message string, cause error) *HarnessError {
	return &HarnessError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// InitializationError returns an error for a missing or ambiguous interception
// library. Candidates lists every match found in the binary directories.
func InitializationError(artifact string, candidates []string) *HarnessError {
	if len(candidates) == 0 {
		return New(ExitInitialization, fmt.Sprintf("initialization error: %s not found in any binary directory", artifact))
	}
	return New(ExitInitialization, fmt.Sprintf("initialization error: %d copies of %s found (%s)",
		len(candidates), artifact, strings.Join(candidates, ", ")))
}

// ReadinessTimeout returns an error for a daemon that stayed alive but never
// logged its readiness line.
func ReadinessTimeout(pid, retries int) *HarnessError {
	return New(ExitReadinessTimeout, fmt.Sprintf("daemon (pid %d) not ready after %d probes", pid, retries))
}

// ProcessCrash returns an error for a daemon that exited before writing its log
func ProcessCrash(pid int, logPath string) *HarnessError {
	return New(ExitProcessCrash, fmt.Sprintf("daemon process %d is not running and %s does not exist", pid, logPath))
}

// CommandExecution returns an error for a process that could not be launched
func CommandExecution(command string, cause error) *HarnessError {
	return Wrap(ExitCommandExecution, fmt.Sprintf("failed to execute %s", command), cause)
}

// PortAllocationFailed returns an error for port allocation failure
func PortAllocationFailed(cause error) *HarnessError {
	return Wrap(ExitPortAllocation, "failed to allocate address", cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *HarnessError {
	return Wrap(ExitConfigError, message, cause)
}

// InvalidTransition returns an error for a lifecycle change the state machine forbids
func InvalidTransition(from, to string) *HarnessError {
	return New(ExitInvalidTransition, fmt.Sprintf("invalid lifecycle transition %s -> %s", from, to))
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *HarnessError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var harnessErr *HarnessError
	if errors.As(err, &harnessErr) {
		return harnessErr.ExitCode()
	}
	return ExitGeneralError
}

// HasCode reports whether err's chain contains a HarnessError with the given code
func HasCode(err error, code int) bool {
	var harnessErr *HarnessError
	if errors.As(err, &harnessErr) {
		return harnessErr.Code == code
	}
	return false
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
