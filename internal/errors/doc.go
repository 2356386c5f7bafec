// Package errors provides typed errors with exit codes for fs-harness.
//
// # Error Types
//
// HarnessError is the base error type that wraps an error with an exit code:
//
//	type HarnessError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
// Defined exit codes for different error categories:
//
//	ExitSuccess           = 0  // Success
//	ExitGeneralError      = 1  // General/unknown errors
//	ExitInitialization    = 2  // Missing or ambiguous interception library
//	ExitReadinessTimeout  = 3  // Daemon alive but never logged readiness
//	ExitProcessCrash      = 4  // Daemon died before writing its log
//	ExitCommandExecution  = 5  // Process could not be launched
//	ExitPortAllocation    = 6  // Address allocation failure
//	ExitConfigError       = 7  // Configuration error
//	ExitInvalidTransition = 8  // Forbidden lifecycle state change
//
// Exit codes of client and shell processes are never errors: they are
// reported in results and callers inspect them.
//
// # Error Constructors
//
//	errors.InitializationError("libgkfs_intercept.so", candidates)
//	errors.ReadinessTimeout(pid, retries)
//	errors.ProcessCrash(pid, logPath)
//	errors.CommandExecution("gkfs.io", err)
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
