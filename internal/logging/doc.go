// Package logging provides logging utilities for fs-harness.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("spawning daemon", "cmdline", cmdline, "pid", pid)
//	logging.Warn("daemon log missing", "path", logPath)
//
// Harness components tag their records:
//
//	log := logging.Component("shell")
//	log.Debug("running script", "timeout", timeout)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Waiting for daemon on %s...", address)
//	logging.UserSuccess("Daemon ready (pid %d)", pid)
//	logging.UserWarning("Daemon exited with status %d", code)
//	logging.UserError("Initialization failed: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
