// Package process spawns and terminates the external executables the
// harness drives.
//
// Supervisor.Spawn starts a background process and returns immediately with
// a Handle; a goroutine reaps the child so Handle.Alive never reports a
// zombie as running. Supervisor.Terminate sends SIGTERM and blocks until the
// process exits, escalating to SIGKILL after KillTimeout when one is set.
//
// Run executes a foreground command to completion. Exit codes are results,
// never errors; only a failure to launch the executable is returned as an
// error. A Timeout delivers TimeoutSignal (SIGKILL by default) to the
// process:
//
//	res, err := process.Run(ctx, process.RunSpec{
//		Path:    "bash",
//		Args:    []string{"-c", "exit 3"},
//		Timeout: time.Second,
//	})
//	// err == nil, res.ExitCode == 3
package process
