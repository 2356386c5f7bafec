// Package shell runs shell scripts and commands against a mounted instance.
//
// Every call goes through `bash -c` in the workspace working directory. By
// default the shell is intercepted: it starts with the client overlay, so
// the preloaded library redirects its file-system calls to the daemon.
// Intercept(false) runs it with the plain inherited environment instead.
//
// Exit statuses 0 to 255 are never errors; callers inspect the result:
//
//	cmd, err := sh.Script(ctx, "exit 1")
//	// err == nil, cmd.ExitCode == 1
//
// Timeout delivers TimeoutSignal (SIGKILL unless set) when it elapses, and
// the result records the signal:
//
//	cmd, _ := sh.Run(ctx, "sleep", []string{"5"}, shell.Timeout(time.Second))
//	// cmd.TimedOut && cmd.Signal == syscall.SIGKILL
package shell
