// Package tui renders daemon startup progress in the terminal.
//
// The progress view is a Bubble Tea program showing a spinner and the most
// recent readiness probe until the daemon is ready or startup fails:
//
//	res, err := tui.RunProgress(ctx, "starting gkfs_daemon", func(ctx context.Context, onProbe func(health.Probe)) tui.DoneMsg {
//	    inst, err := startWithHook(ctx, onProbe)
//	    return tui.DoneMsg{Address: inst.Address, Probes: inst.Probes, Err: err}
//	})
//
// Pressing ctrl+c or q cancels the context passed to the start function. The
// program keeps running until the start function returns, so no process is
// left behind.
package tui
