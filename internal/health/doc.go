// Package health decides when a spawned daemon is serving requests.
//
// A running process is not yet a ready one: the daemon signals readiness
// only by writing a fixed line to its log. Monitor.WaitUntilActive polls that
// log after a short grace period, scanning the first MaxLines lines on each
// probe, and moves the instance Lifecycle to ready or failed:
//
//	spawned --match--------------------> ready --Terminate--> terminated
//	spawned --log missing, pid gone----> failed --Terminate--> terminated
//	spawned --Retries probes, no match-> failed
//
// A missing log with a dead process fails immediately with a process crash
// error; exhausting the probe budget fails with a readiness timeout. Both
// are fatal to the caller, which must not use the instance afterwards.
package health
