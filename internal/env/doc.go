// Package env composes the environment overlays handed to the daemon, the
// client and intercepted shells.
//
// An Overlay is an ordered set of variables laid over an inherited
// environment. Merging follows one rule: an overlaid key replaces the
// inherited value in place, and keys the inherited environment lacks are
// appended in overlay order. The library search path is composed as the
// inherited value followed by the workspace library directories, so its
// overlay value never drops an inherited entry.
//
// The inherited environment is an explicit slice. Nothing here reads or
// mutates the process environment.
package env
