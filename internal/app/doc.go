// Package app provides the application context for fs-harness.
// It allows dependency injection for testing.
//
// The process environment is snapshotted once, when the App is created, and
// every daemon, client and shell built from the App starts from that
// snapshot.
package app
