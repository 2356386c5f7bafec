// Package testutil provides fixtures for tests that drive real processes.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/gkfs_daemon   stand-in daemon (bash), behavior chosen by FAKE_DAEMON_MODE
//	fixtures/gkfs.io       stand-in client printing one JSON object per operation
//	fixtures/valid.toml    fast-polling configuration
//	fixtures/invalid.toml  configuration rejected by validation
//
// # Test environments
//
// NewTestEnv lays out a workspace whose binary directory holds both scripts
// and a placeholder interception library:
//
//	func TestStart(t *testing.T) {
//	    te := testutil.NewTestEnv(t)
//	    te.SetDaemonMode("slow")
//	    d := daemon.New(te.Workspace, te.Config, te.Composer())
//	    inst, err := d.Start(context.Background())
//	    ...
//	}
package testutil
