// Package integration provides a test harness for running the real file
// system binaries, plus workflow tests that drive the whole harness against
// stand-in binaries.
//
// Tests built on NewHarness are skipped unless FSHARNESS_INTEGRATION_TESTS
// is set. They also need:
//   - FSHARNESS_BIN_DIRS: colon-separated directories holding gkfs_daemon,
//     gkfs.io and libgkfs_intercept.so
//   - FSHARNESS_LIB_DIRS (optional): extra library directories
//   - FSHARNESS_CONFIG (optional): a TOML configuration file
package integration
