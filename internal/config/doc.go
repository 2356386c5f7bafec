// Package config provides configuration types and loading for fs-harness.
//
// # Configuration File
//
// The harness reads fs-harness.toml. Every key is optional; missing keys
// keep the defaults returned by Default():
//
//	[daemon]
//	executable        = "gkfs_daemon"
//	log_file          = "gkfs_daemon.log"
//	log_level         = "100"
//	readiness_pattern = "Startup successful. Daemon is ready."
//	retries           = 500
//	max_lines         = 50
//	grace             = "100ms"
//	backoff           = "50ms"
//	kill_timeout      = "10s"
//	interface         = ""      # empty: random host in 127.0.0.0/8
//
//	[client]
//	executable        = "gkfs.io"
//	intercept_library = "libgkfs_intercept.so"
//	log_file          = "gkfs_client.log"
//	log_level         = "all"
//
//	[shell]
//	executable = "bash"
//
//	[workspace]
//	root       = "/tmp/session/root"
//	mount      = "/tmp/session/mnt"
//	logs       = "/tmp/session/logs"
//	work       = "/tmp/session/work"
//	hosts_file = "gkfs_hosts.txt"
//	bin_dirs   = ["/opt/gkfs/bin"]
//	lib_dirs   = ["/opt/gkfs/lib"]
//
// # Validation
//
// Parse and Load validate after decoding. Unknown keys are rejected so
// typos do not silently fall back to defaults.
package config
