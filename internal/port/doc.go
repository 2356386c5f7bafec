// Package port allocates collision-resistant listen addresses for the daemon.
//
// # Hosts
//
// AllocateHost picks a random host in 127.0.0.0/8 (127.A.B.C with A and B in
// 1..254 and C in 2..254). Linux routes the whole block to loopback, so two
// test workers running in parallel only collide when they draw the same
// host, with probability about 1/254^3.
//
// # Ports
//
// AllocatePort binds a throwaway socket with SO_REUSEADDR, reads back the
// bound port and closes the socket:
//
//	a := port.New()
//	p := a.AllocatePort(0, a.AllocateHost())
//
// Bind failures are retried with fresh random ports indefinitely. The port
// is released before the daemon binds it, so another process can win the
// race in between; this is a best-effort allocator.
//
// # Addresses
//
// AllocateAddress combines an interface's IPv4 address (or an ephemeral
// host when no interface is given) with AllocatePort:
//
//	addr, err := a.AllocateAddress("lo") // "127.0.0.1:23817"
package port
