package port

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
)

// Random port range. Ports below 1024 need privileges; the kernel's
// ephemeral range (/proc/sys/net/ipv4/ip_local_port_range) starts at 32768
// on most systems, so picking below it avoids racing outgoing connections.
const (
	PortMin = 1024
	PortMax = 32767
)

// Ephemeral host octet ranges (127.A.B.C).
const (
	hostOctetMin     = 1
	hostOctetMax     = 254
	lastHostOctetMin = 2
)

// Allocator hands out collision-resistant listen addresses.
//
// Availability is verified by binding a throwaway socket and releasing it
// immediately. Another process may grab the port between the check and the
// daemon's own bind; the randomized host keeps that window unlikely to
// matter, but it is not a guarantee.
type Allocator struct {
	rng    *rand.Rand
	listen func(network, address string) (net.Listener, error)
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRand sets the random source (useful for deterministic tests).
func WithRand(rng *rand.Rand) Option {
	return func(a *Allocator) {
		a.rng = rng
	}
}

// WithListener overrides the bind check.
func WithListener(listen func(network, address string) (net.Listener, error)) Option {
	return func(a *Allocator) {
		a.listen = listen
	}
}

// New creates an Allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		listen: listenReuseAddr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// listenReuseAddr binds with SO_REUSEADDR so a port left in TIME_WAIT by a
// previous test does not count as taken.
func listenReuseAddr(network, address string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), network, address)
}

// AllocateHost returns a random address in 127.0.0.0/8. Two concurrent test
// workers pick the same host with probability ~1/254^3.
func (a *Allocator) AllocateHost() string {
	return fmt.Sprintf("127.%d.%d.%d",
		a.between(hostOctetMin, hostOctetMax),
		a.between(hostOctetMin, hostOctetMax),
		a.between(lastHostOctetMin, hostOctetMax))
}

// AllocatePort returns a port on host that could be bound at the time of
// the call. With base 0 a random port in [PortMin, PortMax] is tried first,
// otherwise base is. Failed binds are retried with new random ports until
// one succeeds.
func (a *Allocator) AllocatePort(base int, host string) int {
	port := base
	if port == 0 {
		port = a.randomPort()
	}

	for {
		ln, err := a.listen("tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			bound := ln.Addr().(*net.TCPAddr).Port
			ln.Close()
			return bound
		}
		logging.Debug("port unavailable, retrying", "host", host, "port", port, "error", err)
		port = a.randomPort()
	}
}

// AllocateAddress returns "host:port" using the first IPv4 address of the
// given network interface. An empty interface name uses an ephemeral
// loopback host instead.
func (a *Allocator) AllocateAddress(iface string) (string, error) {
	return a.AllocateAddressFrom(iface, 0)
}

// AllocateAddressFrom is AllocateAddress with an explicit base port.
func (a *Allocator) AllocateAddressFrom(iface string, base int) (string, error) {
	host := a.AllocateHost()
	if iface != "" {
		addr, err := InterfaceAddr(iface)
		if err != nil {
			return "", errors.PortAllocationFailed(err)
		}
		host = addr
	}

	port := a.AllocatePort(base, host)
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func (a *Allocator) randomPort() int {
	return a.between(PortMin, PortMax)
}

// between returns a uniformly random integer in [lo, hi].
func (a *Allocator) between(lo, hi int) int {
	return lo + a.rng.IntN(hi-lo+1)
}

// InterfaceAddr returns the first IPv4 address assigned to a network interface.
func InterfaceAddr(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", name, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("interface %s addresses: %w", name, err)
	}

	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}

	return "", fmt.Errorf("interface %s has no IPv4 address", name)
}
