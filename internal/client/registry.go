package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

// Signature is the argument shape of a client operation.
type Signature struct {
	// Args names the required arguments in order
	Args []string

	// Optional names trailing arguments that may be omitted
	Optional []string
}

// Usage renders the signature as a synopsis, e.g. "open pathname flags [mode]".
func (s Signature) Usage(name string) string {
	parts := append([]string{name}, s.Args...)
	for _, o := range s.Optional {
		parts = append(parts, "["+o+"]")
	}
	return strings.Join(parts, " ")
}

// Check validates an argument count.
func (s Signature) Check(name string, n int) error {
	if n < len(s.Args) || n > len(s.Args)+len(s.Optional) {
		return errors.ValidationError(fmt.Sprintf("%s: got %d arguments, usage: %s", name, n, s.Usage(name)))
	}
	return nil
}

// Registry maps operation names to their signatures.
type Registry map[string]Signature

// DefaultRegistry returns the operations understood by the client executable.
func DefaultRegistry() Registry {
	return Registry{
		"mkdir":    {Args: []string{"pathname", "mode"}},
		"open":     {Args: []string{"pathname", "flags"}, Optional: []string{"mode"}},
		"opendir":  {Args: []string{"pathname"}},
		"read":     {Args: []string{"pathname", "count"}},
		"pread":    {Args: []string{"pathname", "count", "offset"}},
		"readv":    {Args: []string{"pathname", "count_0", "count_1"}},
		"preadv":   {Args: []string{"pathname", "count_0", "count_1", "offset"}},
		"readdir":  {Args: []string{"pathname"}, Optional: []string{"count"}},
		"rmdir":    {Args: []string{"pathname"}},
		"stat":     {Args: []string{"pathname"}},
		"statx":    {Args: []string{"dirfd", "pathname", "flags", "mask"}},
		"write":    {Args: []string{"pathname", "data", "count"}},
		"pwrite":   {Args: []string{"pathname", "data", "count", "offset"}},
		"writev":   {Args: []string{"pathname", "buf_0", "buf_1", "count"}},
		"pwritev":  {Args: []string{"pathname", "buf_0", "buf_1", "count", "offset"}},
		"lseek":    {Args: []string{"pathname", "offset", "whence"}},
		"truncate": {Args: []string{"pathname", "length"}},
		"unlink":   {Args: []string{"pathname"}},
	}
}

// Operation is a named client operation bound to a Client.
type Operation struct {
	client    *Client
	name      string
	signature *Signature
}

// Name returns the operation name.
func (o *Operation) Name() string {
	return o.name
}

// Known reports whether the operation has a registered signature.
func (o *Operation) Known() bool {
	return o.signature != nil
}

// Call runs the operation. Registered operations validate their argument
// count before anything is spawned.
func (o *Operation) Call(ctx context.Context, args ...string) (*Result, error) {
	if o.signature != nil {
		if err := o.signature.Check(o.name, len(args)); err != nil {
			return nil, err
		}
	}
	return o.client.Run(ctx, o.name, args...)
}
