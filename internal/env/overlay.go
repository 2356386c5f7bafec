package env

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Overlay is an ordered mapping of environment variable names to values.
// The zero value is ready to use.
type Overlay struct {
	keys   []string
	values map[string]string
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Set assigns a value. A key keeps the position of its first Set.
func (o *Overlay) Set(key, value string) {
	if o.values == nil {
		o.values = make(map[string]string)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value of key.
func (o *Overlay) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the overlay keys in insertion order.
func (o *Overlay) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of variables in the overlay.
func (o *Overlay) Len() int {
	return len(o.keys)
}

// Environ merges the overlay onto inherited ("KEY=value" entries) and
// returns the result in the form exec.Cmd expects. Inherited order is kept;
// overlaid keys replace the inherited value in place and the remaining
// overlay keys follow in insertion order. Duplicate inherited keys collapse
// to a single entry holding the last value.
func (o *Overlay) Environ(inherited []string) []string {
	order := make([]string, 0, len(inherited)+len(o.keys))
	merged := make(map[string]string, len(inherited)+len(o.keys))

	for _, kv := range inherited {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] = value
	}

	for _, key := range o.keys {
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] = o.values[key]
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, key+"="+merged[key])
	}
	return out
}

// String renders the overlay as shell assignments that can prefix a
// command line, e.g. `LD_PRELOAD=/opt/lib/libgkfs_intercept.so LIBGKFS_LOG=all`.
func (o *Overlay) String() string {
	parts := make([]string, 0, len(o.keys))
	for _, key := range o.keys {
		parts = append(parts, Assignment(key, o.values[key]))
	}
	return strings.Join(parts, " ")
}

// Assignment renders KEY=value with the value quoted for a POSIX shell.
func Assignment(key, value string) string {
	return fmt.Sprintf("%s=%s", key, shellquote.Join(value))
}

// Lookup returns the value of key in an inherited environment. The last
// assignment wins, matching what a spawned process observes.
func Lookup(environ []string, key string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			value, found = v, true
		}
	}
	return value, found
}
