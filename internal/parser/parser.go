package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Parser converts the output of the named operation or command.
type Parser interface {
	Parse(name, output string) (any, error)
}

// Func adapts a function to the Parser interface.
type Func func(name, output string) (any, error)

// Parse calls f.
func (f Func) Parse(name, output string) (any, error) {
	return f(name, output)
}

// IOOutput is the result of a client operation.
type IOOutput struct {
	Operation string

	// Retval is the return value of the call
	Retval int

	// Errno is the errno left by the call (0 on success)
	Errno int

	// Fields holds every key of the JSON object, including retval and errno
	Fields map[string]json.RawMessage
}

// Field decodes a single field into v.
func (o *IOOutput) Field(key string, v any) error {
	raw, ok := o.Fields[key]
	if !ok {
		return fmt.Errorf("%s output has no field %q", o.Operation, key)
	}
	return json.Unmarshal(raw, v)
}

// IO parses the JSON object printed by the client for each operation.
type IO struct{}

// Parse decodes output into an *IOOutput.
func (IO) Parse(operation, output string) (any, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%s produced no output", operation)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", operation, err)
	}

	out := &IOOutput{Operation: operation, Fields: fields}
	for key, dst := range map[string]*int{"retval": &out.Retval, "errno": &out.Errno} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(bytes.TrimSpace(raw), dst); err != nil {
			return nil, fmt.Errorf("%s output: invalid %s: %w", operation, key, err)
		}
	}
	return out, nil
}

// LinesOutput is line-oriented command output.
type LinesOutput struct {
	Command string
	Lines   []string
}

// Fields returns the whitespace-separated fields of line i.
func (o *LinesOutput) Fields(i int) []string {
	if i < 0 || i >= len(o.Lines) {
		return nil
	}
	return strings.Fields(o.Lines[i])
}

// Lines splits command output into non-empty lines.
type Lines struct{}

// Parse returns a *LinesOutput.
func (Lines) Parse(command, output string) (any, error) {
	out := &LinesOutput{Command: command}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out.Lines = append(out.Lines, line)
		}
	}
	return out, nil
}

// Registry dispatches to per-name parsers.
type Registry struct {
	mu       sync.RWMutex
	parsers  map[string]Parser
	fallback Parser
}

// NewRegistry creates a registry that uses fallback for unregistered names.
func NewRegistry(fallback Parser) *Registry {
	return &Registry{parsers: make(map[string]Parser), fallback: fallback}
}

// Register sets the parser for name.
func (r *Registry) Register(name string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[name] = p
}

// Parse dispatches on name.
func (r *Registry) Parse(name, output string) (any, error) {
	r.mu.RLock()
	p, ok := r.parsers[name]
	r.mu.RUnlock()
	if !ok {
		p = r.fallback
	}
	if p == nil {
		return nil, nil
	}
	return p.Parse(name, output)
}

// DefaultIO returns the parser used for client operations.
func DefaultIO() Parser {
	return NewRegistry(IO{})
}

// DefaultCommand returns the parser used for shell commands.
func DefaultCommand() Parser {
	return NewRegistry(Lines{})
}
