// Package audit records daemon and command lifecycle events for a workspace.
// Events are stored as JSON Lines (JSONL) in the workspace log directory so a
// failed test run can be reconstructed after the fact.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// FileName is the event log name inside the log directory.
const FileName = "fs-harness.events.jsonl"

// EventType classifies a lifecycle event.
type EventType string

const (
	EventSpawn     EventType = "spawn"
	EventReady     EventType = "ready"
	EventFailed    EventType = "failed"
	EventTerminate EventType = "terminate"
	EventExec      EventType = "exec"
	EventError     EventType = "error"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Instance  string    `json:"instance,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Address   string    `json:"address,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads the event log of one workspace.
type Logger struct {
	mu   sync.Mutex
	path string
	fs   system.FileSystem
}

// Option configures a Logger.
type Option func(*Logger)

// WithFileSystem sets the file system used to create the log directory and
// read events back. Appends always go to the real file.
func WithFileSystem(fsys system.FileSystem) Option {
	return func(l *Logger) {
		l.fs = fsys
	}
}

// NewLogger creates a logger writing to {logDir}/fs-harness.events.jsonl.
func NewLogger(logDir string, opts ...Option) *Logger {
	l := &Logger{path: filepath.Join(logDir, FileName), fs: system.DefaultFS()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the event log location.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create event log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an instance event.
func (l *Logger) LogEvent(eventType EventType, instance string, pid int, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Instance:  instance,
		PID:       pid,
		Details:   details,
	})
}

// LogExec records a finished client or shell command.
func (l *Logger) LogExec(command string, exitCode int) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      EventExec,
		ExitCode:  &exitCode,
		Details:   command,
	})
}

// Events reads all events in chronological order.
func (l *Logger) Events() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.fs.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading event log: %w", err)
	}

	return events, nil
}

// InstanceEvents returns the events of one daemon instance.
func (l *Logger) InstanceEvents(instance string) ([]Event, error) {
	events, err := l.Events()
	var out []Event
	for _, e := range events {
		if e.Instance == instance {
			out = append(out, e)
		}
	}
	return out, err
}

// Remove deletes the event log.
func (l *Logger) Remove() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
