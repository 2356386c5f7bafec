package health

import (
	"slices"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

// State is the lifecycle state of a daemon instance.
type State string

const (
	StateSpawned    State = "spawned"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateTerminated State = "terminated"
)

var allowedTransitions = map[State][]State{
	StateSpawned: {StateReady, StateFailed, StateTerminated},
	StateReady:   {StateTerminated},
	StateFailed:  {StateTerminated},
}

// Transition records a state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Lifecycle tracks the state of one daemon instance. It starts in
// StateSpawned; only Monitor moves it to ready or failed, and only
// Terminate moves it to terminated.
type Lifecycle struct {
	mu        sync.Mutex
	state     State
	history   []Transition
	observers []func(Transition)
}

// NewLifecycle returns a lifecycle in StateSpawned.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateSpawned}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns every transition so far, oldest first.
func (l *Lifecycle) History() []Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transition(nil), l.history...)
}

// OnTransition registers fn to be called after every state change.
func (l *Lifecycle) OnTransition(fn func(Transition)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Terminate moves a ready, failed or still-spawned instance to terminated.
func (l *Lifecycle) Terminate() error {
	return l.transition(StateTerminated)
}

func (l *Lifecycle) markReady() error {
	return l.transition(StateReady)
}

func (l *Lifecycle) markFailed() error {
	return l.transition(StateFailed)
}

func (l *Lifecycle) transition(to State) error {
	l.mu.Lock()
	from := l.state
	if !canTransition(from, to) {
		l.mu.Unlock()
		return errors.InvalidTransition(string(from), string(to))
	}
	t := Transition{From: from, To: to, At: time.Now()}
	l.state = to
	l.history = append(l.history, t)
	observers := slices.Clone(l.observers)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
	return nil
}

func canTransition(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
