package health

import (
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

func TestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		steps   []func(*Lifecycle) error
		want    State
		wantErr bool
	}{
		{"spawned", nil, StateSpawned, false},
		{"ready", []func(*Lifecycle) error{(*Lifecycle).markReady}, StateReady, false},
		{"failed", []func(*Lifecycle) error{(*Lifecycle).markFailed}, StateFailed, false},
		{"ready then terminated", []func(*Lifecycle) error{(*Lifecycle).markReady, (*Lifecycle).Terminate}, StateTerminated, false},
		{"failed then terminated", []func(*Lifecycle) error{(*Lifecycle).markFailed, (*Lifecycle).Terminate}, StateTerminated, false},
		{"terminated before readiness", []func(*Lifecycle) error{(*Lifecycle).Terminate}, StateTerminated, false},
		{"ready twice", []func(*Lifecycle) error{(*Lifecycle).markReady, (*Lifecycle).markReady}, StateReady, true},
		{"failed then ready", []func(*Lifecycle) error{(*Lifecycle).markFailed, (*Lifecycle).markReady}, StateFailed, true},
		{"terminated is final", []func(*Lifecycle) error{(*Lifecycle).markReady, (*Lifecycle).Terminate, (*Lifecycle).Terminate}, StateTerminated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := NewLifecycle()
			var lastErr error
			for _, step := range tt.steps {
				if err := step(lc); err != nil {
					lastErr = err
				}
			}
			if got := lc.State(); got != tt.want {
				t.Errorf("State() = %s, want %s", got, tt.want)
			}
			if (lastErr != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", lastErr, tt.wantErr)
			}
			if lastErr != nil && !errors.HasCode(lastErr, errors.ExitInvalidTransition) {
				t.Errorf("error code = %d, want %d", errors.GetExitCode(lastErr), errors.ExitInvalidTransition)
			}
		})
	}
}

func TestLifecycle_HistoryAndObservers(t *testing.T) {
	lc := NewLifecycle()

	var seen []Transition
	lc.OnTransition(func(tr Transition) {
		seen = append(seen, tr)
	})

	if err := lc.markReady(); err != nil {
		t.Fatalf("markReady failed: %v", err)
	}
	if err := lc.Terminate(); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}

	history := lc.History()
	if len(history) != 2 {
		t.Fatalf("History() has %d entries, want 2", len(history))
	}
	if history[0].From != StateSpawned || history[0].To != StateReady {
		t.Errorf("history[0] = %s -> %s", history[0].From, history[0].To)
	}
	if history[1].To != StateTerminated {
		t.Errorf("history[1].To = %s, want terminated", history[1].To)
	}
	if len(seen) != 2 || seen[1].From != StateReady {
		t.Errorf("observer saw %v", seen)
	}
}

func TestLifecycle_ObserverRegisteredDuringTransition(t *testing.T) {
	lc := NewLifecycle()

	var late []Transition
	lc.OnTransition(func(tr Transition) {
		if tr.To == StateReady {
			lc.OnTransition(func(tr Transition) { late = append(late, tr) })
		}
	})

	if err := lc.markReady(); err != nil {
		t.Fatalf("markReady failed: %v", err)
	}
	if len(late) != 0 {
		t.Errorf("late observer saw %v, want nothing before the next transition", late)
	}
	if err := lc.Terminate(); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if len(late) != 1 || late[0].To != StateTerminated {
		t.Errorf("late observer saw %v, want only the terminate transition", late)
	}
}
