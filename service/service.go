// Package service provides the lifecycle state machine and supervisor tree
// that agents and behaviours both run under: init -> running -> stopping ->
// shutdown, with a terminal killed state, and child services stopped in
// reverse start order before the parent's own teardown runs.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/sysid/agentmesh/errors"
)

// State is a lifecycle stage of a Service.
type State int

const (
	StateInit State = iota
	StateRunning
	StateStopping
	StateShutdown
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateShutdown:
		return "shutdown"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Service is anything with a start/stop lifecycle that can be supervised:
// behaviours implement it, and an agent core supervises its behaviours
// through a Supervisor.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Supervisor runs an ordered list of child Services under a single parent.
// Children are started in the order they're added and stopped in reverse
// order, mirroring the reference implementation's "behaviours are the
// agent's children" tree.
type Supervisor struct {
	mu       sync.Mutex
	state    State
	children []Service
	onStop   func(ctx context.Context) error
}

// NewSupervisor returns a Supervisor. onStop, if non-nil, runs after every
// child has been stopped, giving the parent a chance to close its own
// resources (connection, channel) last.
func NewSupervisor(onStop func(ctx context.Context) error) *Supervisor {
	return &Supervisor{onStop: onStop}
}

// Add registers a child service. Must be called before Start.
func (s *Supervisor) Add(child Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, child)
}

// State returns the supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start starts every child in registration order. If a child fails to
// start, already-started children are stopped in reverse order before the
// error is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	children := append([]Service(nil), s.children...)
	s.state = StateRunning
	s.mu.Unlock()

	for i, c := range children {
		if err := c.Start(ctx); err != nil {
			s.unwind(ctx, children[:i])
			s.mu.Lock()
			s.state = StateKilled
			s.mu.Unlock()
			return errors.Wrap(err, "service: child failed to start")
		}
	}
	return nil
}

func (s *Supervisor) unwind(ctx context.Context, started []Service) {
	for i := len(started) - 1; i >= 0; i-- {
		_ = started[i].Stop(ctx)
	}
}

// Stop stops every child in reverse start order, then runs onStop, bounded
// by timeout.
func (s *Supervisor) Stop(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	if s.state == StateShutdown || s.state == StateKilled {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	children := append([]Service(nil), s.children...)
	onStop := s.onStop
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		for i := len(children) - 1; i >= 0; i-- {
			if err := children[i].Stop(ctx); err != nil {
				done <- err
				return
			}
		}
		if onStop != nil {
			done <- onStop(ctx)
			return
		}
		done <- nil
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(timeout):
		err = errors.New("service: shutdown timed out")
	}

	s.mu.Lock()
	s.state = StateShutdown
	s.mu.Unlock()
	return err
}
