// Package session owns the lifecycle of one device configuration change:
// connect, stage, diff, validate, commit or rollback, disconnect. Illegal
// orderings (e.g. commit before stage) are rejected structurally by the
// state machine rather than assumed away.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/srxprov/srxprov/pkg/transport"
	"github.com/srxprov/srxprov/pkg/util"
)

// TransitionError reports an operation attempted from a state that does not
// permit it.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in state %q", e.Op, e.State)
}

func (e *TransitionError) Unwrap() error { return util.ErrInvalidTransition }

// Session drives one configuration change against one device. A Session is
// created fresh per change and never reused: retrying a partially-staged
// session is unsafe, so retry policy lives with the caller, which starts a
// brand-new Session per attempt.
//
// Close is safe from any state and must run on every exit path; the
// executor guarantees this with a defer.
type Session struct {
	mu     sync.Mutex
	tr     transport.Transport
	target transport.Target
	handle transport.Handle
	state  State

	staged          []string
	commitAttempted bool
}

// New creates a disconnected session for the target.
func New(tr transport.Transport, target transport.Target) *Session {
	return &Session{tr: tr, target: target, state: StateDisconnected}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the session's device target.
func (s *Session) Target() transport.Target {
	return s.target
}

// Connect acquires a transport handle. A single attempt per call; callers
// decide on retry policy. On failure the session moves to Failed.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDisconnected {
		return &TransitionError{Op: "connect", State: s.state}
	}

	h, err := s.tr.Open(ctx, s.target)
	if err != nil {
		s.state = StateFailed
		return err
	}
	s.handle = h
	s.state = StateConnected
	return nil
}

// Stage loads the directive sequence into the device's candidate
// configuration without applying it.
func (s *Session) Stage(ctx context.Context, directives []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected {
		return &TransitionError{Op: "stage", State: s.state}
	}

	if err := s.handle.LoadStaged(ctx, directives); err != nil {
		s.state = StateFailed
		return err
	}
	s.staged = append([]string(nil), directives...)
	s.state = StateStaged
	return nil
}

// Diff returns the textual change set of the staged buffer versus the
// running configuration. Side-effect-free; callable while Staged or
// Validated. Empty output means the staged buffer is a no-op.
func (s *Session) Diff(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStaged && s.state != StateValidated {
		return "", &TransitionError{Op: "diff", State: s.state}
	}

	diff, err := s.handle.DiffStaged(ctx)
	if err != nil {
		s.state = StateFailed
		return "", err
	}
	return diff, nil
}

// Validate asks the device to syntax/semantic-check the staged buffer
// without committing.
func (s *Session) Validate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStaged {
		return &TransitionError{Op: "validate", State: s.state}
	}

	if err := s.handle.CheckStaged(ctx); err != nil {
		s.state = StateFailed
		return err
	}
	s.state = StateValidated
	return nil
}

// Commit atomically applies the staged buffer. The transport guarantees
// all-or-nothing semantics: on failure the candidate is discarded and the
// running configuration is untouched. Bounded by the target's CommitTimeout,
// after which the session is Failed and the caller's Close tears the
// connection down best-effort.
func (s *Session) Commit(ctx context.Context, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateValidated {
		return &TransitionError{Op: "commit", State: s.state}
	}

	if s.target.CommitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.target.CommitTimeout)
		defer cancel()
	}

	s.commitAttempted = true
	if err := s.handle.CommitStaged(ctx, comment); err != nil {
		s.state = StateFailed
		return err
	}
	s.state = StateCommitted
	return nil
}

// Rollback reverts to a prior configuration snapshot and commits the
// reversion. Only permitted after the session has reached Committed, or
// Failed during a commit attempt. It exists to undo this session's own
// apply, not as a general administrative verb.
func (s *Session) Rollback(ctx context.Context, snapshotID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := s.state == StateCommitted || (s.state == StateFailed && s.commitAttempted)
	if !allowed {
		return &TransitionError{Op: "rollback", State: s.state}
	}
	if s.handle == nil {
		return util.ErrNotConnected
	}

	if err := s.handle.RollbackTo(ctx, snapshotID); err != nil {
		s.state = StateFailed
		return err
	}
	s.state = StateRolledBack
	return nil
}

// Close releases the transport handle. Idempotent and safe from any state,
// including Failed; the session returns to Disconnected.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.handle != nil {
		err = s.handle.Close()
		s.handle = nil
	}
	s.state = StateDisconnected
	return err
}
