package session

import (
	"context"
	"errors"
	"testing"

	"github.com/srxprov/srxprov/pkg/transport"
	"github.com/srxprov/srxprov/pkg/util"
)

var testDirectives = []string{
	"set interfaces ge-0/0/1 unit 0 family inet address 192.168.10.1/24",
	"set security zones security-zone trust interfaces ge-0/0/1.0",
}

func newTestSession(spy *transport.Spy) *Session {
	return New(spy, transport.Target{Device: "srx1", Host: "test-host"})
}

func TestSession_FullLifecycle(t *testing.T) {
	spy := transport.NewSpy()
	spy.DiffText = "+ set interfaces ge-0/0/1 unit 0 family inet address 192.168.10.1/24"
	sess := newTestSession(spy)
	ctx := context.Background()

	if sess.State() != StateDisconnected {
		t.Fatalf("initial state = %q", sess.State())
	}

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess.State() != StateConnected {
		t.Errorf("state after Connect = %q", sess.State())
	}

	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if sess.State() != StateStaged {
		t.Errorf("state after Stage = %q", sess.State())
	}

	diff, err := sess.Diff(ctx)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if diff != spy.DiffText {
		t.Errorf("Diff = %q", diff)
	}
	if sess.State() != StateStaged {
		t.Errorf("Diff changed state to %q", sess.State())
	}

	if err := sess.Validate(ctx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if sess.State() != StateValidated {
		t.Errorf("state after Validate = %q", sess.State())
	}

	// Diff remains legal while Validated.
	if _, err := sess.Diff(ctx); err != nil {
		t.Errorf("Diff while validated failed: %v", err)
	}

	if err := sess.Commit(ctx, "test commit"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if sess.State() != StateCommitted {
		t.Errorf("state after Commit = %q", sess.State())
	}
	if !sess.State().Terminal() {
		t.Error("committed state not terminal")
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sess.State() != StateDisconnected {
		t.Errorf("state after Close = %q", sess.State())
	}
}

func TestSession_RejectsOutOfOrderOperations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		op   func(s *Session) error
	}{
		{"stage before connect", func(s *Session) error { return s.Stage(ctx, testDirectives) }},
		{"diff before stage", func(s *Session) error { _, err := s.Diff(ctx); return err }},
		{"validate before stage", func(s *Session) error { return s.Validate(ctx) }},
		{"commit before validate", func(s *Session) error { return s.Commit(ctx, "c") }},
		{"rollback before commit", func(s *Session) error { return s.Rollback(ctx, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op(newTestSession(transport.NewSpy()))
			if err == nil {
				t.Fatal("operation allowed out of order")
			}
			if !errors.Is(err, util.ErrInvalidTransition) {
				t.Errorf("error does not unwrap to ErrInvalidTransition: %v", err)
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Errorf("error is not a TransitionError: %v", err)
			}
		})
	}
}

func TestSession_CommitRequiresValidation(t *testing.T) {
	spy := transport.NewSpy()
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	err := sess.Commit(ctx, "c")
	if !errors.Is(err, util.ErrInvalidTransition) {
		t.Fatalf("Commit from staged = %v, want transition error", err)
	}
	if spy.CallCount("commit") != 0 {
		t.Error("transport commit reached without validation")
	}
}

func TestSession_ConnectFailureMovesToFailed(t *testing.T) {
	spy := transport.NewSpy()
	spy.OpenErr = errors.New("host unreachable")
	sess := newTestSession(spy)

	err := sess.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect succeeded against failing transport")
	}
	if !errors.Is(err, util.ErrConnectionFailed) {
		t.Errorf("error does not unwrap to ErrConnectionFailed: %v", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %q, want failed", sess.State())
	}

	// Failed is sticky: a second connect is an invalid transition.
	if err := sess.Connect(context.Background()); !errors.Is(err, util.ErrInvalidTransition) {
		t.Errorf("reconnect from failed = %v, want transition error", err)
	}
}

func TestSession_ValidationFailureIsSticky(t *testing.T) {
	spy := transport.NewSpy()
	spy.CheckErr = errors.New("constraint violation")
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if err := sess.Validate(ctx); !errors.Is(err, util.ErrValidationFailed) {
		t.Fatalf("Validate = %v, want validation failure", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %q, want failed", sess.State())
	}
	if err := sess.Commit(ctx, "c"); !errors.Is(err, util.ErrInvalidTransition) {
		t.Errorf("Commit after failure = %v, want transition error", err)
	}
}

func TestSession_RollbackAfterCommit(t *testing.T) {
	spy := transport.NewSpy()
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := sess.Validate(ctx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := sess.Commit(ctx, "c"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := sess.Rollback(ctx, 1); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if sess.State() != StateRolledBack {
		t.Errorf("state = %q, want rolled-back", sess.State())
	}
	if spy.CallCount("rollback") != 1 {
		t.Error("transport rollback not called")
	}
}

func TestSession_RollbackAfterFailedCommit(t *testing.T) {
	spy := transport.NewSpy()
	spy.CommitErr = errors.New("commit refused")
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := sess.Validate(ctx); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := sess.Commit(ctx, "c"); !errors.Is(err, util.ErrCommitFailed) {
		t.Fatalf("Commit = %v, want commit failure", err)
	}

	// A commit was attempted, so rollback is allowed from Failed.
	if err := sess.Rollback(ctx, 1); err != nil {
		t.Fatalf("Rollback after failed commit: %v", err)
	}
	if sess.State() != StateRolledBack {
		t.Errorf("state = %q, want rolled-back", sess.State())
	}
}

func TestSession_RollbackNotAllowedBeforeCommitAttempt(t *testing.T) {
	spy := transport.NewSpy()
	spy.CheckErr = errors.New("constraint violation")
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Stage(ctx, testDirectives); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if err := sess.Validate(ctx); err == nil {
		t.Fatal("Validate succeeded against failing transport")
	}

	// Failed without a commit attempt: nothing to undo.
	if err := sess.Rollback(ctx, 1); !errors.Is(err, util.ErrInvalidTransition) {
		t.Errorf("Rollback = %v, want transition error", err)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	spy := transport.NewSpy()
	sess := newTestSession(spy)
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sess.Close(); err != nil {
			t.Fatalf("Close %d failed: %v", i, err)
		}
	}
	if n := spy.CallCount("close"); n != 1 {
		t.Errorf("transport close called %d times, want 1", n)
	}
	if sess.State() != StateDisconnected {
		t.Errorf("state = %q, want disconnected", sess.State())
	}
}

func TestSession_CloseWithoutConnect(t *testing.T) {
	sess := newTestSession(transport.NewSpy())
	if err := sess.Close(); err != nil {
		t.Fatalf("Close on fresh session: %v", err)
	}
}
