package transport

import (
	"context"
	"sync"
)

// Spy is a recording transport for tests. It notes every call made against
// it and returns canned values, so tests can assert call order (open before
// close, close exactly once) and that pre-flight rejections never touch the
// transport. Intended for use by external test packages, in the same spirit
// as exported test constructors elsewhere.
type Spy struct {
	mu    sync.Mutex
	calls []string

	OpenErr     error
	LoadErr     error
	DiffErr     error
	CheckErr    error
	CommitErr   error
	RollbackErr error

	DiffText   string
	ExportText string
	FactsVal   *Facts
}

// NewSpy returns a Spy that succeeds on every call.
func NewSpy() *Spy { return &Spy{} }

func (s *Spy) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns the recorded call names in order.
func (s *Spy) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many times the named call was recorded.
func (s *Spy) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *Spy) Open(ctx context.Context, target Target) (Handle, error) {
	s.record("open")
	if s.OpenErr != nil {
		return nil, &ConnectionError{Host: target.Host, Err: s.OpenErr}
	}
	return &spyHandle{spy: s}, nil
}

type spyHandle struct {
	spy *Spy
}

func (h *spyHandle) LoadStaged(ctx context.Context, directives []string) error {
	h.spy.record("load")
	if h.spy.LoadErr != nil {
		return &LoadError{Detail: h.spy.LoadErr.Error()}
	}
	return nil
}

func (h *spyHandle) DiffStaged(ctx context.Context) (string, error) {
	h.spy.record("diff")
	if h.spy.DiffErr != nil {
		return "", h.spy.DiffErr
	}
	return h.spy.DiffText, nil
}

func (h *spyHandle) CheckStaged(ctx context.Context) error {
	h.spy.record("check")
	if h.spy.CheckErr != nil {
		return &ValidationError{Detail: h.spy.CheckErr.Error()}
	}
	return nil
}

func (h *spyHandle) CommitStaged(ctx context.Context, comment string) error {
	h.spy.record("commit")
	if h.spy.CommitErr != nil {
		return &CommitError{Detail: h.spy.CommitErr.Error()}
	}
	return nil
}

func (h *spyHandle) RollbackTo(ctx context.Context, snapshotID int) error {
	h.spy.record("rollback")
	if h.spy.RollbackErr != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: h.spy.RollbackErr.Error()}
	}
	return nil
}

func (h *spyHandle) Facts(ctx context.Context) (*Facts, error) {
	h.spy.record("facts")
	if h.spy.FactsVal != nil {
		return h.spy.FactsVal, nil
	}
	return &Facts{Hostname: "spy"}, nil
}

func (h *spyHandle) Export(ctx context.Context) (string, error) {
	h.spy.record("export")
	return h.spy.ExportText, nil
}

func (h *spyHandle) Close() error {
	h.spy.record("close")
	return nil
}
