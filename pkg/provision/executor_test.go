package provision_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/srxprov/srxprov/internal/testutil"
	"github.com/srxprov/srxprov/pkg/provision"
	"github.com/srxprov/srxprov/pkg/session"
	"github.com/srxprov/srxprov/pkg/transport"
	"github.com/srxprov/srxprov/pkg/util"
)

// fixedResolver maps every device name to one transport.
type fixedResolver struct {
	tr transport.Transport
}

func (r *fixedResolver) Resolve(device string) (transport.Transport, transport.Target, error) {
	return r.tr, transport.Target{Device: device, Host: "test-host"}, nil
}

// sinkFunc adapts a function to provision.HistorySink.
type sinkFunc func(ctx context.Context, outcome *provision.Outcome) error

func (f sinkFunc) Append(ctx context.Context, outcome *provision.Outcome) error {
	return f(ctx, outcome)
}

func TestExecutor_RunCommits(t *testing.T) {
	spy := transport.NewSpy()
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	outcome, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Committed() {
		t.Fatalf("FinalState = %q, want committed", outcome.FinalState)
	}
	if len(outcome.Steps) != len(provision.PipelineSteps) {
		t.Fatalf("got %d steps, want %d", len(outcome.Steps), len(provision.PipelineSteps))
	}
	for i, s := range outcome.Steps {
		if s.Step != provision.PipelineSteps[i] {
			t.Errorf("step %d = %q, want %q", i, s.Step, provision.PipelineSteps[i])
		}
		if !s.Succeeded {
			t.Errorf("step %q not succeeded", s.Step)
		}
	}
	if len(outcome.AppliedDirectives) == 0 {
		t.Error("AppliedDirectives empty on committed outcome")
	} else if outcome.AppliedDirectives[0] != "set interfaces ge-0/0/1 unit 0 family inet address 192.168.10.1/24" {
		t.Errorf("first applied directive = %q", outcome.AppliedDirectives[0])
	}
	if outcome.ID == "" {
		t.Error("outcome ID not set")
	}

	want := []string{"open", "load", "diff", "check", "commit", "close"}
	if got := spy.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("transport calls = %v, want %v", got, want)
	}
}

func TestExecutor_RunHaltsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name      string
		failStep  string
		wantSteps int
	}{
		{"connect", "connect", 1},
		{"load", "load", 3},
		{"diff", "diff", 4},
		{"validate", "validate", 5},
		{"commit", "commit", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := transport.NewSimulated(transport.SimulatedConfig{FailStep: tt.failStep})
			exec := provision.NewExecutor(&fixedResolver{tr: sim}, nil)

			outcome, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent())
			if err != nil {
				t.Fatalf("Run returned error for pipeline failure: %v", err)
			}

			if outcome.Committed() {
				t.Fatal("outcome committed despite injected failure")
			}
			if len(outcome.Steps) != tt.wantSteps {
				t.Fatalf("got %d steps, want %d", len(outcome.Steps), tt.wantSteps)
			}
			last := outcome.Steps[len(outcome.Steps)-1]
			if last.Succeeded {
				t.Errorf("last step %q succeeded, want failure", last.Step)
			}
			if outcome.FailedStep() != last.Step {
				t.Errorf("FailedStep = %q, want %q", outcome.FailedStep(), last.Step)
			}
			for _, s := range outcome.Steps[:len(outcome.Steps)-1] {
				if !s.Succeeded {
					t.Errorf("step %q before the failure did not succeed", s.Step)
				}
			}
			if len(outcome.AppliedDirectives) != 0 {
				t.Error("AppliedDirectives set on failed outcome")
			}
		})
	}
}

func TestExecutor_PreflightRejectionTouchesNoTransport(t *testing.T) {
	spy := transport.NewSpy()
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	bad := provision.ConfigIntent{InterfaceName: "ge-0/0/1", InterfaceAddress: "not-an-ip", SecurityZone: "trust"}
	outcome, err := exec.Run(context.Background(), "srx1", bad)
	if err == nil {
		t.Fatal("Run accepted a malformed intent")
	}
	if !errors.Is(err, util.ErrInvalidIntent) {
		t.Errorf("error does not unwrap to ErrInvalidIntent: %v", err)
	}
	if outcome != nil {
		t.Error("outcome returned for pre-flight rejection")
	}
	if calls := spy.Calls(); len(calls) != 0 {
		t.Errorf("transport touched during pre-flight rejection: %v", calls)
	}
}

func TestExecutor_ClosesHandleOnFailure(t *testing.T) {
	spy := transport.NewSpy()
	spy.CommitErr = errors.New("commit refused")
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	outcome, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.FinalState != session.StateFailed {
		t.Errorf("FinalState = %q, want failed", outcome.FinalState)
	}
	if n := spy.CallCount("close"); n != 1 {
		t.Errorf("close called %d times, want 1", n)
	}
}

func TestExecutor_SerializesRunsPerDevice(t *testing.T) {
	spy := transport.NewSpy()
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent()); err != nil {
				t.Errorf("Run failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Each run makes six transport calls; serialization means the two
	// open..close windows never interleave.
	calls := spy.Calls()
	if len(calls) != 12 {
		t.Fatalf("got %d transport calls, want 12: %v", len(calls), calls)
	}
	for _, run := range [][]string{calls[:6], calls[6:]} {
		if run[0] != "open" || run[5] != "close" {
			t.Errorf("run window not open..close: %v", run)
		}
	}
}

func TestExecutor_AppendsHistoryAsync(t *testing.T) {
	appended := make(chan *provision.Outcome, 1)
	sink := sinkFunc(func(ctx context.Context, outcome *provision.Outcome) error {
		appended <- outcome
		return nil
	})

	exec := provision.NewExecutor(&fixedResolver{tr: transport.NewSpy()}, sink)
	outcome, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	exec.Wait()

	select {
	case got := <-appended:
		if got.ID != outcome.ID {
			t.Errorf("appended outcome ID = %q, want %q", got.ID, outcome.ID)
		}
	default:
		t.Fatal("no outcome appended to history")
	}
}

func TestExecutor_HistoryFailureDoesNotFailRun(t *testing.T) {
	sink := sinkFunc(func(ctx context.Context, outcome *provision.Outcome) error {
		return errors.New("store unavailable")
	})

	exec := provision.NewExecutor(&fixedResolver{tr: transport.NewSpy()}, sink)
	outcome, err := exec.Run(context.Background(), "srx1", testutil.SampleIntent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	exec.Wait()
	if !outcome.Committed() {
		t.Error("run outcome affected by history failure")
	}
}

func TestExecutor_UnknownDevice(t *testing.T) {
	inv := testutil.SimInventory(t)
	exec := provision.NewExecutor(inv, nil)

	_, err := exec.Run(context.Background(), "no-such-device", testutil.SampleIntent())
	if err == nil {
		t.Fatal("Run accepted an unknown device")
	}
	if !strings.Contains(err.Error(), "not found in inventory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_BackupAndStatus(t *testing.T) {
	inv := testutil.SimInventory(t)
	exec := provision.NewExecutor(inv, nil)
	ctx := context.Background()

	export, err := exec.Backup(ctx, "sim1")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if !strings.Contains(export, "set interfaces ge-0/0/0") {
		t.Errorf("export missing baseline configuration:\n%s", export)
	}

	facts, err := exec.Status(ctx, "sim1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if facts.Model != "vSRX" {
		t.Errorf("Model = %q, want vSRX", facts.Model)
	}
}

func TestExecutor_Rollback(t *testing.T) {
	inv := testutil.SimInventory(t)
	exec := provision.NewExecutor(inv, nil)
	ctx := context.Background()

	// No commits yet: snapshot 1 does not exist.
	err := exec.Rollback(ctx, "sim1", 1)
	if err == nil {
		t.Fatal("Rollback succeeded with no snapshots")
	}
	if !errors.Is(err, util.ErrRollbackFailed) {
		t.Errorf("error does not unwrap to ErrRollbackFailed: %v", err)
	}

	before, err := exec.Backup(ctx, "sim1")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	if _, err := exec.Run(ctx, "sim1", testutil.SampleIntent()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := exec.Rollback(ctx, "sim1", 1); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	after, err := exec.Backup(ctx, "sim1")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if after != before {
		t.Errorf("rollback did not restore the prior configuration:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

// flakyTransport fails the first N opens, then delegates to inner.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	inner    transport.Transport
}

func (f *flakyTransport) Open(ctx context.Context, target transport.Target) (transport.Handle, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, &transport.ConnectionError{Host: target.Host, Err: errors.New("transient")}
	}
	return f.inner.Open(ctx, target)
}

func TestExecutor_RunWithRetryRecoversConnectFailures(t *testing.T) {
	tr := &flakyTransport{failures: 2, inner: transport.NewSpy()}
	exec := provision.NewExecutor(&fixedResolver{tr: tr}, nil)

	policy := provision.RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}
	outcome, err := exec.RunWithRetry(context.Background(), "srx1", testutil.SampleIntent(), policy)
	if err != nil {
		t.Fatalf("RunWithRetry failed: %v", err)
	}
	if !outcome.Committed() {
		t.Errorf("FinalState = %q, want committed after retries", outcome.FinalState)
	}
}

func TestExecutor_RunWithRetryExhaustsAttempts(t *testing.T) {
	tr := &flakyTransport{failures: 10, inner: transport.NewSpy()}
	exec := provision.NewExecutor(&fixedResolver{tr: tr}, nil)

	policy := provision.RetryPolicy{Attempts: 2, InitialBackoff: time.Millisecond}
	outcome, err := exec.RunWithRetry(context.Background(), "srx1", testutil.SampleIntent(), policy)
	if err != nil {
		t.Fatalf("RunWithRetry returned error, want last outcome: %v", err)
	}
	if outcome.Committed() {
		t.Error("outcome committed despite persistent connect failures")
	}
	if outcome.FailedStep() != provision.StepConnect {
		t.Errorf("FailedStep = %q, want connect", outcome.FailedStep())
	}
	if remaining := tr.failures; remaining != 8 {
		t.Errorf("open attempted %d times, want 2", 10-remaining)
	}
}

func TestExecutor_RunWithRetryDoesNotRetryCommitFailure(t *testing.T) {
	spy := transport.NewSpy()
	spy.CommitErr = errors.New("commit refused")
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	policy := provision.RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}
	outcome, err := exec.RunWithRetry(context.Background(), "srx1", testutil.SampleIntent(), policy)
	if err != nil {
		t.Fatalf("RunWithRetry failed: %v", err)
	}
	if outcome.Committed() {
		t.Error("outcome committed despite commit failure")
	}
	if n := spy.CallCount("commit"); n != 1 {
		t.Errorf("commit attempted %d times, want 1", n)
	}
}

func TestExecutor_RunWithRetryPreflightIsFinal(t *testing.T) {
	spy := transport.NewSpy()
	exec := provision.NewExecutor(&fixedResolver{tr: spy}, nil)

	bad := provision.ConfigIntent{}
	_, err := exec.RunWithRetry(context.Background(), "srx1", bad, provision.DefaultRetryPolicy)
	if err == nil {
		t.Fatal("RunWithRetry accepted a malformed intent")
	}
	if len(spy.Calls()) != 0 {
		t.Error("transport touched for pre-flight rejection")
	}
}
