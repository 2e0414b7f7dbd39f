package provision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/srxprov/srxprov/pkg/session"
	"github.com/srxprov/srxprov/pkg/transport"
	"github.com/srxprov/srxprov/pkg/util"
)

// historyAppendTimeout bounds the best-effort async history write.
const historyAppendTimeout = 5 * time.Second

// TargetResolver maps a device identity to its transport and target. The
// inventory implements this; transport selection is fixed per session and
// never re-decided mid-run.
type TargetResolver interface {
	Resolve(device string) (transport.Transport, transport.Target, error)
}

// Executor runs configuration intents through the fixed pipeline
// connect → build → load → diff → validate → commit, capturing one
// StepResult per stage and stopping at the first failure. The device is
// always disconnected on exit, success or failure, and runs against the
// same device identity are serialized.
//
// The executor never retries a stage internally; see RunWithRetry for the
// outer policy.
type Executor struct {
	resolver TargetResolver
	history  HistorySink // optional; appends are async and best-effort
	locks    *lockTable
	wg       sync.WaitGroup
}

// NewExecutor creates an executor. history may be nil.
func NewExecutor(resolver TargetResolver, history HistorySink) *Executor {
	return &Executor{
		resolver: resolver,
		history:  history,
		locks:    newLockTable(),
	}
}

// Run executes one configuration intent against the named device and
// returns its outcome. The returned error is non-nil only for pre-flight
// failures (malformed intent, unknown device); those are rejected before
// any transport call. Pipeline failures are reported inside the outcome,
// never as an error.
func (e *Executor) Run(ctx context.Context, device string, intent ConfigIntent) (*Outcome, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	tr, target, err := e.resolver.Resolve(device)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(device)
	defer unlock()

	sess := session.New(tr, target)
	defer sess.Close()

	outcome := &Outcome{
		ID:        uuid.NewString(),
		Device:    device,
		Intent:    intent,
		StartedAt: time.Now(),
	}

	step := func(name string, fn func() (string, error)) bool {
		detail, err := fn()
		result := StepResult{Step: name, Timestamp: time.Now()}
		if err != nil {
			result.Detail = err.Error()
			outcome.Steps = append(outcome.Steps, result)
			util.WithStep(device, name).Warnf("Step failed: %v", err)
			return false
		}
		result.Succeeded = true
		result.Detail = detail
		outcome.Steps = append(outcome.Steps, result)
		util.WithStep(device, name).Debug(detail)
		return true
	}

	var directives []Directive
	ok := step(StepConnect, func() (string, error) {
		if err := sess.Connect(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("connected to %s", target.Host), nil
	})
	ok = ok && step(StepBuild, func() (string, error) {
		directives = BuildDirectives(intent)
		return fmt.Sprintf("generated %d directives", len(directives)), nil
	})
	ok = ok && step(StepLoad, func() (string, error) {
		if err := sess.Stage(ctx, directiveStrings(directives)); err != nil {
			return "", err
		}
		return "staged candidate configuration", nil
	})
	ok = ok && step(StepDiff, func() (string, error) {
		diff, err := sess.Diff(ctx)
		if err != nil {
			return "", err
		}
		if diff == "" {
			return "no changes against running configuration", nil
		}
		util.WithDevice(device).Infof("Configuration changes:\n%s", diff)
		return fmt.Sprintf("%d changed lines", len(strings.Split(diff, "\n"))), nil
	})
	ok = ok && step(StepValidate, func() (string, error) {
		if err := sess.Validate(ctx); err != nil {
			return "", err
		}
		return "commit check passed", nil
	})
	ok = ok && step(StepCommit, func() (string, error) {
		comment := fmt.Sprintf("srxprov %s", outcome.StartedAt.Format(time.RFC3339))
		if err := sess.Commit(ctx, comment); err != nil {
			return "", err
		}
		return "committed", nil
	})

	outcome.FinalState = sess.State()
	if ok && outcome.Committed() {
		outcome.AppliedDirectives = directives
	}
	outcome.Duration = time.Since(outcome.StartedAt)

	if outcome.Committed() {
		util.WithDevice(device).Infof("Configuration committed (%s)", outcome.Duration.Round(time.Millisecond))
	} else {
		util.WithDevice(device).Warnf("Configuration failed at step %q", outcome.FailedStep())
	}

	e.appendHistory(outcome)
	return outcome, nil
}

// appendHistory persists the outcome off the critical path: the run returns
// to its caller without waiting, and failures are logged, not surfaced.
func (e *Executor) appendHistory(outcome *Outcome) {
	if e.history == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historyAppendTimeout)
		defer cancel()
		if err := e.history.Append(ctx, outcome); err != nil {
			util.WithDevice(outcome.Device).Warnf("History append failed: %v", err)
		}
	}()
}

// Wait blocks until pending history appends have finished. Used on
// shutdown and by tests.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Backup exports the device's running configuration, delegating to the
// transport's config-export capability.
func (e *Executor) Backup(ctx context.Context, device string) (string, error) {
	var export string
	err := e.withHandle(ctx, device, func(h transport.Handle) error {
		var err error
		export, err = h.Export(ctx)
		return err
	})
	return export, err
}

// Status returns basic device facts.
func (e *Executor) Status(ctx context.Context, device string) (*transport.Facts, error) {
	var facts *transport.Facts
	err := e.withHandle(ctx, device, func(h transport.Handle) error {
		var err error
		facts, err = h.Facts(ctx)
		return err
	})
	return facts, err
}

// Rollback reverts the device to a named prior configuration snapshot and
// commits the reversion. This is the administrative verb: a thin transport
// delegation under the device lock, with no staging state machine of its
// own.
func (e *Executor) Rollback(ctx context.Context, device string, snapshotID int) error {
	return e.withHandle(ctx, device, func(h transport.Handle) error {
		return h.RollbackTo(ctx, snapshotID)
	})
}

// withHandle opens a transport handle under the device lock, runs fn, and
// always closes the handle.
func (e *Executor) withHandle(ctx context.Context, device string, fn func(transport.Handle) error) error {
	tr, target, err := e.resolver.Resolve(device)
	if err != nil {
		return err
	}

	unlock := e.locks.acquire(device)
	defer unlock()

	h, err := tr.Open(ctx, target)
	if err != nil {
		return err
	}
	defer h.Close()

	return fn(h)
}
