package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds the outer retry loop around Run. Only connection
// failures are retried: a retried run starts a brand-new session, so
// load/validate/commit failures indicate a bad intent or a device
// rejection and are final.
type RetryPolicy struct {
	// Attempts is the total number of runs, including the first.
	Attempts uint64
	// InitialBackoff is the first wait between attempts; subsequent waits
	// grow exponentially.
	InitialBackoff time.Duration
}

// DefaultRetryPolicy retries twice more after a connection failure.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, InitialBackoff: 2 * time.Second}

// RunWithRetry wraps Run in a bounded exponential-backoff retry loop. Each
// attempt is a fresh session; the outcome of the last attempt is returned.
// Pre-flight errors are returned immediately and never retried.
func (e *Executor) RunWithRetry(ctx context.Context, device string, intent ConfigIntent, policy RetryPolicy) (*Outcome, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = time.Second
	}

	var last *Outcome
	var preflight error

	b := retry.WithMaxRetries(policy.Attempts-1, retry.NewExponential(policy.InitialBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		outcome, err := e.Run(ctx, device, intent)
		if err != nil {
			preflight = err
			return err // pre-flight: final
		}
		last = outcome
		if outcome.Committed() {
			return nil
		}
		failed := outcome.FailedStep()
		if failed == StepConnect {
			return retry.RetryableError(fmt.Errorf("run failed at step %q", failed))
		}
		return fmt.Errorf("run failed at step %q", failed)
	})

	if preflight != nil {
		return nil, preflight
	}
	if last != nil {
		// Attempts exhausted or a non-retryable stage failed: the outcome
		// carries the step detail, so the error is not surfaced separately.
		return last, nil
	}
	return nil, err
}
