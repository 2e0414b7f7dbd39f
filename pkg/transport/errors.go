package transport

import (
	"fmt"

	"github.com/srxprov/srxprov/pkg/util"
)

// ConnectionError indicates the device was unreachable, authentication
// failed, or the connection timed out before a session was established.
// Recoverable by retrying with a fresh session.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return util.ErrConnectionFailed }

// LoadError indicates the device rejected the directive syntax. Not
// retryable without fixing the intent or the builder.
type LoadError struct {
	Detail string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading staged configuration: %s", e.Detail)
}

func (e *LoadError) Unwrap() error { return util.ErrLoadFailed }

// ValidationError indicates the staged change failed the device-side
// semantic check (commit check).
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checking staged configuration: %s", e.Detail)
}

func (e *ValidationError) Unwrap() error { return util.ErrValidationFailed }

// CommitError indicates the device rejected or failed to apply the staged
// change. The transport guarantees no partial apply.
type CommitError struct {
	Detail string
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing staged configuration: %s", e.Detail)
}

func (e *CommitError) Unwrap() error { return util.ErrCommitFailed }

// RollbackError indicates the named snapshot does not exist or the rollback
// itself failed. Fatal for the session; never silently swallowed.
type RollbackError struct {
	SnapshotID int
	Detail     string
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback to snapshot %d: %s", e.SnapshotID, e.Detail)
}

func (e *RollbackError) Unwrap() error { return util.ErrRollbackFailed }
