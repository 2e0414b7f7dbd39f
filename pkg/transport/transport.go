// Package transport abstracts the channel used to talk to an SRX device.
//
// Two implementations exist: Junos, which drives a real device over SSH via
// scrapligo, and Simulated, an in-process device with configurable delay and
// failure injection. Session and executor code is written against the
// Transport and Handle interfaces and never cares which one it holds.
package transport

import (
	"context"
	"time"
)

// Target identifies one device endpoint and its credentials.
type Target struct {
	Device   string // logical device name (lock key, log field)
	Host     string
	Port     int
	Username string
	Password string

	// ConnectTimeout bounds Open. CommitTimeout bounds CommitStaged, after
	// which the session treats itself as failed and disconnects best-effort.
	ConnectTimeout time.Duration
	CommitTimeout  time.Duration
}

// Facts holds basic device information, as reported by "show version".
type Facts struct {
	Hostname string `json:"hostname"`
	Model    string `json:"model"`
	Version  string `json:"version"`
	Serial   string `json:"serial"`
	Uptime   string `json:"uptime"`
}

// Handle is an open, authenticated channel to one device.
//
// The staged-change contract: LoadStaged places directives in the device's
// candidate configuration without applying them; CommitStaged applies the
// candidate atomically (the device guarantees all-or-nothing); a failed
// commit leaves the running configuration untouched and discards the
// candidate.
type Handle interface {
	// LoadStaged loads directives into the candidate configuration.
	LoadStaged(ctx context.Context, directives []string) error

	// DiffStaged returns the textual change set between candidate and
	// running configuration. Empty means the candidate is a no-op.
	// Side-effect-free.
	DiffStaged(ctx context.Context) (string, error)

	// CheckStaged syntax/semantic-checks the candidate without committing.
	CheckStaged(ctx context.Context) error

	// CommitStaged atomically applies the candidate with a commit comment.
	CommitStaged(ctx context.Context, comment string) error

	// RollbackTo reverts to a prior configuration snapshot and commits the
	// reversion. Snapshot 1 is the configuration before the last commit.
	RollbackTo(ctx context.Context, snapshotID int) error

	// Facts returns basic device information.
	Facts(ctx context.Context) (*Facts, error)

	// Export returns the running configuration in set-command form,
	// for backups.
	Export(ctx context.Context) (string, error)

	// Close tears down the channel. Idempotent.
	Close() error
}

// Transport opens handles to devices. Implementations must be safe for
// concurrent use; per-device serialization is the caller's job.
type Transport interface {
	Open(ctx context.Context, target Target) (Handle, error)
}
