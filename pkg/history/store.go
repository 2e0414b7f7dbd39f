// Package history persists configuration run outcomes. Stores are
// append-only: outcomes are never mutated or deleted by the core, and
// appends are called off the run's critical path.
package history

import (
	"context"

	"github.com/srxprov/srxprov/pkg/provision"
)

// Store is an append-only record of past configuration attempts.
//
// Recent returns up to n outcomes ordered most-recent-first. All
// implementations follow this ordering.
type Store interface {
	Append(ctx context.Context, outcome *provision.Outcome) error
	Recent(ctx context.Context, n int) ([]*provision.Outcome, error)
	Close() error
}

// Every store doubles as the executor's history sink.
var (
	_ provision.HistorySink = Store(nil)
)
