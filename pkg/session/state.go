package session

// State is the lifecycle state of a configuration session. Transitions are
// one-directional: Disconnected → Connected → Staged → Validated →
// Committed → RolledBack. Failed is reachable from any non-terminal state;
// the only way out of Failed is Close, which returns to Disconnected.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateStaged       State = "staged"
	StateValidated    State = "validated"
	StateCommitted    State = "committed"
	StateRolledBack   State = "rolled-back"
	StateFailed       State = "failed"
)

// Terminal reports whether no further configuration operations are possible
// from s (other than Close).
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRolledBack || s == StateFailed
}
