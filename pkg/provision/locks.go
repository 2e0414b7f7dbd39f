package provision

import "sync"

// lockTable serializes configuration runs per device identity. Staged but
// uncommitted changes are global to a device's configuration session, so
// concurrent staging against the same device would corrupt the candidate.
// The lock is acquired before connect and released unconditionally after
// disconnect.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the device lock is held and returns the release
// function.
func (t *lockTable) acquire(device string) func() {
	t.mu.Lock()
	l, ok := t.locks[device]
	if !ok {
		l = &sync.Mutex{}
		t.locks[device] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
