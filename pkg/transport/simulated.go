package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// SimulatedConfig controls the simulated device's behavior. Failure
// injection is explicit and seedable so demo runs can be probabilistic while
// test runs stay deterministic.
type SimulatedConfig struct {
	// Seed for the failure-injection RNG. Zero means time-seeded.
	Seed int64

	// StepDelay is the artificial delay applied to each transport call.
	StepDelay time.Duration

	// FailureRate is the probability in [0,1] that any single call fails.
	FailureRate float64

	// FailStep deterministically fails exactly the named call:
	// "connect", "load", "diff", "validate", "commit" or "rollback".
	// Takes precedence over FailureRate.
	FailStep string
}

// Simulated is an in-process stand-in for an SRX device. It keeps a running
// configuration as a set-directive list and a stack of commit snapshots, so
// diff, commit, rollback, and export behave like the real thing without
// hardware. One Simulated value models one device; state persists across
// handles.
type Simulated struct {
	cfg SimulatedConfig

	mu        sync.Mutex
	rng       *rand.Rand
	applied   []string   // running configuration
	snapshots [][]string // prior configurations, most recent first
}

// NewSimulated creates a simulated device with a small baseline
// configuration (a WAN interface in the untrust zone).
func NewSimulated(cfg SimulatedConfig) *Simulated {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		applied: []string{
			"set interfaces ge-0/0/0 unit 0 family inet address 10.0.0.1/24",
			"set interfaces ge-0/0/0 unit 0 description 'WAN Interface'",
			"set security zones security-zone untrust interfaces ge-0/0/0.0",
		},
	}
}

// Open simulates connection establishment.
func (s *Simulated) Open(ctx context.Context, target Target) (Handle, error) {
	if err := s.delay(ctx); err != nil {
		return nil, &ConnectionError{Host: target.Host, Err: err}
	}
	if s.shouldFail("connect") {
		return nil, &ConnectionError{Host: target.Host, Err: errors.New("simulated connection failure")}
	}
	return &simulatedHandle{sim: s, device: target.Device}, nil
}

func (s *Simulated) delay(ctx context.Context) error {
	if s.cfg.StepDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.StepDelay):
		return nil
	}
}

func (s *Simulated) shouldFail(step string) bool {
	if s.cfg.FailStep != "" {
		return s.cfg.FailStep == step
	}
	if s.cfg.FailureRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.cfg.FailureRate
}

// contains reports whether directive is in the running config. Caller
// holds s.mu.
func (s *Simulated) contains(directive string) bool {
	for _, d := range s.applied {
		if d == directive {
			return true
		}
	}
	return false
}

type simulatedHandle struct {
	sim    *Simulated
	device string

	mu     sync.Mutex
	staged []string
	closed bool
}

func (h *simulatedHandle) LoadStaged(ctx context.Context, directives []string) error {
	if err := h.sim.delay(ctx); err != nil {
		return &LoadError{Detail: err.Error()}
	}
	if h.sim.shouldFail("load") {
		return &LoadError{Detail: "simulated syntax rejection"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staged = append([]string(nil), directives...)
	return nil
}

func (h *simulatedHandle) DiffStaged(ctx context.Context) (string, error) {
	if err := h.sim.delay(ctx); err != nil {
		return "", err
	}
	if h.sim.shouldFail("diff") {
		return "", fmt.Errorf("simulated diff failure")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sim.mu.Lock()
	defer h.sim.mu.Unlock()

	var lines []string
	for _, d := range h.staged {
		if !h.sim.contains(d) {
			lines = append(lines, "+ "+d)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (h *simulatedHandle) CheckStaged(ctx context.Context) error {
	if err := h.sim.delay(ctx); err != nil {
		return &ValidationError{Detail: err.Error()}
	}
	if h.sim.shouldFail("validate") {
		return &ValidationError{Detail: "simulated commit check failure"}
	}
	return nil
}

func (h *simulatedHandle) CommitStaged(ctx context.Context, comment string) error {
	if err := h.sim.delay(ctx); err != nil {
		return &CommitError{Detail: err.Error()}
	}
	if h.sim.shouldFail("commit") {
		return &CommitError{Detail: "simulated commit failure"}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sim.mu.Lock()
	defer h.sim.mu.Unlock()

	// Snapshot the pre-commit configuration, then merge the candidate.
	prior := append([]string(nil), h.sim.applied...)
	h.sim.snapshots = append([][]string{prior}, h.sim.snapshots...)
	for _, d := range h.staged {
		if !h.sim.contains(d) {
			h.sim.applied = append(h.sim.applied, d)
		}
	}
	h.staged = nil
	return nil
}

func (h *simulatedHandle) RollbackTo(ctx context.Context, snapshotID int) error {
	if err := h.sim.delay(ctx); err != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: err.Error()}
	}
	if h.sim.shouldFail("rollback") {
		return &RollbackError{SnapshotID: snapshotID, Detail: "simulated rollback failure"}
	}

	h.sim.mu.Lock()
	defer h.sim.mu.Unlock()
	if snapshotID < 1 || snapshotID > len(h.sim.snapshots) {
		return &RollbackError{SnapshotID: snapshotID, Detail: "snapshot does not exist"}
	}

	prior := append([]string(nil), h.sim.applied...)
	h.sim.applied = append([]string(nil), h.sim.snapshots[snapshotID-1]...)
	h.sim.snapshots = append([][]string{prior}, h.sim.snapshots...)
	return nil
}

func (h *simulatedHandle) Facts(ctx context.Context) (*Facts, error) {
	if err := h.sim.delay(ctx); err != nil {
		return nil, err
	}
	return &Facts{
		Hostname: "vSRX-Mock",
		Model:    "vSRX",
		Version:  "20.4R3.8",
		Serial:   "VM123456789",
		Uptime:   "45 days, 12:34:56",
	}, nil
}

func (h *simulatedHandle) Export(ctx context.Context) (string, error) {
	if err := h.sim.delay(ctx); err != nil {
		return "", err
	}
	h.sim.mu.Lock()
	defer h.sim.mu.Unlock()
	return strings.Join(h.sim.applied, "\n"), nil
}

func (h *simulatedHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
