package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/scrapli/scrapligo/driver/network"
	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/platform"
	"github.com/scrapli/scrapligo/response"

	"github.com/srxprov/srxprov/pkg/util"
)

// junosPlatform is the scrapligo platform definition for SRX devices.
const junosPlatform = "juniper_junos"

// Junos is the real-device transport. It drives the Junos CLI over SSH via
// scrapligo: directives are loaded into the candidate configuration with
// SendConfigs, and commit/rollback run as configuration-mode commands. The
// device's commit engine provides the all-or-nothing apply guarantee.
type Junos struct{}

// NewJunos returns a transport for real SRX devices.
func NewJunos() *Junos { return &Junos{} }

// Open dials the device and enters an authenticated CLI session. A single
// attempt; retry policy belongs to the caller.
func (t *Junos) Open(ctx context.Context, target Target) (Handle, error) {
	if target.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, target.ConnectTimeout)
		defer cancel()
	}

	driver, err := await(ctx, func() (*network.Driver, error) {
		p, err := platform.NewPlatform(
			junosPlatform,
			target.Host,
			options.WithAuthNoStrictKey(),
			options.WithAuthUsername(target.Username),
			options.WithAuthPassword(target.Password),
			options.WithPort(target.Port),
		)
		if err != nil {
			return nil, err
		}
		d, err := p.GetNetworkDriver()
		if err != nil {
			return nil, err
		}
		if err := d.Open(); err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		return nil, &ConnectionError{Host: target.Host, Err: err}
	}

	util.WithDevice(target.Device).Info("Connected")
	return &junosHandle{device: target.Device, driver: driver}, nil
}

type junosHandle struct {
	device string
	driver *network.Driver

	mu     sync.Mutex
	closed bool
}

func (h *junosHandle) LoadStaged(ctx context.Context, directives []string) error {
	mr, err := await(ctx, func() (*response.MultiResponse, error) {
		return h.driver.SendConfigs(directives)
	})
	if err != nil {
		return &LoadError{Detail: err.Error()}
	}
	if mr.Failed != nil {
		return &LoadError{Detail: mr.Failed.Error()}
	}
	return nil
}

func (h *junosHandle) DiffStaged(ctx context.Context) (string, error) {
	r, err := h.sendConfig(ctx, "show | compare")
	if err != nil {
		return "", err
	}
	diff := strings.TrimSpace(r.Result)
	// Junos prints nothing (or a bare [edit] banner) for a no-op candidate.
	if diff == "[edit]" {
		diff = ""
	}
	return diff, nil
}

func (h *junosHandle) CheckStaged(ctx context.Context) error {
	r, err := h.sendConfig(ctx, "commit check")
	if err != nil {
		return &ValidationError{Detail: err.Error()}
	}
	if r.Failed != nil {
		return &ValidationError{Detail: r.Failed.Error()}
	}
	return nil
}

func (h *junosHandle) CommitStaged(ctx context.Context, comment string) error {
	r, err := h.sendConfig(ctx, fmt.Sprintf("commit comment %q", comment))
	if err != nil {
		return &CommitError{Detail: err.Error()}
	}
	if r.Failed != nil {
		return &CommitError{Detail: r.Failed.Error()}
	}
	return nil
}

func (h *junosHandle) RollbackTo(ctx context.Context, snapshotID int) error {
	r, err := h.sendConfig(ctx, fmt.Sprintf("rollback %d", snapshotID))
	if err != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: err.Error()}
	}
	if r.Failed != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: r.Failed.Error()}
	}
	if r, err = h.sendConfig(ctx, "commit"); err != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: err.Error()}
	}
	if r.Failed != nil {
		return &RollbackError{SnapshotID: snapshotID, Detail: r.Failed.Error()}
	}
	return nil
}

func (h *junosHandle) Facts(ctx context.Context) (*Facts, error) {
	r, err := await(ctx, func() (*response.Response, error) {
		return h.driver.SendCommand("show version")
	})
	if err != nil {
		return nil, err
	}
	if r.Failed != nil {
		return nil, r.Failed
	}
	return parseShowVersion(r.Result), nil
}

func (h *junosHandle) Export(ctx context.Context) (string, error) {
	r, err := await(ctx, func() (*response.Response, error) {
		return h.driver.SendCommand("show configuration | display set")
	})
	if err != nil {
		return "", err
	}
	if r.Failed != nil {
		return "", r.Failed
	}
	return r.Result, nil
}

func (h *junosHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.driver.Close()
	util.WithDevice(h.device).Info("Disconnected")
	return err
}

func (h *junosHandle) sendConfig(ctx context.Context, cfg string) (*response.Response, error) {
	return await(ctx, func() (*response.Response, error) {
		return h.driver.SendConfig(cfg)
	})
}

// parseShowVersion extracts facts from "show version" output, e.g.
//
//	Hostname: srx-branch1
//	Model: srx300
//	Junos: 20.4R3.8
func parseShowVersion(out string) *Facts {
	f := &Facts{}
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "hostname":
			f.Hostname = value
		case "model":
			f.Model = value
		case "junos", "junos version":
			f.Version = value
		}
	}
	return f
}

type awaitResult[T any] struct {
	val T
	err error
}

// await runs a blocking scrapligo call in a goroutine so it can be abandoned
// when the context expires. scrapligo operations do not take a context; the
// goroutine is left to finish (and be discarded) on timeout.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	ch := make(chan awaitResult[T], 1)
	go func() {
		v, err := fn()
		ch <- awaitResult[T]{val: v, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}
