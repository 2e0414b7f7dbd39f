// Package inventory loads the YAML device inventory and resolves device
// names to transports and connection targets.
package inventory

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srxprov/srxprov/pkg/transport"
	"github.com/srxprov/srxprov/pkg/util"
)

// Defaults applied when a device entry leaves them unset.
const (
	DefaultPort           = 22
	DefaultConnectTimeout = 30 * time.Second
	DefaultCommitTimeout  = 120 * time.Second
	defaultSimulatedDelay = 200 * time.Millisecond
)

// Device is one inventory entry.
//
// A device is either real (host + credentials, driven over SSH) or
// simulated (in-process, no hardware). The choice is fixed here, per
// device: a session never re-decides its transport mid-run.
type Device struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Timeouts in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
	CommitTimeout  int `yaml:"commit_timeout"`

	Simulated bool `yaml:"simulated"`

	// Simulated-device knobs. FailureRate is a per-step probability in
	// [0,1]; Seed makes failure injection reproducible; StepDelayMS
	// overrides the default artificial delay.
	FailureRate float64 `yaml:"failure_rate"`
	Seed        int64   `yaml:"seed"`
	StepDelayMS int     `yaml:"step_delay_ms"`
}

type inventoryFile struct {
	Devices []*Device `yaml:"devices"`
}

// Inventory maps device names to their entries and caches one simulated
// transport per simulated device, so mock device state (snapshots, running
// config) survives across runs within the process.
type Inventory struct {
	mu      sync.Mutex
	devices map[string]*Device
	order   []string
	junos   *transport.Junos
	sims    map[string]*transport.Simulated
}

// New builds an inventory from device entries. Used by tests and by Load.
func New(devices []*Device) (*Inventory, error) {
	inv := &Inventory{
		devices: make(map[string]*Device),
		junos:   transport.NewJunos(),
		sims:    make(map[string]*transport.Simulated),
	}
	for _, d := range devices {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, exists := inv.devices[d.Name]; exists {
			return nil, fmt.Errorf("duplicate device %q in inventory", d.Name)
		}
		inv.devices[d.Name] = d
		inv.order = append(inv.order, d.Name)
	}
	return inv, nil
}

// Load reads the YAML inventory file at path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", path, err)
	}
	inv, err := New(f.Devices)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	util.Infof("Loaded %d device(s) from %s", len(f.Devices), path)
	return inv, nil
}

func validate(d *Device) error {
	v := &util.ValidationBuilder{}
	v.Add(d.Name != "", "device name must not be empty")
	if !d.Simulated {
		v.Add(d.Host != "", fmt.Sprintf("device %q: host required for real devices", d.Name))
		v.Add(d.Username != "", fmt.Sprintf("device %q: username required for real devices", d.Name))
	}
	v.Add(d.FailureRate >= 0 && d.FailureRate <= 1,
		fmt.Sprintf("device %q: failure_rate must be in [0,1]", d.Name))
	return v.Build()
}

// Device returns the entry for name.
func (inv *Inventory) Device(name string) (*Device, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[name]
	if !ok {
		return nil, fmt.Errorf("device %q not found in inventory", name)
	}
	return d, nil
}

// Names returns device names in inventory order.
func (inv *Inventory) Names() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]string(nil), inv.order...)
}

// SetPassword injects a credential obtained at runtime (e.g. an interactive
// prompt) for a device whose inventory entry omits one.
func (inv *Inventory) SetPassword(name, password string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[name]
	if !ok {
		return fmt.Errorf("device %q not found in inventory", name)
	}
	d.Password = password
	return nil
}

// Resolve implements provision.TargetResolver: it maps a device name to its
// transport and target. Simulated devices share one transport instance per
// name.
func (inv *Inventory) Resolve(name string) (transport.Transport, transport.Target, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	d, ok := inv.devices[name]
	if !ok {
		return nil, transport.Target{}, fmt.Errorf("device %q not found in inventory", name)
	}

	target := transport.Target{
		Device:         d.Name,
		Host:           d.Host,
		Port:           d.Port,
		Username:       d.Username,
		Password:       d.Password,
		ConnectTimeout: DefaultConnectTimeout,
		CommitTimeout:  DefaultCommitTimeout,
	}
	if target.Port == 0 {
		target.Port = DefaultPort
	}
	if d.ConnectTimeout > 0 {
		target.ConnectTimeout = time.Duration(d.ConnectTimeout) * time.Second
	}
	if d.CommitTimeout > 0 {
		target.CommitTimeout = time.Duration(d.CommitTimeout) * time.Second
	}
	if d.Simulated && target.Host == "" {
		target.Host = "simulated"
	}

	if !d.Simulated {
		return inv.junos, target, nil
	}

	sim, ok := inv.sims[name]
	if !ok {
		delay := defaultSimulatedDelay
		if d.StepDelayMS > 0 {
			delay = time.Duration(d.StepDelayMS) * time.Millisecond
		}
		sim = transport.NewSimulated(transport.SimulatedConfig{
			Seed:        d.Seed,
			StepDelay:   delay,
			FailureRate: d.FailureRate,
		})
		inv.sims[name] = sim
	}
	return sim, target, nil
}
