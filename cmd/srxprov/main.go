// Srxprov - Juniper SRX configuration automation tool
//
// A CLI for staging, validating, and committing interface/security-zone
// configuration on SRX firewalls, with:
//   - A fixed, audited pipeline: connect → build → load → diff → validate → commit
//   - Commit-with-rollback safety (all-or-nothing device commits)
//   - Simulated devices for demonstration without hardware
//   - Append-only history of every configuration attempt
//
// Context flags select the device; commands act on it:
//
//	srxprov -d <device> <verb> [flags]
//
// Examples:
//
//	srxprov -d branch1 configure --interface ge-0/0/1 --ip 192.168.10.1/24 --zone trust
//	srxprov -d branch1 status
//	srxprov -d branch1 backup -o branch1.conf
//	srxprov -d branch1 rollback --snapshot 1
//	srxprov history -n 20
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srxprov/srxprov/pkg/history"
	"github.com/srxprov/srxprov/pkg/inventory"
	"github.com/srxprov/srxprov/pkg/provision"
	"github.com/srxprov/srxprov/pkg/settings"
	"github.com/srxprov/srxprov/pkg/util"
	"github.com/srxprov/srxprov/pkg/version"
)

var (
	// Global context flags
	deviceName    string // -d, --device
	inventoryPath string // --inventory

	// Global option flags
	verbose    bool
	jsonOutput bool

	// Global state
	userSettings *settings.Settings
)

var rootCmd = &cobra.Command{
	Use:           "srxprov",
	Short:         "Juniper SRX configuration automation",
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			if err := util.SetLogLevel("debug"); err != nil {
				return err
			}
		}
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "device name from the inventory")
	rootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", "", "inventory file (default ~/.srxprov/inventory.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON instead of text")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(settingsCmd)
}

// srxprovDir returns the per-user data directory.
func srxprovDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".srxprov")
}

// loadInventory resolves the inventory path (flag, then settings, then the
// default location) and loads it.
func loadInventory() (*inventory.Inventory, error) {
	path := inventoryPath
	if path == "" {
		path = userSettings.InventoryPath
	}
	if path == "" {
		path = filepath.Join(srxprovDir(), "inventory.yaml")
	}
	return inventory.Load(path)
}

// requireDevice returns the device selected by -d or the settings default.
func requireDevice() (string, error) {
	if deviceName != "" {
		return deviceName, nil
	}
	if userSettings.DefaultDevice != "" {
		return userSettings.DefaultDevice, nil
	}
	return "", fmt.Errorf("no device selected (use -d or: srxprov settings set device <name>)")
}

// openHistory opens the JSON-lines history file.
func openHistory() (history.Store, error) {
	path := userSettings.HistoryPath
	if path == "" {
		path = filepath.Join(srxprovDir(), "history.jsonl")
	}
	return history.NewFileStore(path)
}

// newExecutor builds an executor over the inventory with file-backed
// history. The caller closes the returned store after exec.Wait().
func newExecutor() (*provision.Executor, *inventory.Inventory, history.Store, error) {
	inv, err := loadInventory()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openHistory()
	if err != nil {
		return nil, nil, nil, err
	}
	return provision.NewExecutor(inv, store), inv, store, nil
}

// promptPassword asks for a credential when a real device's inventory entry
// omits one.
func promptPassword(inv *inventory.Inventory, device string) error {
	d, err := inv.Device(device)
	if err != nil {
		return err
	}
	if d.Simulated || d.Password != "" {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", d.Username, d.Host)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	return inv.SetPassword(device, string(raw))
}
