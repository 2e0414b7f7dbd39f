package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/srxprov/srxprov/pkg/transport"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device reachability and basic facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := requireDevice()
		if err != nil {
			return err
		}

		exec, inv, store, err := newExecutor()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := promptPassword(inv, device); err != nil {
			return err
		}

		// Probe SSH reachability first for real devices, so an unreachable
		// host is reported as such rather than as a session failure.
		d, err := inv.Device(device)
		if err != nil {
			return err
		}
		if !d.Simulated {
			_, target, err := inv.Resolve(device)
			if err != nil {
				return err
			}
			if err := transport.Probe(target, 10*time.Second); err != nil {
				return fmt.Errorf("device unreachable: %w", err)
			}
		}

		facts, err := exec.Status(context.Background(), device)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(facts)
		}
		printFacts(device, facts)
		return nil
	},
}

func printFacts(device string, f *transport.Facts) {
	fmt.Printf("Device:   %s\n", device)
	fmt.Printf("Hostname: %s\n", f.Hostname)
	fmt.Printf("Model:    %s\n", f.Model)
	fmt.Printf("Version:  %s\n", f.Version)
	if f.Serial != "" {
		fmt.Printf("Serial:   %s\n", f.Serial)
	}
	if f.Uptime != "" {
		fmt.Printf("Uptime:   %s\n", f.Uptime)
	}
}
