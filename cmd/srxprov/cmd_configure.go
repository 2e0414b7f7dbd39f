package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/srxprov/srxprov/pkg/provision"
)

var (
	configureInterface string
	configureIP        string
	configureZone      string
	configureRetries   uint64
	configureBackoff   time.Duration
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Stage, validate, and commit an interface/zone configuration",
	Long: `Configure an interface with an IP address, bind it into a security zone,
and apply the baseline trust/untrust policy set.

The change runs through a fixed pipeline (connect, build, load, diff,
validate, commit); the first failing step halts the run and the device is
always disconnected. Connection failures can be retried with --retries;
each retry is a brand-new session.

Examples:
  srxprov -d branch1 configure --interface ge-0/0/1 --ip 192.168.10.1/24 --zone trust
  srxprov -d mock configure --interface ge-0/0/1 --ip 192.168.10.1/24 --zone trust --retries 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := requireDevice()
		if err != nil {
			return err
		}

		exec, inv, store, err := newExecutor()
		if err != nil {
			return err
		}
		defer func() {
			exec.Wait()
			store.Close()
		}()

		if err := promptPassword(inv, device); err != nil {
			return err
		}

		intent := provision.ConfigIntent{
			InterfaceName:    configureInterface,
			InterfaceAddress: configureIP,
			SecurityZone:     configureZone,
		}

		ctx := context.Background()
		var outcome *provision.Outcome
		if configureRetries > 1 {
			outcome, err = exec.RunWithRetry(ctx, device, intent, provision.RetryPolicy{
				Attempts:       configureRetries,
				InitialBackoff: configureBackoff,
			})
		} else {
			outcome, err = exec.Run(ctx, device, intent)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return err
			}
		} else {
			printOutcome(outcome)
		}

		if !outcome.Committed() {
			return fmt.Errorf("configuration failed at step %q", outcome.FailedStep())
		}
		return nil
	},
}

func init() {
	configureCmd.Flags().StringVar(&configureInterface, "interface", "ge-0/0/1", "interface name")
	configureCmd.Flags().StringVar(&configureIP, "ip", "192.168.10.1/24", "interface address with prefix length")
	configureCmd.Flags().StringVar(&configureZone, "zone", "trust", "security zone")
	configureCmd.Flags().Uint64Var(&configureRetries, "retries", 1, "total attempts on connection failure")
	configureCmd.Flags().DurationVar(&configureBackoff, "backoff", 2*time.Second, "initial backoff between retries")
}

func printOutcome(o *provision.Outcome) {
	fmt.Printf("Device:  %s\n", o.Device)
	fmt.Printf("Run:     %s\n", o.ID)
	fmt.Printf("Steps:\n")
	for _, s := range o.Steps {
		mark := "ok"
		if !s.Succeeded {
			mark = "FAILED"
		}
		fmt.Printf("  %-10s %-6s %s\n", s.Step, mark, s.Detail)
	}
	fmt.Printf("Result:  %s (%s)\n", o.FinalState, o.Duration.Round(time.Millisecond))
	if len(o.AppliedDirectives) > 0 {
		fmt.Printf("Applied %d directives\n", len(o.AppliedDirectives))
	}
}
