package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackSnapshot int

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the device to a prior configuration snapshot",
	Long: `Revert the device to a named prior configuration snapshot and commit
the reversion. Snapshot 1 is the configuration before the most recent
commit.`,
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

		if err := exec.Rollback(context.Background(), device, rollbackSnapshot); err != nil {
			return err
		}
		fmt.Printf("Rolled back %s to snapshot %d\n", device, rollbackSnapshot)
		return nil
	},
}

func init() {
	rollbackCmd.Flags().IntVar(&rollbackSnapshot, "snapshot", 1, "snapshot to revert to")
}
