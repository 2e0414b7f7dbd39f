package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export the device's running configuration",
	Long: `Export the device's running configuration in set-command form.

Writes to stdout unless -o is given.`,
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

		export, err := exec.Backup(context.Background(), device)
		if err != nil {
			return err
		}

		if backupOutput == "" {
			fmt.Println(export)
			return nil
		}
		if err := os.WriteFile(backupOutput, []byte(export+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing backup: %w", err)
		}
		fmt.Printf("Backup written to %s\n", backupOutput)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "write backup to file")
}
