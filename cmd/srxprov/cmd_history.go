package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var historyCount int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent configuration attempts (most recent first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		outcomes, err := store.Recent(context.Background(), historyCount)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outcomes)
		}

		if len(outcomes) == 0 {
			fmt.Println("No configuration history.")
			return nil
		}
		for _, o := range outcomes {
			status := string(o.FinalState)
			detail := ""
			if step := o.FailedStep(); step != "" {
				detail = fmt.Sprintf(" (failed at %s)", step)
			}
			fmt.Printf("%s  %-12s %-10s %s %s -> %s%s\n",
				o.StartedAt.Format(time.RFC3339),
				o.Device,
				status,
				o.Intent.InterfaceName,
				o.Intent.InterfaceAddress,
				o.Intent.SecurityZone,
				detail)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 10, "number of entries to show")
}
