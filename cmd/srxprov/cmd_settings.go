package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent CLI settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("default_device:  %s\n", orNone(userSettings.DefaultDevice))
		fmt.Printf("inventory_path:  %s\n", orNone(userSettings.InventoryPath))
		fmt.Printf("history_path:    %s\n", orNone(userSettings.HistoryPath))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting (device, inventory, history)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "device":
			userSettings.DefaultDevice = value
		case "inventory":
			userSettings.InventoryPath = value
		case "history":
			userSettings.HistoryPath = value
		default:
			return fmt.Errorf("unknown setting %q (expected device, inventory, or history)", key)
		}
		if err := userSettings.Save(); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Clear a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "device":
			userSettings.DefaultDevice = ""
		case "inventory":
			userSettings.InventoryPath = ""
		case "history":
			userSettings.HistoryPath = ""
		default:
			return fmt.Errorf("unknown setting %q", args[0])
		}
		return userSettings.Save()
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
