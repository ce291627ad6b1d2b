package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.ovsman/settings.json.

Settings provide defaults for context flags:
  - default_host:   Used when -H is not specified
  - inventory_path: Host inventory file (--inventory)
  - redis_addr:     Snapshot store address (--redis)

Examples:
  ovsman settings show
  ovsman settings set host pve1
  ovsman settings set inventory /etc/ovsman/hosts.yaml
  ovsman settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		if jsonOutput {
			return printJSON(s)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable("SETTING", "VALUE")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}

		printSetting("default_host", s.DefaultHost)
		printSetting("inventory_path", s.InventoryPath)
		printSetting("redis_addr", s.RedisAddr)

		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  host      - Default target host (-H flag default)
  inventory - Host inventory file (--inventory flag default)
  redis     - Snapshot store address (--redis flag default)

Examples:
  ovsman settings set host pve1
  ovsman settings set redis 10.0.0.2:6379`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "host", "default_host":
			s.SetHost(value)
			fmt.Printf("Default host set to: %s\n", value)
		case "inventory", "inventory_path":
			s.SetInventoryPath(value)
			fmt.Printf("Inventory file set to: %s\n", value)
		case "redis", "redis_addr":
			s.SetRedisAddr(value)
			fmt.Printf("Snapshot store address set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: host, inventory, redis)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		var value string
		switch setting {
		case "host", "default_host":
			value = s.DefaultHost
		case "inventory", "inventory_path":
			value = s.InventoryPath
		case "redis", "redis_addr":
			value = s.RedisAddr
		default:
			return fmt.Errorf("unknown setting: %s (valid: host, inventory, redis)", setting)
		}

		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
