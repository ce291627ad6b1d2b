// Ovsman - Open vSwitch management for Proxmox hosts
//
// A CLI for inspecting and reshaping OVS state across a fleet of Proxmox
// hosts over SSH, with:
//   - Redis-backed topology and workload-port snapshots
//   - Bridge lifecycle synced to /etc/network/interfaces
//   - VLAN, bond, mirror and flow-export management
//   - Audit logging of all mutations
//
// Noun-grouped commands:
//
//	ovsman -H <host> <noun> <verb> [args]
//
// The -H flag selects the target host from the inventory; `ovsman settings
// set host <name>` sets a default so -H can be omitted.
//
// Examples:
//
//	ovsman host list                                  # Inventory overview
//	ovsman -H pve1 topology show                      # Stored topology
//	ovsman -H pve1 topology refresh                   # Rebuild from live state
//	ovsman -H pve1 bridge create vmbr2 --cidr 10.0.12.10/24
//	ovsman -H pve1 port set-vlan tap100i0 access 20
//	ovsman -H pve1 mapping show                       # Port → workload records
//	ovsman -H pve1 stats watch eno1                   # Live interface rates
//	ovsman -H pve1 diag fdb vmbr0                     # MAC learning table
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/host"
	"github.com/ovsman-net/ovsman/pkg/manager"
	"github.com/ovsman-net/ovsman/pkg/settings"
	"github.com/ovsman-net/ovsman/pkg/store"
	"github.com/ovsman-net/ovsman/pkg/util"
	"github.com/ovsman-net/ovsman/pkg/version"
)

var (
	// Context flags (target selection)
	hostName      string // -H, --host
	inventoryPath string // --inventory
	redisAddr     string // --redis

	// Option flags (global)
	verbose    bool
	opTimeout  time.Duration
	jsonOutput bool // --json, local to query verbs

	// Global state
	userSettings *settings.Settings
	mgr          *manager.Manager
	st           *store.Store
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ovsman",
	Short:             "Open vSwitch management for Proxmox hosts",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Ovsman manages Open vSwitch state on Proxmox hosts over SSH.

Topology and workload-port views are cached in Redis; mutations run
against the live switch and keep /etc/network/interfaces in sync.

  ovsman -H <host> <noun> <verb> [args]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Settings and version run without inventory or store access.
		if isLocalCommand(cmd) {
			return nil
		}

		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Flags override settings, settings override built-in defaults.
		if hostName == "" {
			hostName = userSettings.DefaultHost
		}
		if inventoryPath == "" {
			inventoryPath = userSettings.GetInventoryPath()
		}
		if redisAddr == "" {
			redisAddr = userSettings.GetRedisAddr()
		}

		// Quiet by default, debug on -v.
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}

		inv, err := host.LoadInventory(inventoryPath)
		if err != nil {
			return err
		}

		st = store.New(redisAddr)
		mgr = manager.New(inv, st)

		auditLogger, err := audit.NewFileLogger(audit.DefaultPath(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if mgr != nil {
			mgr.Close()
		}
		if st != nil {
			st.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&hostName, "host", "H", "", "Target host name from the inventory")
	rootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", "", "Host inventory file (default /etc/ovsman/hosts.yaml)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Snapshot store address (default 127.0.0.1:6379)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().DurationVar(&opTimeout, "timeout", 45*time.Second, "Per-operation timeout")

	rootCmd.AddGroup(
		&cobra.Group{ID: "inspect", Title: "Inspection:"},
		&cobra.Group{ID: "manage", Title: "Management:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{hostCmd, topologyCmd, mappingCmd, statsCmd, diagCmd} {
		cmd.GroupID = "inspect"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{bridgeCmd, portCmd, bondCmd, mirrorCmd, flowCmd} {
		cmd.GroupID = "manage"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}

	// Noun groups: inherit --json for their subcommands
	for _, cmd := range []*cobra.Command{
		hostCmd, topologyCmd, mappingCmd, statsCmd, diagCmd,
		bridgeCmd, portCmd, bondCmd, mirrorCmd, flowCmd,
		settingsCmd, auditCmd,
	} {
		addOutputFlags(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("ovsman dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("ovsman %s\n", version.Info())
		}
	},
}

// isLocalCommand checks whether cmd (or any ancestor) runs without host or
// store access. diag list only prints the probe catalog.
func isLocalCommand(cmd *cobra.Command) bool {
	if cmd.CommandPath() == "ovsman diag list" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings", "audit":
			return true
		}
	}
	return false
}

// requireHost resolves the target host from -H or the settings default.
func requireHost() (string, error) {
	if hostName == "" {
		return "", fmt.Errorf("host required: use -H <host> or set a default via: ovsman settings set host <name>")
	}
	if _, err := mgr.Host(hostName); err != nil {
		return "", err
	}
	return hostName, nil
}

// opCtx returns the context for one remote operation.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// addOutputFlags registers --json as a local flag. For noun-group parents,
// it is persistent so subcommands inherit it.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if cmd.HasSubCommands() {
		flags = cmd.PersistentFlags()
	}
	flags.BoolVar(&jsonOutput, "json", false, "JSON output")
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
