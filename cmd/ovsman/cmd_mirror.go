package main

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/manager"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Manage traffic mirrors",
}

var mirrorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mirrors across all bridges",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		topo, _, err := loadTopology(ctx, name, false)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(topo.Mirrors)
		}

		t := cli.NewTable("NAME", "BRIDGE", "SELECTS", "OUTPUT", "UUID")
		for _, mirror := range topo.Mirrors {
			t.Row(orDash(mirror.Name), orDash(mirror.Bridge), mirrorSelection(mirror),
				orDash(mirror.OutputPort), mirror.UUID)
		}
		t.Flush()
		return nil
	},
}

var (
	mirrorMode    string
	mirrorSources []string
	mirrorOutput  string
)

var mirrorCreateCmd = &cobra.Command{
	Use:   "create <bridge> <name>",
	Short: "Create a traffic mirror",
	Long: `Create a traffic mirror on a bridge.

Dynamic mode copies all bridge traffic to the output port; manual mode
copies both directions of the selected source ports:

  ovsman -H pve1 mirror create vmbr0 span0 --output eno1
  ovsman -H pve1 mirror create vmbr0 span1 --mode manual --source tap100i0 --output eno1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		req := manager.CreateMirrorRequest{
			Bridge:      args[0],
			Name:        args[1],
			Mode:        mirrorMode,
			SourcePorts: mirrorSources,
			OutputPort:  mirrorOutput,
		}
		if err := mgr.CreateMirror(ctx, name, req); err != nil {
			return err
		}
		fmt.Printf("%s Mirror %s created on %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

var mirrorUUIDRE = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var mirrorDeleteCmd = &cobra.Command{
	Use:   "delete <bridge> <name|uuid>",
	Short: "Delete one mirror from a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		uuid := args[1]
		if !mirrorUUIDRE.MatchString(uuid) {
			uuid, err = resolveMirrorUUID(name, args[0], args[1])
			if err != nil {
				return err
			}
		}
		if err := mgr.DeleteMirror(ctx, name, args[0], uuid); err != nil {
			return err
		}
		fmt.Printf("%s Mirror %s deleted from %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

// resolveMirrorUUID finds a mirror by name on a bridge via a live
// inspection, so deletes never act on a stale snapshot.
func resolveMirrorUUID(hostName, bridge, mirrorName string) (string, error) {
	ctx, cancel := opCtx()
	defer cancel()

	topo, err := mgr.InspectTopology(ctx, hostName)
	if err != nil {
		return "", err
	}
	for _, mirror := range topo.Mirrors {
		if mirror.Name == mirrorName && mirror.Bridge == bridge {
			return mirror.UUID, nil
		}
	}
	return "", fmt.Errorf("mirror %q not found on bridge %s", mirrorName, bridge)
}

var mirrorClearCmd = &cobra.Command{
	Use:   "clear <bridge>",
	Short: "Remove every mirror from a bridge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.ClearMirrors(ctx, name, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Mirrors cleared on %s\n", green("✓"), args[0])
		return nil
	},
}

var mirrorStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Show packet counters of a mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		stats, err := mgr.MirrorStatistics(ctx, name, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(stats)
		}
		if len(stats) == 0 {
			fmt.Println("No counters reported.")
			return nil
		}

		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		t := cli.NewTable("COUNTER", "VALUE")
		for _, k := range keys {
			t.Row(k, strconv.FormatInt(stats[k], 10))
		}
		t.Flush()
		return nil
	},
}

func init() {
	mirrorCreateCmd.Flags().StringVar(&mirrorMode, "mode", "dynamic", "Selection mode (dynamic, manual)")
	mirrorCreateCmd.Flags().StringArrayVar(&mirrorSources, "source", nil, "Source port for manual mode (repeatable)")
	mirrorCreateCmd.Flags().StringVar(&mirrorOutput, "output", "", "Output port receiving the mirrored traffic")

	mirrorCmd.AddCommand(mirrorListCmd)
	mirrorCmd.AddCommand(mirrorCreateCmd)
	mirrorCmd.AddCommand(mirrorDeleteCmd)
	mirrorCmd.AddCommand(mirrorClearCmd)
	mirrorCmd.AddCommand(mirrorStatsCmd)
}
