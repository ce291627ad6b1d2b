package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/util"
)

var topologyLive bool

var topologyCmd = &cobra.Command{
	Use:     "topology",
	Aliases: []string{"topo"},
	Short:   "View and refresh the switching topology",
}

var topologyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the host topology",
	Long: `Show the bridges, ports and mirrors of a host.

Reads the stored snapshot, refreshing it first when the store has none.
With --live (or when the store is unreachable) the switch is inspected
directly and the snapshot is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		topo, at, err := loadTopology(ctx, name, topologyLive)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(topo)
		}

		fmt.Printf("Topology of %s (as of %s)\n", name, at.Format("2006-01-02 15:04:05"))
		if len(topo.Bridges) == 0 {
			fmt.Println("\nNo bridges.")
			return nil
		}
		for _, bridge := range topo.Bridges {
			fmt.Println()
			title := bridge.Name
			if bridge.CIDR != "" {
				title += "  (" + bridge.CIDR + ")"
			}
			fmt.Println(title)

			t := cli.NewTable("PORT", "TYPE", "INTERFACES").WithPrefix("  ")
			for _, port := range bridge.Ports {
				names := make([]string, len(port.Interfaces))
				for i, iface := range port.Interfaces {
					names[i] = iface.Name
				}
				t.Row(port.Name, orDash(port.Type), strings.Join(names, ", "))
			}
			t.Flush()

			for _, mirror := range bridge.Mirrors {
				fmt.Printf("  mirror %s: %s\n", mirror.Name, describeMirror(mirror))
			}
		}

		if unplaced := unplacedMirrors(topo); len(unplaced) > 0 {
			fmt.Println("\nMirrors without a resolved bridge:")
			for _, mirror := range unplaced {
				fmt.Printf("  %s (%s)\n", mirror.Name, mirror.UUID)
			}
		}
		return nil
	},
}

var topologyRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the stored topology from live switch state",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		topo, err := mgr.RefreshTopology(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed topology of %s: %d bridges, %d mirrors\n",
			name, len(topo.Bridges), len(topo.Mirrors))
		return nil
	},
}

// loadTopology reads the topology through the snapshot store, falling back
// to a live inspection when the store is unreachable.
func loadTopology(ctx context.Context, name string, live bool) (*ovs.Topology, time.Time, error) {
	if !live {
		snap, err := mgr.Topology(ctx, name)
		if err == nil {
			return snap.Topology, snap.LastUpdated, nil
		}
		if errors.Is(err, util.ErrRemoteCommand) || errors.Is(err, util.ErrNotFound) {
			return nil, time.Time{}, err
		}
		util.Warnf("Snapshot store unavailable, inspecting live state: %v", err)
	}
	topo, err := mgr.InspectTopology(ctx, name)
	return topo, time.Now(), err
}

func describeMirror(m *ovs.Mirror) string {
	out := m.OutputPort
	if out == "" {
		out = "?"
	}
	return fmt.Sprintf("%s -> %s", mirrorSelection(m), out)
}

// mirrorSelection names what a mirror copies: every packet on the
// bridge, or the deduplicated union of its source ports.
func mirrorSelection(m *ovs.Mirror) string {
	if m.SelectAll {
		return "all traffic"
	}
	if len(m.SelectSrcPort) == 0 && len(m.SelectDstPort) == 0 {
		return "nothing selected"
	}
	seen := map[string]bool{}
	var ports []string
	for _, p := range append(append([]string{}, m.SelectSrcPort...), m.SelectDstPort...) {
		if !seen[p] {
			seen[p] = true
			ports = append(ports, p)
		}
	}
	return strings.Join(ports, ", ")
}

func unplacedMirrors(topo *ovs.Topology) []*ovs.Mirror {
	var out []*ovs.Mirror
	for _, m := range topo.Mirrors {
		if m.Bridge == "unknown" || m.Bridge == "" {
			out = append(out, m)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	topologyShowCmd.Flags().BoolVar(&topologyLive, "live", false, "Inspect the switch directly, bypassing the store")
	topologyCmd.AddCommand(topologyShowCmd)
	topologyCmd.AddCommand(topologyRefreshCmd)
}
