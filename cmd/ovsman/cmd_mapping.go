package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/guest"
	"github.com/ovsman-net/ovsman/pkg/util"
)

var mappingLive bool

var mappingCmd = &cobra.Command{
	Use:     "mapping",
	Aliases: []string{"map"},
	Short:   "View and refresh the workload port mapping",
}

var mappingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which workload owns each switch port",
	Long: `Show the mapping of switch ports to VMs and containers.

Reads the stored snapshot, refreshing it first when the store has none.
With --live (or when the store is unreachable) the host is inspected
directly and the snapshot is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		records, at, err := loadMapping(ctx, name, mappingLive)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(records)
		}

		fmt.Printf("Port mapping of %s (as of %s)\n\n", name, at.Format("2006-01-02 15:04:05"))
		if len(records) == 0 {
			fmt.Println("No ports.")
			return nil
		}
		t := cli.NewTable("PORT", "BRIDGE", "WORKLOAD", "NETID", "MAC")
		for _, rec := range records {
			t.Row(rec.PortName, orDash(rec.BridgeName), describeWorkload(rec),
				orDash(rec.Netid), orDash(rec.MAC))
		}
		t.Flush()
		return nil
	},
}

var mappingRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the stored port mapping from live host state",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		records, err := mgr.RefreshPortMapping(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed port mapping of %s: %d ports\n", name, len(records))
		return nil
	},
}

// loadMapping reads the port mapping through the snapshot store, falling
// back to a live inspection when the store is unreachable.
func loadMapping(ctx context.Context, name string, live bool) ([]*guest.PortMappingRecord, time.Time, error) {
	if !live {
		snap, err := mgr.PortMapping(ctx, name)
		if err == nil {
			return snap.Records, snap.LastUpdated, nil
		}
		if errors.Is(err, util.ErrRemoteCommand) || errors.Is(err, util.ErrNotFound) {
			return nil, time.Time{}, err
		}
		util.Warnf("Snapshot store unavailable, inspecting live state: %v", err)
	}
	records, err := mgr.InspectPortMapping(ctx, name)
	return records, time.Now(), err
}

// describeWorkload names the guest behind a port. Ports owned by the host
// itself (uplinks, internal ports) have no workload.
func describeWorkload(rec *guest.PortMappingRecord) string {
	switch {
	case rec.VMID != nil:
		return joinWorkload("VM", *rec.VMID, rec.VMName)
	case rec.ContainerID != nil:
		return joinWorkload("CT", *rec.ContainerID, rec.ContainerName)
	case rec.IsContainer:
		return "CT ?"
	default:
		return "-"
	}
}

func joinWorkload(kind string, id int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s %d", kind, id)
	}
	return fmt.Sprintf("%s %d %s", kind, id, name)
}

func init() {
	mappingShowCmd.Flags().BoolVar(&mappingLive, "live", false, "Inspect the host directly, bypassing the store")
	mappingCmd.AddCommand(mappingShowCmd)
	mappingCmd.AddCommand(mappingRefreshCmd)
}
