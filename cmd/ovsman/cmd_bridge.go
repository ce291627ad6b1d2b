package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/manager"
	"github.com/ovsman-net/ovsman/pkg/util"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Manage OVS bridges",
	Long: `Manage OVS bridges.

Bridge create and delete keep /etc/network/interfaces in sync with the
switch: create appends an allow-ovs stanza, delete removes it. The file
edit runs under the host's mutation lock.`,
}

var bridgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bridges",
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
			return printJSON(topo.Bridges)
		}

		t := cli.NewTable("NAME", "CIDR", "PORTS", "MIRRORS")
		for _, bridge := range topo.Bridges {
			t.Row(bridge.Name, orDash(bridge.CIDR),
				strconv.Itoa(len(bridge.Ports)), strconv.Itoa(len(bridge.Mirrors)))
		}
		t.Flush()
		return nil
	},
}

var bridgeShowCmd = &cobra.Command{
	Use:   "show <bridge>",
	Short: "Show one bridge in full detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		detail, err := mgr.BridgeDetails(ctx, name, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(detail)
		}

		fmt.Printf("Bridge:    %s\n", detail.Name)
		fmt.Printf("UUID:      %s\n", orDash(detail.UUID))
		fmt.Printf("Fail mode: %s\n", orDash(detail.FailMode))
		fmt.Printf("Datapath:  %s\n", orDash(detail.DatapathType))
		fmt.Printf("CIDR:      %s\n", orDash(detail.CIDR))
		if detail.STPEnable {
			fmt.Println("STP:       enabled")
		}

		if len(detail.Ports) > 0 {
			fmt.Println()
			t := cli.NewTable("PORT", "TYPE", "VLAN", "TRUNKS", "MAC", "LINK")
			for _, port := range detail.Ports {
				vlan := "-"
				if port.Tag != nil {
					vlan = strconv.Itoa(*port.Tag)
					if port.VLANMode != "" {
						vlan += " (" + port.VLANMode + ")"
					}
				} else if port.VLANMode != "" {
					vlan = port.VLANMode
				}
				trunks := "-"
				if len(port.Trunks) > 0 {
					trunks = util.CompactRange(port.Trunks)
				}
				mac, link, ptype := "-", "-", "-"
				if len(port.Interfaces) > 0 {
					first := port.Interfaces[0]
					mac = orDash(first.MAC)
					link = orDash(first.LinkState)
					ptype = orDash(first.Type)
				}
				t.Row(port.Name, ptype, vlan, trunks, mac, link)
			}
			t.Flush()
		}

		for _, mirror := range detail.Mirrors {
			fmt.Printf("mirror %s: %s\n", mirror.Name, describeMirror(mirror))
		}
		return nil
	},
}

var createReq manager.CreateBridgeRequest

var bridgeCreateCmd = &cobra.Command{
	Use:   "create <bridge>",
	Short: "Create a bridge and its network config stanza",
	Long: `Create an OVS bridge.

The bridge is added to the switch first, then recorded as an allow-ovs
stanza in /etc/network/interfaces. If the file write fails the bridge is
removed again. Assigning a gateway requires that no other interface in
the file holds the default gateway.

Examples:
  ovsman -H pve1 bridge create vmbr2
  ovsman -H pve1 bridge create vmbr2 --cidr 10.0.12.10/24 --gateway 10.0.12.1
  ovsman -H pve1 bridge create vmbr2 --ports "eno2" --mtu 9000
  ovsman -H pve1 bridge create br-test --datapath netdev --fail-mode secure`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		createReq.Name = args[0]
		createReq.Autostart = !cmd.Flags().Changed("no-autostart")
		if err := mgr.CreateBridge(ctx, name, createReq); err != nil {
			return err
		}
		fmt.Printf("%s Bridge %s created on %s\n", green("✓"), args[0], name)
		return nil
	},
}

var bridgeDeleteCmd = &cobra.Command{
	Use:   "delete <bridge>",
	Short: "Delete a bridge and its network config stanza",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.DeleteBridge(ctx, name, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Bridge %s deleted from %s\n", green("✓"), args[0], name)
		return nil
	},
}

var bridgeSetCmd = &cobra.Command{
	Use:   "set <bridge> <column>=<value> ...",
	Short: "Set bridge columns",
	Long: `Set columns on the bridge record, e.g.:

  ovsman -H pve1 bridge set vmbr0 stp_enable=true
  ovsman -H pve1 bridge set vmbr0 other_config:disable-in-band=true`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		properties, err := parseProperties(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.UpdateBridge(ctx, name, args[0], properties); err != nil {
			return err
		}
		fmt.Printf("%s Bridge %s updated\n", green("✓"), args[0])
		return nil
	},
}

var bridgeFlushCmd = &cobra.Command{
	Use:   "flush-fdb <bridge>",
	Short: "Flush the MAC learning table of a bridge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.FlushBridgeFDB(ctx, name, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Flushed MAC table of %s\n", green("✓"), args[0])
		return nil
	},
}

// parseProperties turns column=value arguments into the property map the
// update operations take.
func parseProperties(args []string) (map[string]string, error) {
	properties := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q: want column=value", arg)
		}
		properties[key] = value
	}
	return properties, nil
}

func init() {
	flags := bridgeCreateCmd.Flags()
	flags.StringVar(&createReq.FailMode, "fail-mode", "", "Bridge fail mode (standalone, secure)")
	flags.StringVar(&createReq.DatapathType, "datapath", "", "Datapath type (system, netdev)")
	flags.StringVar(&createReq.IPv4CIDR, "cidr", "", "IPv4 address in CIDR form")
	flags.StringVar(&createReq.IPv4Gateway, "gateway", "", "IPv4 default gateway")
	flags.StringVar(&createReq.IPv6CIDR, "cidr6", "", "IPv6 address in CIDR form")
	flags.StringVar(&createReq.IPv6Gateway, "gateway6", "", "IPv6 default gateway")
	flags.StringVar(&createReq.Ports, "ports", "", "Space-separated ovs_ports value")
	flags.IntVar(&createReq.MTU, "mtu", 0, "Interface MTU (576-9000)")
	flags.StringVar(&createReq.Options, "options", "", "Raw ovs_options value")
	flags.StringVar(&createReq.Comment, "comment", "", "Stanza comment")
	flags.Bool("no-autostart", false, "Skip the auto <bridge> line in the stanza")

	bridgeCmd.AddCommand(bridgeListCmd)
	bridgeCmd.AddCommand(bridgeShowCmd)
	bridgeCmd.AddCommand(bridgeCreateCmd)
	bridgeCmd.AddCommand(bridgeDeleteCmd)
	bridgeCmd.AddCommand(bridgeSetCmd)
	bridgeCmd.AddCommand(bridgeFlushCmd)
}
