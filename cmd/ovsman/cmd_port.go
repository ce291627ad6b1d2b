package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/util"
)

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Manage bridge ports and their VLAN state",
}

var portListCmd = &cobra.Command{
	Use:   "list [bridge]",
	Short: "List ports, optionally of one bridge",
	Args:  cobra.MaximumNArgs(1),
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

		var filter string
		if len(args) > 0 {
			filter = args[0]
		}

		if jsonOutput {
			var out interface{}
			for _, bridge := range topo.Bridges {
				if bridge.Name == filter {
					out = bridge.Ports
				}
			}
			if filter == "" {
				out = topo.Bridges
			}
			if out == nil {
				return fmt.Errorf("bridge %q not found on %s", filter, name)
			}
			return printJSON(out)
		}

		t := cli.NewTable("BRIDGE", "PORT", "TYPE", "INTERFACES")
		found := filter == ""
		for _, bridge := range topo.Bridges {
			if filter != "" && bridge.Name != filter {
				continue
			}
			found = true
			for _, port := range bridge.Ports {
				names := make([]string, len(port.Interfaces))
				for i, iface := range port.Interfaces {
					names[i] = iface.Name
				}
				t.Row(bridge.Name, port.Name, orDash(port.Type), strings.Join(names, ", "))
			}
		}
		if !found {
			return fmt.Errorf("bridge %q not found on %s", filter, name)
		}
		t.Flush()
		return nil
	},
}

var (
	portAddType    string
	portAddOptions []string
)

var portAddCmd = &cobra.Command{
	Use:   "add <bridge> <port>",
	Short: "Add a port to a bridge",
	Long: `Add a port to a bridge.

Tunnel port types take their endpoint configuration as interface options:

  ovsman -H pve1 port add vmbr0 eno2
  ovsman -H pve1 port add vmbr1 vx0 --type vxlan --option remote_ip=10.0.0.2 --option key=100`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		options, err := parseProperties(portAddOptions)
		if err != nil {
			return err
		}
		if len(options) == 0 {
			options = nil
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.AddPort(ctx, name, args[0], args[1], portAddType, options); err != nil {
			return err
		}
		fmt.Printf("%s Port %s added to %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

var portDelCmd = &cobra.Command{
	Use:   "del <bridge> <port>",
	Short: "Remove a port from a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.DeletePort(ctx, name, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s Port %s removed from %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

var portSetCmd = &cobra.Command{
	Use:   "set <port> <column>=<value> ...",
	Short: "Set port columns",
	Args:  cobra.MinimumNArgs(2),
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

		if err := mgr.UpdatePort(ctx, name, args[0], properties); err != nil {
			return err
		}
		fmt.Printf("%s Port %s updated\n", green("✓"), args[0])
		return nil
	},
}

var portSetVLANCmd = &cobra.Command{
	Use:   "set-vlan <port> <mode> [tag]",
	Short: "Set the VLAN mode of a port",
	Long: `Set the VLAN mode of a port.

Modes access, native-tagged and native-untagged take a VLAN tag; trunk
carries tagged traffic only and takes none:

  ovsman -H pve1 port set-vlan tap100i0 access 20
  ovsman -H pve1 port set-vlan bond0 trunk
  ovsman -H pve1 port set-vlan eno1 native-untagged 1`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		mode := args[1]
		tag := 0
		if len(args) == 3 {
			tag, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid VLAN tag %q", args[2])
			}
		} else if mode != "trunk" {
			return fmt.Errorf("mode %s takes a VLAN tag", mode)
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.SetPortVLAN(ctx, name, args[0], mode, tag); err != nil {
			return err
		}
		fmt.Printf("%s Port %s set to %s\n", green("✓"), args[0], mode)
		return nil
	},
}

var portTrunksClear bool

var portSetTrunksCmd = &cobra.Command{
	Use:   "set-trunks <port> [vlans ...]",
	Short: "Set the trunk VLAN list of a port",
	Long: `Set the allowed VLAN list of a trunking port. VLANs may be given
individually or as ranges. Passing --clear with no VLANs empties the
list, which allows all VLANs again:

  ovsman -H pve1 port set-trunks bond0 10 20 30
  ovsman -H pve1 port set-trunks bond0 100-105,200
  ovsman -H pve1 port set-trunks bond0 --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		vlans, err := util.ExpandVLANRange(strings.Join(args[1:], ","))
		if err != nil {
			return err
		}
		if len(vlans) == 0 && !portTrunksClear {
			return fmt.Errorf("no VLANs given: pass VLAN ids or --clear to empty the list")
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.SetPortTrunks(ctx, name, args[0], vlans); err != nil {
			return err
		}
		fmt.Printf("%s Port %s trunks updated\n", green("✓"), args[0])
		return nil
	},
}

var portAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List physical interfaces available for bridging",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		names, err := mgr.ListAvailableInterfaces(ctx, name)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(names)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	portAddCmd.Flags().StringVar(&portAddType, "type", "", "Interface type (internal, vxlan, gre, geneve, patch, ...)")
	portAddCmd.Flags().StringArrayVar(&portAddOptions, "option", nil, "Interface option as key=value (repeatable)")
	portSetTrunksCmd.Flags().BoolVar(&portTrunksClear, "clear", false, "Empty the trunk list")

	portCmd.AddCommand(portListCmd)
	portCmd.AddCommand(portAddCmd)
	portCmd.AddCommand(portDelCmd)
	portCmd.AddCommand(portSetCmd)
	portCmd.AddCommand(portSetVLANCmd)
	portCmd.AddCommand(portSetTrunksCmd)
	portCmd.AddCommand(portAvailableCmd)
}
