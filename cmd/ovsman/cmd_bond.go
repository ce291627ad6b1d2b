package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/manager"
)

var bondCmd = &cobra.Command{
	Use:   "bond",
	Short: "Manage link aggregates",
}

var (
	bondMode string
	bondLACP string
)

var bondCreateCmd = &cobra.Command{
	Use:   "create <bridge> <bond> <member> <member> ...",
	Short: "Aggregate member interfaces into a bond port",
	Long: `Create a bond port from two or more member interfaces.

  ovsman -H pve1 bond create vmbr0 bond0 eno1 eno2
  ovsman -H pve1 bond create vmbr0 bond0 eno1 eno2 --mode balance-tcp --lacp active`,
	Args: cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		req := manager.CreateBondRequest{
			Bridge: args[0],
			Name:   args[1],
			Slaves: args[2:],
			Mode:   bondMode,
			LACP:   bondLACP,
		}
		if err := mgr.CreateBond(ctx, name, req); err != nil {
			return err
		}
		fmt.Printf("%s Bond %s created on %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

var bondShowCmd = &cobra.Command{
	Use:   "show <bond>",
	Short: "Show bond mode and member state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		status, err := mgr.BondStatus(ctx, name, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(status)
		}

		fmt.Printf("Bond: %s\n", status.Name)
		fmt.Printf("Mode: %s\n", status.Mode)
		fmt.Printf("LACP: %s\n", status.LACP)
		if len(status.Slaves) == 0 {
			fmt.Println("\nNo member state reported.")
			return nil
		}
		fmt.Println()
		t := cli.NewTable("MEMBER", "STATUS", "ACTIVE")
		for _, slave := range status.Slaves {
			active := ""
			if slave.Name == status.ActiveSlave {
				active = green("*")
			}
			t.Row(slave.Name, slave.Status, active)
		}
		t.Flush()
		return nil
	},
}

var bondLACPCmd = &cobra.Command{
	Use:   "lacp <bond>",
	Short: "Show LACP negotiation state of a bond",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		status, err := mgr.LACPStatus(ctx, name, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(status)
		}

		fmt.Printf("Bond:        %s\n", status.Bond)
		fmt.Printf("Status:      %s\n", status.Status)
		fmt.Printf("Actor key:   %s\n", lacpKey(status.ActorKey))
		fmt.Printf("Partner key: %s\n", lacpKey(status.PartnerKey))

		if len(status.Details) > 0 {
			keys := make([]string, 0, len(status.Details))
			for k := range status.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Println()
			t := cli.NewTable("FIELD", "VALUE")
			for _, k := range keys {
				t.Row(k, status.Details[k])
			}
			t.Flush()
		}
		return nil
	},
}

var bondEnableSlaveCmd = &cobra.Command{
	Use:   "enable-slave <bond> <member>",
	Short: "Enable one member of a bond",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBondSlave(args[0], args[1], true)
	},
}

var bondDisableSlaveCmd = &cobra.Command{
	Use:   "disable-slave <bond> <member>",
	Short: "Disable one member of a bond",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setBondSlave(args[0], args[1], false)
	},
}

func lacpKey(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}

func setBondSlave(bond, slave string, enabled bool) error {
	name, err := requireHost()
	if err != nil {
		return err
	}
	ctx, cancel := opCtx()
	defer cancel()

	if err := mgr.SetBondSlave(ctx, name, bond, slave, enabled); err != nil {
		return err
	}
	action := "disabled"
	if enabled {
		action = "enabled"
	}
	fmt.Printf("%s Member %s of %s %s\n", green("✓"), slave, bond, action)
	return nil
}

func init() {
	bondCreateCmd.Flags().StringVar(&bondMode, "mode", "", "Bond mode (active-backup, balance-slb, balance-tcp)")
	bondCreateCmd.Flags().StringVar(&bondLACP, "lacp", "", "LACP mode (active, passive, off)")

	bondCmd.AddCommand(bondCreateCmd)
	bondCmd.AddCommand(bondShowCmd)
	bondCmd.AddCommand(bondLACPCmd)
	bondCmd.AddCommand(bondEnableSlaveCmd)
	bondCmd.AddCommand(bondDisableSlaveCmd)
}
