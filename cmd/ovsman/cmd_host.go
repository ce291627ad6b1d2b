package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Inspect the host inventory",
}

// hostView is the JSON shape of one inventory entry. Credentials never
// leave the process.
type hostView struct {
	Name     string `json:"name"`
	Addr     string `json:"addr"`
	User     string `json:"user"`
	ReadOnly bool   `json:"read_only"`
	Comment  string `json:"comment,omitempty"`
}

var hostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := mgr.Hosts()

		if jsonOutput {
			views := make([]hostView, 0, len(names))
			for _, name := range names {
				cfg, err := mgr.Host(name)
				if err != nil {
					return err
				}
				views = append(views, hostView{
					Name: cfg.Name, Addr: cfg.Addr, User: cfg.User,
					ReadOnly: cfg.ReadOnly, Comment: cfg.Comment,
				})
			}
			return printJSON(views)
		}

		t := cli.NewTable("NAME", "ADDRESS", "USER", "MODE", "COMMENT")
		for _, name := range names {
			cfg, err := mgr.Host(name)
			if err != nil {
				return err
			}
			mode := "read-write"
			if cfg.ReadOnly {
				mode = yellow("read-only")
			}
			t.Row(cfg.Name, cfg.DialAddr(), cfg.User, mode, cfg.Comment)
		}
		t.Flush()
		return nil
	},
}

var hostShowCmd = &cobra.Command{
	Use:   "show [host]",
	Short: "Show one host with lock and snapshot state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := hostName
		if len(args) > 0 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("host required: use -H <host> or provide as argument")
		}
		cfg, err := mgr.Host(name)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(hostView{
				Name: cfg.Name, Addr: cfg.Addr, User: cfg.User,
				ReadOnly: cfg.ReadOnly, Comment: cfg.Comment,
			})
		}

		fmt.Printf("Host:    %s\n", cfg.Name)
		fmt.Printf("Address: %s\n", cfg.DialAddr())
		fmt.Printf("User:    %s\n", cfg.User)
		mode := "read-write"
		if cfg.ReadOnly {
			mode = "read-only"
		}
		fmt.Printf("Mode:    %s\n", mode)
		if cfg.Comment != "" {
			fmt.Printf("Comment: %s\n", cfg.Comment)
		}

		// Lock and snapshot state come from the store; absence of the
		// store degrades to dashes rather than failing the command.
		lock, err := st.GetLock(name)
		switch {
		case err != nil:
			fmt.Printf("Lock:    %s\n", yellow("unavailable"))
		case lock == nil:
			fmt.Println("Lock:    free")
		default:
			fmt.Printf("Lock:    held by %s since %s (ttl %ss)\n", lock.Holder, lock.Acquired, lock.TTL)
		}

		if snap, err := st.GetTopology(name); err == nil {
			fmt.Printf("Topology snapshot:     %s (%d bridges)\n",
				snap.LastUpdated.Format("2006-01-02 15:04:05"), len(snap.Topology.Bridges))
		} else {
			fmt.Println("Topology snapshot:     none")
		}
		if snap, err := st.GetPortMapping(name); err == nil {
			fmt.Printf("Port-mapping snapshot: %s (%d records)\n",
				snap.LastUpdated.Format("2006-01-02 15:04:05"), len(snap.Records))
		} else {
			fmt.Println("Port-mapping snapshot: none")
		}
		return nil
	},
}

func init() {
	hostCmd.AddCommand(hostListCmd)
	hostCmd.AddCommand(hostShowCmd)
}
