package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/manager"
)

var diagCmd = &cobra.Command{
	Use:   "diag <probe> [args]",
	Short: "Run read-only diagnostics on a host",
	Long: `Run a fixed diagnostic probe on a host and print its raw output.

Probes are read-only and never touch switch configuration:

  ovsman -H pve1 diag overview
  ovsman -H pve1 diag fdb vmbr0
  ovsman -H pve1 diag interface-stats eno1

See 'ovsman diag list' for all probes, 'ovsman diag trace' and
'ovsman diag ping' for the parameterized checks.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		out, err := mgr.Diagnose(ctx, name, args[0], args[1:]...)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(struct {
				Host   string `json:"host"`
				Probe  string `json:"probe"`
				Output string `json:"output"`
			}{name, args[0], out})
		}
		fmt.Print(out)
		return nil
	},
}

var diagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available probes",
	RunE: func(cmd *cobra.Command, args []string) error {
		probes := manager.Probes()
		if jsonOutput {
			return printJSON(probes)
		}
		t := cli.NewTable("PROBE", "ARGS", "SUMMARY")
		for _, p := range probes {
			placeholders := make([]string, len(p.Args))
			for i, a := range p.Args {
				placeholders[i] = "<" + a + ">"
			}
			t.Row(p.Name, orDash(strings.Join(placeholders, " ")), p.Summary)
		}
		t.Flush()
		return nil
	},
}

var traceReq manager.TraceRequest

var diagTraceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace a synthetic packet through a bridge",
	Long: `Trace a synthetic packet through a bridge's OpenFlow pipeline:

  ovsman -H pve1 diag trace --bridge vmbr0 --in-port tap100i0 \
      --src-ip 10.0.10.5 --dst-ip 10.0.10.9 --proto 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		out, err := mgr.TracePacket(ctx, name, traceReq)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(struct {
				Host   string `json:"host"`
				Flow   string `json:"flow"`
				Output string `json:"output"`
			}{name, traceReq.FlowSpec(), out})
		}
		fmt.Print(out)
		return nil
	},
}

var pingReq manager.PingRequest

var diagPingCmd = &cobra.Command{
	Use:   "ping <target>",
	Short: "Test reachability of an address from the host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		pingReq.Target = args[0]
		out, reached, err := mgr.Ping(ctx, name, pingReq)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(struct {
				Host    string `json:"host"`
				Target  string `json:"target"`
				Reached bool   `json:"reached"`
				Output  string `json:"output"`
			}{name, pingReq.Target, reached, out})
		}
		fmt.Print(out)
		if reached {
			fmt.Printf("\n%s %s is reachable from %s\n", green("✓"), pingReq.Target, name)
		} else {
			fmt.Printf("\n%s %s is not reachable from %s\n", red("✗"), pingReq.Target, name)
		}
		return nil
	},
}

func init() {
	f := diagTraceCmd.Flags()
	f.StringVar(&traceReq.Bridge, "bridge", "", "Bridge to trace through")
	f.StringVar(&traceReq.InPort, "in-port", "", "Ingress port of the synthetic packet")
	f.StringVar(&traceReq.SrcMAC, "src-mac", "", "Source MAC")
	f.StringVar(&traceReq.DstMAC, "dst-mac", "", "Destination MAC")
	f.StringVar(&traceReq.EthType, "eth-type", "", "Ethertype (default 0x0800)")
	f.StringVar(&traceReq.SrcIP, "src-ip", "", "Source IP")
	f.StringVar(&traceReq.DstIP, "dst-ip", "", "Destination IP")
	f.IntVar(&traceReq.Protocol, "proto", 0, "IP protocol number")

	p := diagPingCmd.Flags()
	p.IntVar(&pingReq.Count, "count", 0, "Probe count (default 4)")
	p.IntVar(&pingReq.TimeoutSec, "wait", 0, "Per-probe timeout in seconds (default 2)")
	p.StringVar(&pingReq.Source, "source", "", "Source address or interface")

	diagCmd.AddCommand(diagListCmd)
	diagCmd.AddCommand(diagTraceCmd)
	diagCmd.AddCommand(diagPingCmd)
}
