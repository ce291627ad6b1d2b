package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/ovs"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Manage NetFlow, sFlow and IPFIX export",
}

var flowGetCmd = &cobra.Command{
	Use:   "get <bridge> <protocol>",
	Short: "Show the export configuration of a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		cfg, err := mgr.FlowExport(ctx, name, args[0], args[1])
		if err != nil {
			return err
		}
		if cfg == nil {
			if jsonOutput {
				return printJSON(nil)
			}
			fmt.Printf("%s export is not enabled on %s\n", args[1], args[0])
			return nil
		}

		if jsonOutput {
			return printJSON(cfg)
		}

		fmt.Printf("%s export on %s\n", cfg.Protocol, cfg.Bridge)
		t := cli.NewTable("SETTING", "VALUE").WithPrefix("  ")
		t.Row("targets", strings.Join(cfg.Targets, ", "))
		for _, opt := range flowOptionRows(cfg) {
			t.Row(opt[0], opt[1])
		}
		t.Flush()
		return nil
	},
}

// flowOptionRows lists only the options that apply to the protocol, in
// a stable order. Zero values mean the switch default is in effect.
func flowOptionRows(cfg *ovs.FlowExportConfig) [][2]string {
	num := func(v int) string {
		if v == 0 {
			return "default"
		}
		return strconv.Itoa(v)
	}
	switch cfg.Protocol {
	case "netflow":
		return [][2]string{
			{"active-timeout", num(cfg.ActiveTimeout)},
			{"engine-id", num(cfg.EngineID)},
			{"engine-type", num(cfg.EngineType)},
		}
	case "sflow":
		return [][2]string{
			{"header", num(cfg.Header)},
			{"sampling", num(cfg.Sampling)},
			{"polling", num(cfg.Polling)},
		}
	case "ipfix":
		return [][2]string{
			{"active-timeout", num(cfg.ActiveTimeout)},
			{"obs-domain", num(cfg.ObsDomainID)},
			{"obs-point", num(cfg.ObsPointID)},
			{"cache-active-timeout", num(cfg.CacheActiveTimeout)},
			{"cache-max-flows", num(cfg.CacheMaxFlows)},
		}
	}
	return nil
}

var flowSetCfg ovs.FlowExportConfig

var flowSetCmd = &cobra.Command{
	Use:   "set <bridge> <protocol>",
	Short: "Enable or reconfigure flow export on a bridge",
	Long: `Enable flow export on a bridge, replacing any previous
configuration for that protocol:

  ovsman -H pve1 flow set vmbr0 netflow --target 10.0.0.5:2055 --active-timeout 60
  ovsman -H pve1 flow set vmbr0 sflow --target 10.0.0.5:6343 --sampling 64`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		flowSetCfg.Bridge = args[0]
		flowSetCfg.Protocol = args[1]
		if err := mgr.SetFlowExport(ctx, name, flowSetCfg); err != nil {
			return err
		}
		fmt.Printf("%s %s export enabled on %s\n", green("✓"), flowSetCfg.Protocol, flowSetCfg.Bridge)
		return nil
	},
}

var flowDisableCmd = &cobra.Command{
	Use:   "disable <bridge> <protocol>",
	Short: "Turn off flow export on a bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		if err := mgr.DisableFlowExport(ctx, name, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s export disabled on %s\n", green("✓"), args[1], args[0])
		return nil
	},
}

func init() {
	f := flowSetCmd.Flags()
	f.StringArrayVar(&flowSetCfg.Targets, "target", nil, "Collector address as ip:port (repeatable)")
	f.IntVar(&flowSetCfg.ActiveTimeout, "active-timeout", 0, "Active flow timeout in seconds (netflow, ipfix)")
	f.IntVar(&flowSetCfg.EngineID, "engine-id", 0, "NetFlow engine id")
	f.IntVar(&flowSetCfg.EngineType, "engine-type", 0, "NetFlow engine type")
	f.IntVar(&flowSetCfg.Header, "header", 0, "sFlow header bytes per sample")
	f.IntVar(&flowSetCfg.Sampling, "sampling", 0, "sFlow sampling rate (1 in N packets)")
	f.IntVar(&flowSetCfg.Polling, "polling", 0, "sFlow counter polling interval in seconds")
	f.IntVar(&flowSetCfg.ObsDomainID, "obs-domain", 0, "IPFIX observation domain id")
	f.IntVar(&flowSetCfg.ObsPointID, "obs-point", 0, "IPFIX observation point id")
	f.IntVar(&flowSetCfg.CacheActiveTimeout, "cache-active-timeout", 0, "IPFIX cache active timeout in seconds")
	f.IntVar(&flowSetCfg.CacheMaxFlows, "cache-max-flows", 0, "IPFIX cache size in flows")

	flowCmd.AddCommand(flowGetCmd)
	flowCmd.AddCommand(flowSetCmd)
	flowCmd.AddCommand(flowDisableCmd)
}
