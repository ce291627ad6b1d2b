package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ovsman-net/ovsman/pkg/cli"
	"github.com/ovsman-net/ovsman/pkg/manager"
	"github.com/ovsman-net/ovsman/pkg/ovs"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Interface traffic counters and rates",
}

var statsShowCmd = &cobra.Command{
	Use:   "show <interface>",
	Short: "Show the counters of an interface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		ctx, cancel := opCtx()
		defer cancel()

		stats, err := mgr.InterfaceStats(ctx, name, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(stats)
		}
		fmt.Printf("%s on %s (%s)\n\n", args[0], name, stats.Timestamp.Format("2006-01-02 15:04:05 MST"))
		renderCounters(stats, nil)
		return nil
	},
}

var statsInterval time.Duration

var statsWatchCmd = &cobra.Command{
	Use:   "watch <interface>",
	Short: "Continuously sample an interface and show live rates",
	Long: `Sample an interface at a fixed interval and show counters with
per-second rates derived between samples. Needs a terminal; with --json
each sample is written as one JSON line instead, for scripting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := requireHost()
		if err != nil {
			return err
		}
		if !jsonOutput && !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("stats watch needs a terminal: use --json for scripted sampling")
		}
		if statsInterval < time.Second {
			return fmt.Errorf("interval %s too short: minimum is 1s", statsInterval)
		}

		// SIGINT ends the watch cleanly
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		session := mgr.NewStatsSession(name, args[0])
		if err := watchSample(ctx, session, name, args[0]); err != nil {
			return err
		}
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Println()
				return nil
			case <-ticker.C:
				if err := watchSample(ctx, session, name, args[0]); err != nil {
					if ctx.Err() != nil {
						fmt.Println()
						return nil
					}
					return err
				}
			}
		}
	},
}

func watchSample(ctx context.Context, session *manager.StatsSession, hostName, iface string) error {
	sctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stats, rates, err := session.Sample(sctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Stats *ovs.InterfaceStats `json:"stats"`
			Rates *ovs.StatsRates     `json:"rates,omitempty"`
		}{stats, rates})
	}

	fmt.Print("\033[H\033[2J")
	fmt.Printf("%s on %s  %s  (every %s, Ctrl-C to stop)\n\n",
		iface, hostName, stats.Timestamp.Format("15:04:05"), statsInterval)
	renderCounters(stats, rates)
	return nil
}

func renderCounters(stats *ovs.InterfaceStats, rates *ovs.StatsRates) {
	count := func(v int64) string { return strconv.FormatInt(v, 10) }

	if rates == nil {
		t := cli.NewTable("COUNTER", "RX", "TX")
		t.Row("packets", count(stats.RxPackets), count(stats.TxPackets))
		t.Row("bytes", count(stats.RxBytes), count(stats.TxBytes))
		t.Row("dropped", count(stats.RxDropped), count(stats.TxDropped))
		t.Row("errors", count(stats.RxErrors), count(stats.TxErrors))
		t.Flush()
		return
	}

	t := cli.NewTable("COUNTER", "RX", "RX/s", "TX", "TX/s")
	t.Row("packets", count(stats.RxPackets), fmtRate(rates.RxPps, "pps"),
		count(stats.TxPackets), fmtRate(rates.TxPps, "pps"))
	t.Row("bytes", count(stats.RxBytes), fmtBits(rates.RxBps),
		count(stats.TxBytes), fmtBits(rates.TxBps))
	t.Row("dropped", count(stats.RxDropped), fmtRate(rates.RxDroppedPS, "/s"),
		count(stats.TxDropped), fmtRate(rates.TxDroppedPS, "/s"))
	t.Row("errors", count(stats.RxErrors), fmtRate(rates.RxErrorsPS, "/s"),
		count(stats.TxErrors), fmtRate(rates.TxErrorsPS, "/s"))
	t.Flush()
}

// fmtBits renders a bits-per-second rate with a binary-free SI unit.
func fmtBits(bps float64) string {
	switch {
	case bps >= 1e9:
		return fmt.Sprintf("%.1f Gbps", bps/1e9)
	case bps >= 1e6:
		return fmt.Sprintf("%.1f Mbps", bps/1e6)
	case bps >= 1e3:
		return fmt.Sprintf("%.1f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.0f bps", bps)
}

func fmtRate(v float64, unit string) string {
	if v >= 1e3 {
		return fmt.Sprintf("%.1fk %s", v/1e3, unit)
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}

func init() {
	statsWatchCmd.Flags().DurationVar(&statsInterval, "interval", 2*time.Second, "Sampling interval")
	statsCmd.AddCommand(statsShowCmd)
	statsCmd.AddCommand(statsWatchCmd)
}
