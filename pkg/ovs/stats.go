package ovs

import (
	"strconv"
	"time"
)

// ParseInterfaceStats reads the statistics column of a `list interface`
// record and stamps the observation time. Counters the switch does not
// report stay zero.
func ParseInterfaceStats(rec Record, at time.Time) *InterfaceStats {
	counters := rec.Set("statistics")
	get := func(key string) int64 {
		n, err := strconv.ParseInt(counters[key], 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return &InterfaceStats{
		RxPackets: get("rx_packets"),
		RxBytes:   get("rx_bytes"),
		RxDropped: get("rx_dropped"),
		RxErrors:  get("rx_errors"),
		TxPackets: get("tx_packets"),
		TxBytes:   get("tx_bytes"),
		TxDropped: get("tx_dropped"),
		TxErrors:  get("tx_errors"),
		Timestamp: at,
	}
}

// StatsDelta computes per-second rates from a baseline observation to a
// later one. A non-positive elapsed time counts as one second so two
// observations in the same instant never divide by zero.
func StatsDelta(baseline, current *InterfaceStats) StatsRates {
	elapsed := current.Timestamp.Sub(baseline.Timestamp).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	return StatsRates{
		RxBps:       float64(current.RxBytes-baseline.RxBytes) * 8 / elapsed,
		TxBps:       float64(current.TxBytes-baseline.TxBytes) * 8 / elapsed,
		RxPps:       float64(current.RxPackets-baseline.RxPackets) / elapsed,
		TxPps:       float64(current.TxPackets-baseline.TxPackets) / elapsed,
		RxDroppedPS: float64(current.RxDropped-baseline.RxDropped) / elapsed,
		TxDroppedPS: float64(current.TxDropped-baseline.TxDropped) / elapsed,
		RxErrorsPS:  float64(current.RxErrors-baseline.RxErrors) / elapsed,
		TxErrorsPS:  float64(current.TxErrors-baseline.TxErrors) / elapsed,
	}
}
