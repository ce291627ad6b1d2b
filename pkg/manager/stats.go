package manager

import (
	"context"
	"time"

	"github.com/ovsman-net/ovsman/pkg/ovs"
)

// InterfaceStats reads the current counters of one interface.
func (m *Manager) InterfaceStats(ctx context.Context, hostName, iface string) (*ovs.InterfaceStats, error) {
	out, err := m.run(ctx, hostName, "ovs-vsctl list interface "+iface)
	if err != nil {
		return nil, err
	}
	return ovs.ParseInterfaceStats(ovs.ParseRecord(out), time.Now().UTC()), nil
}

// StatsSession samples one interface repeatedly and derives per-second
// rates between consecutive samples. Not safe for concurrent use.
type StatsSession struct {
	manager  *Manager
	hostName string
	iface    string
	baseline *ovs.InterfaceStats
}

// NewStatsSession starts a rate-sampling session for one interface.
func (m *Manager) NewStatsSession(hostName, iface string) *StatsSession {
	return &StatsSession{manager: m, hostName: hostName, iface: iface}
}

// Sample reads the counters and returns them with the rates since the
// previous sample. The first sample has no baseline, so rates are nil.
func (s *StatsSession) Sample(ctx context.Context) (*ovs.InterfaceStats, *ovs.StatsRates, error) {
	current, err := s.manager.InterfaceStats(ctx, s.hostName, s.iface)
	if err != nil {
		return nil, nil, err
	}

	var rates *ovs.StatsRates
	if s.baseline != nil {
		r := ovs.StatsDelta(s.baseline, current)
		rates = &r
	}
	s.baseline = current
	return current, rates, nil
}
