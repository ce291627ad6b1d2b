package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// CreateMirrorRequest describes a new traffic mirror. Mode dynamic
// selects all bridge traffic; mode manual selects SourcePorts.
type CreateMirrorRequest struct {
	Bridge      string
	Name        string
	Mode        string // dynamic, manual
	SourcePorts []string
	OutputPort  string
}

// CreateMirror creates a traffic mirror as one ovs-vsctl transaction.
func (m *Manager) CreateMirror(ctx context.Context, hostName string, req CreateMirrorRequest) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command, err := ovs.CreateMirrorCommand(req.Bridge, req.Name, req.Mode, req.SourcePorts, req.OutputPort)
	if err != nil {
		return util.NewValidationError(err.Error())
	}

	_, err = m.run(ctx, hostName, command)
	m.record(hostName, audit.OpMirrorCreate, req.Name, command, start, err)
	if err != nil {
		return fmt.Errorf("creating mirror %s on %s: %w", req.Name, req.Bridge, err)
	}
	util.WithHost(hostName).Infof("Created mirror %s on bridge %s", req.Name, req.Bridge)
	return nil
}

// DeleteMirror removes one mirror from a bridge by UUID. The bridge's
// mirror column is checked first; an unlisted UUID is logged and the
// removal still attempted, since the column can lag the mirror table.
func (m *Manager) DeleteMirror(ctx context.Context, hostName, bridge, uuid string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	listOut, err := m.run(ctx, hostName, "ovs-vsctl list bridge "+bridge)
	if err != nil {
		return fmt.Errorf("deleting mirror on %s: %w", bridge, err)
	}
	known := false
	for _, u := range ovs.MirrorUUIDs(listOut) {
		if u == uuid {
			known = true
			break
		}
	}
	if !known {
		util.WithHost(hostName).Warnf("Mirror %s not listed on bridge %s, removing anyway", uuid, bridge)
	}

	command := fmt.Sprintf("ovs-vsctl remove bridge %s mirrors %s", bridge, uuid)
	_, err = m.run(ctx, hostName, command)
	m.record(hostName, audit.OpMirrorDelete, uuid, command, start, err)
	if err != nil {
		return fmt.Errorf("deleting mirror %s: %w", uuid, err)
	}
	util.WithHost(hostName).Infof("Deleted mirror %s from bridge %s", uuid, bridge)
	return nil
}

// ClearMirrors removes every mirror from a bridge.
func (m *Manager) ClearMirrors(ctx context.Context, hostName, bridge string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := "ovs-vsctl clear bridge " + bridge + " mirrors"
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpMirrorClear, bridge, command, start, err)
	if err != nil {
		return fmt.Errorf("clearing mirrors on %s: %w", bridge, err)
	}
	util.WithHost(hostName).Infof("Cleared mirrors on bridge %s", bridge)
	return nil
}

// MirrorStatistics returns the packet counters of one mirror by name.
func (m *Manager) MirrorStatistics(ctx context.Context, hostName, name string) (map[string]int64, error) {
	out, err := m.run(ctx, hostName, "ovs-vsctl get Mirror "+name+" statistics")
	if err != nil {
		return nil, err
	}
	return ovs.ParseMirrorStatistics(out), nil
}
