package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovsman-net/ovsman/pkg/guest"
	"github.com/ovsman-net/ovsman/pkg/ifaces"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/store"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// InspectTopology builds the topology view of a host from live switch
// state without touching the snapshot store. Every remote step must
// succeed: a failed command aborts the inspection rather than returning
// partial data.
func (m *Manager) InspectTopology(ctx context.Context, hostName string) (*ovs.Topology, error) {
	var raw ovs.RawTopology
	steps := []struct {
		command string
		into    *string
	}{
		{"ovs-vsctl show", &raw.Show},
		{"ovs-vsctl list bridge", &raw.BridgeList},
		{"ovs-vsctl list port", &raw.PortList},
		{"ovs-vsctl list mirror", &raw.MirrorList},
		{"ovs-vsctl --columns=name,type list interface", &raw.TypeList},
	}
	for _, step := range steps {
		out, err := m.run(ctx, hostName, step.command)
		if err != nil {
			return nil, fmt.Errorf("inspecting topology for %s: %w", hostName, err)
		}
		*step.into = out
	}

	content, err := m.readInterfaces(ctx, hostName)
	if err != nil {
		return nil, fmt.Errorf("inspecting topology for %s: %w", hostName, err)
	}

	topo := ovs.BuildTopology(raw)
	cidrs := ifaces.BridgeCIDRs(content)
	for _, bridge := range topo.Bridges {
		bridge.CIDR = cidrs[bridge.Name]
	}
	return topo, nil
}

// RefreshTopology rebuilds the topology snapshot for a host from live
// switch state and replaces the stored document.
func (m *Manager) RefreshTopology(ctx context.Context, hostName string) (*ovs.Topology, error) {
	topo, err := m.InspectTopology(ctx, hostName)
	if err != nil {
		return nil, err
	}
	if err := m.store.PutTopology(hostName, topo); err != nil {
		return nil, err
	}
	util.WithHost(hostName).Infof("Refreshed topology: %d bridges, %d mirrors", len(topo.Bridges), len(topo.Mirrors))
	return topo, nil
}

// Topology returns the stored topology snapshot, refreshing once when the
// store has none.
func (m *Manager) Topology(ctx context.Context, hostName string) (*store.TopologySnapshot, error) {
	snap, err := m.store.GetTopology(hostName)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, util.ErrNoSnapshot) {
		return nil, err
	}
	if _, err := m.RefreshTopology(ctx, hostName); err != nil {
		return nil, err
	}
	return m.store.GetTopology(hostName)
}

// InspectPortMapping builds the workload-port records for a host from
// live state without touching the snapshot store. The switch and VM
// listings are mandatory; per-guest config reads and the container
// listing tolerate guests appearing or vanishing mid-inspection.
func (m *Manager) InspectPortMapping(ctx context.Context, hostName string) ([]*guest.PortMappingRecord, error) {
	portList, err := m.run(ctx, hostName, "ovs-vsctl list port")
	if err != nil {
		return nil, fmt.Errorf("inspecting port mapping for %s: %w", hostName, err)
	}
	show, err := m.run(ctx, hostName, "ovs-vsctl show")
	if err != nil {
		return nil, fmt.Errorf("inspecting port mapping for %s: %w", hostName, err)
	}
	bridgeList, err := m.run(ctx, hostName, "ovs-vsctl list bridge")
	if err != nil {
		return nil, fmt.Errorf("inspecting port mapping for %s: %w", hostName, err)
	}

	vmList, err := m.run(ctx, hostName, "qm list")
	if err != nil {
		return nil, fmt.Errorf("inspecting port mapping for %s: %w", hostName, err)
	}
	vms := guest.ParseVMList(vmList)
	for _, vm := range vms {
		out, err := m.run(ctx, hostName, fmt.Sprintf("qm config %d", vm.VMID))
		if err != nil {
			util.WithHost(hostName).Warnf("reading config for VM %d: %v", vm.VMID, err)
			continue
		}
		vm.Interfaces = guest.ParseVMConfig(vm.VMID, out)
	}

	var containers []*guest.Container
	ctList, err := m.run(ctx, hostName, "pct list")
	if err != nil {
		util.WithHost(hostName).Warnf("listing containers: %v", err)
	} else {
		containers = guest.ParseContainerList(ctList)
		for _, ct := range containers {
			out, err := m.run(ctx, hostName, fmt.Sprintf("pct config %d", ct.CTID))
			if err != nil {
				util.WithHost(hostName).Warnf("reading config for container %d: %v", ct.CTID, err)
				continue
			}
			ct.Interfaces = guest.ParseContainerConfig(ct.CTID, out)
		}
	}

	return guest.BuildPortMapping(guest.MappingInput{
		Ports:       ovs.ParseNameUUIDs(portList),
		PortBridges: ovs.PortBridges(ovs.ParseShowTree(show)),
		BridgeUUIDs: ovs.ParseNameUUIDs(bridgeList),
		VMs:         vms,
		Containers:  containers,
	}), nil
}

// RefreshPortMapping rebuilds the workload-port records for a host and
// replaces the stored set.
func (m *Manager) RefreshPortMapping(ctx context.Context, hostName string) ([]*guest.PortMappingRecord, error) {
	records, err := m.InspectPortMapping(ctx, hostName)
	if err != nil {
		return nil, err
	}
	if err := m.store.PutPortMapping(hostName, records); err != nil {
		return nil, err
	}
	util.WithHost(hostName).Infof("Refreshed port mapping: %d records", len(records))
	return records, nil
}

// PortMapping returns the stored mapping snapshot, refreshing once when
// the store has none.
func (m *Manager) PortMapping(ctx context.Context, hostName string) (*store.PortMappingSnapshot, error) {
	snap, err := m.store.GetPortMapping(hostName)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, util.ErrNoSnapshot) {
		return nil, err
	}
	if _, err := m.RefreshPortMapping(ctx, hostName); err != nil {
		return nil, err
	}
	return m.store.GetPortMapping(hostName)
}
