package guest

import (
	"fmt"
	"sort"
	"strings"
)

// MappingInput carries everything BuildPortMapping correlates: the switch
// port inventory and the parsed guest lists.
type MappingInput struct {
	Ports       map[string]string // port name → UUID
	PortBridges map[string]string // port name → owning bridge
	BridgeUUIDs map[string]string // bridge name → UUID
	VMs         []*VM
	Containers  []*Container
}

// BuildPortMapping produces one record per switch port, sorted by port
// name. The result is always a full replacement of the previous set for
// the host; records are never merged in place.
//
// A decodable tap/veth name fixes the interface index and a net<idx>
// default netid even when the workload itself is gone; the workload's own
// config refines netid and MAC when the index matches. Non-conforming veth
// names fall back to bridge co-membership: the first container with any
// interface on the port's bridge wins. That fallback is best-effort and
// can misattribute when containers share a bridge.
func BuildPortMapping(in MappingInput) []*PortMappingRecord {
	names := make([]string, 0, len(in.Ports))
	for name := range in.Ports {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]*PortMappingRecord, 0, len(names))
	for _, name := range names {
		rec := &PortMappingRecord{
			PortName:   name,
			PortUUID:   in.Ports[name],
			BridgeName: in.PortBridges[name],
		}
		if rec.BridgeName != "" {
			rec.BridgeUUID = in.BridgeUUIDs[rec.BridgeName]
		}

		if ctid, index, ok := DecodeVeth(name); ok {
			rec.IsContainer = true
			rec.InterfaceID = intRef(index)
			rec.Netid = fmt.Sprintf("net%d", index)
			if ct := findContainer(in.Containers, ctid); ct != nil {
				rec.ContainerID = intRef(ct.CTID)
				rec.ContainerName = ct.Name
				if iface := findInterface(ct.Interfaces, index); iface != nil {
					rec.Netid = iface.Netid
					rec.MAC = iface.MAC
				}
			}
		} else if strings.HasPrefix(name, "veth") {
			rec.IsContainer = true
			matchContainerByBridge(rec, in.Containers)
		} else if vmid, index, ok := DecodeTap(name); ok {
			rec.InterfaceID = intRef(index)
			rec.Netid = fmt.Sprintf("net%d", index)
			if vm := findVM(in.VMs, vmid); vm != nil {
				rec.VMID = intRef(vm.VMID)
				rec.VMName = vm.Name
				if iface := findInterface(vm.Interfaces, index); iface != nil {
					rec.Netid = iface.Netid
					rec.MAC = iface.MAC
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

// matchContainerByBridge is the co-membership heuristic for veth ports
// whose name does not decode. The first container with an interface on the
// record's bridge claims the port.
func matchContainerByBridge(rec *PortMappingRecord, containers []*Container) {
	if rec.BridgeName == "" {
		return
	}
	for _, ct := range containers {
		for _, iface := range ct.Interfaces {
			if iface.Bridge == rec.BridgeName {
				rec.ContainerID = intRef(ct.CTID)
				rec.ContainerName = ct.Name
				rec.Netid = iface.Netid
				rec.MAC = iface.MAC
				return
			}
		}
	}
}

func findVM(vms []*VM, vmid int) *VM {
	for _, vm := range vms {
		if vm.VMID == vmid {
			return vm
		}
	}
	return nil
}

func findContainer(containers []*Container, ctid int) *Container {
	for _, ct := range containers {
		if ct.CTID == ctid {
			return ct
		}
	}
	return nil
}

func findInterface(ifaces []*GuestInterface, index int) *GuestInterface {
	for _, iface := range ifaces {
		if iface.Index == index {
			return iface
		}
	}
	return nil
}

func intRef(v int) *int {
	return &v
}
