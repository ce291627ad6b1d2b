// Package guest correlates switch ports with the Proxmox workloads behind
// them. It parses qm/pct listing and config output and decodes the
// tap<vmid>i<idx> / veth<ctid>i<idx> device naming convention.
package guest

import (
	"regexp"
	"strconv"
)

// VM is one qemu guest on a host.
type VM struct {
	VMID       int               `json:"vmid"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Interfaces []*GuestInterface `json:"interfaces"`
}

// Container is one LXC guest on a host.
type Container struct {
	CTID       int               `json:"ctid"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Interfaces []*GuestInterface `json:"interfaces"`
}

// GuestInterface is one virtual NIC of a VM or container. Tap is the
// host-side device backing it.
type GuestInterface struct {
	Index  int    `json:"interface_id"`
	Netid  string `json:"netid"`
	Tap    string `json:"tap"`
	MAC    string `json:"mac,omitempty"`
	Bridge string `json:"bridge,omitempty"`
}

// PortMappingRecord reconciles one switch port with the workload and
// interface it backs. The workload fields stay nil/empty for
// infrastructure ports and for devices whose workload is gone.
type PortMappingRecord struct {
	PortName      string `json:"port_name"`
	PortUUID      string `json:"port_uuid"`
	BridgeName    string `json:"bridge_name,omitempty"`
	BridgeUUID    string `json:"bridge_uuid,omitempty"`
	VMID          *int   `json:"vm_id"`
	VMName        string `json:"vm_name,omitempty"`
	ContainerID   *int   `json:"container_id"`
	ContainerName string `json:"container_name,omitempty"`
	InterfaceID   *int   `json:"interface_id"`
	Netid         string `json:"interface_netid,omitempty"`
	MAC           string `json:"interface_mac,omitempty"`
	IsContainer   bool   `json:"is_container"`
}

var (
	tapNameRE  = regexp.MustCompile(`^tap(\d+)i(\d+)$`)
	vethNameRE = regexp.MustCompile(`^veth(\d+)i(\d+)$`)
)

// DecodeTap extracts the VM id and interface index from a tap device name.
// ok is false for names outside the tap<vmid>i<idx> convention.
func DecodeTap(name string) (vmid, index int, ok bool) {
	return decodeDevice(tapNameRE, name)
}

// DecodeVeth extracts the container id and interface index from a veth
// device name.
func DecodeVeth(name string) (ctid, index int, ok bool) {
	return decodeDevice(vethNameRE, name)
}

func decodeDevice(re *regexp.Regexp, name string) (int, int, bool) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return id, index, true
}
