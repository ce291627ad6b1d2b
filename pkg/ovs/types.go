// Package ovs parses Open vSwitch CLI output into a normalized topology model.
//
// Everything in this package is a pure transform over text already fetched
// from a host: no I/O, no locks, no remote calls. The orchestration layer
// (pkg/manager) runs the commands and feeds the output here.
package ovs

import "time"

// Topology is the normalized view of one host's virtual switching state.
// Mirrors holds every mirror on the host, including those whose owning
// bridge could not be resolved; resolved mirrors also appear on their bridge.
type Topology struct {
	Bridges []*Bridge `json:"bridges"`
	Mirrors []*Mirror `json:"mirrors,omitempty"`
}

// Bridge is a virtual switch instance. UUID stays empty when the point
// lookup fails; an unresolved UUID never drops the bridge.
type Bridge struct {
	UUID    string    `json:"uuid"`
	Name    string    `json:"name"`
	Ports   []*Port   `json:"ports"`
	Mirrors []*Mirror `json:"mirrors,omitempty"`
	CIDR    string    `json:"cidr,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

// Port is a named attachment point on a bridge. A port with more than one
// interface is a bond; its type is taken from the first interface.
type Port struct {
	UUID       string       `json:"uuid"`
	Name       string       `json:"name"`
	Bridge     string       `json:"bridge,omitempty"`
	Type       string       `json:"type,omitempty"` // system, internal, tap, veth, patch, vxlan, gre, geneve, ...
	Interfaces []*Interface `json:"interfaces"`
}

// Interface is the name/type stub attached to a topology port. Full
// attributes live in InterfaceDetail.
type Interface struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Mirror is a traffic-copy rule. Bridge is "unknown" when neither the
// bridge-side mirror list nor the port membership map could place it.
type Mirror struct {
	UUID          string   `json:"uuid"`
	Name          string   `json:"name,omitempty"`
	Bridge        string   `json:"bridge"`
	SelectSrcPort []string `json:"select_src_port,omitempty"`
	SelectDstPort []string `json:"select_dst_port,omitempty"`
	OutputPort    string   `json:"output_port,omitempty"`
	OutputVLANs   []int    `json:"output_vlan,omitempty"`
	SelectAll     bool     `json:"select_all"`
}

// InterfaceDetail carries the per-interface attributes the switch reports.
// Options is the type-specific option map (remote_ip, key, peer, ...).
type InterfaceDetail struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	MAC        string            `json:"mac_address,omitempty"`
	MTU        int               `json:"mtu,omitempty"`
	AdminState string            `json:"admin_state,omitempty"` // up, down
	LinkState  string            `json:"link_state,omitempty"`  // up, down
	Options    map[string]string `json:"options,omitempty"`
}

// PortDetail carries the VLAN and bond attributes of a port record.
// Tag is nil when the port has no access VLAN.
type PortDetail struct {
	UUID          string             `json:"uuid"`
	Name          string             `json:"name"`
	Bridge        string             `json:"bridge,omitempty"`
	Tag           *int               `json:"tag,omitempty"`
	Trunks        []int              `json:"trunks,omitempty"`
	VLANMode      string             `json:"vlan_mode,omitempty"` // access, trunk, native-tagged, native-untagged
	BondMode      string             `json:"bond_mode,omitempty"` // active-backup, balance-slb, balance-tcp
	LACP          string             `json:"lacp,omitempty"`      // active, passive, off
	BondUpdelay   int                `json:"bond_updelay,omitempty"`
	BondDowndelay int                `json:"bond_downdelay,omitempty"`
	Interfaces    []*InterfaceDetail `json:"interfaces,omitempty"`
}

// BridgeDetail carries the full bridge record attributes.
type BridgeDetail struct {
	UUID                string        `json:"uuid"`
	Name                string        `json:"name"`
	FailMode            string        `json:"fail_mode,omitempty"`     // secure, standalone
	DatapathType        string        `json:"datapath_type,omitempty"` // system, netdev
	DatapathID          string        `json:"datapath_id,omitempty"`
	Protocols           []string      `json:"protocols,omitempty"`
	Controller          string        `json:"controller,omitempty"`
	STPEnable           bool          `json:"stp_enable"`
	RSTPEnable          bool          `json:"rstp_enable"`
	McastSnoopingEnable bool          `json:"mcast_snooping_enable"`
	Ports               []*PortDetail `json:"ports,omitempty"`
	Mirrors             []*Mirror     `json:"mirrors,omitempty"`
	CIDR                string        `json:"cidr,omitempty"`
	Comment             string        `json:"comment,omitempty"`
}

// InterfaceStats is one observation of an interface's counters.
type InterfaceStats struct {
	RxPackets int64     `json:"rx_packets"`
	RxBytes   int64     `json:"rx_bytes"`
	RxDropped int64     `json:"rx_dropped"`
	RxErrors  int64     `json:"rx_errors"`
	TxPackets int64     `json:"tx_packets"`
	TxBytes   int64     `json:"tx_bytes"`
	TxDropped int64     `json:"tx_dropped"`
	TxErrors  int64     `json:"tx_errors"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsRates holds per-second rates between two counter observations.
// Byte rates are in bits per second.
type StatsRates struct {
	RxBps       float64 `json:"rx_bps"`
	TxBps       float64 `json:"tx_bps"`
	RxPps       float64 `json:"rx_pps"`
	TxPps       float64 `json:"tx_pps"`
	RxDroppedPS float64 `json:"rx_dropped_ps"`
	TxDroppedPS float64 `json:"tx_dropped_ps"`
	RxErrorsPS  float64 `json:"rx_errors_ps"`
	TxErrorsPS  float64 `json:"tx_errors_ps"`
}

// BondSlave is one member interface of a bond with its reported status line.
type BondSlave struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// BondStatus is the health view of a bond port.
type BondStatus struct {
	Name        string      `json:"name"`
	Mode        string      `json:"mode"`
	LACP        string      `json:"lacp"`
	ActiveSlave string      `json:"active_slave,omitempty"`
	Slaves      []BondSlave `json:"slaves"`
}

// LACPStatus is the negotiation view of a bond running LACP. Details keeps
// every key/value line from lacp/show for display.
type LACPStatus struct {
	Bond       string            `json:"bond_name"`
	ActorKey   int               `json:"actor_key,omitempty"`
	PartnerKey int               `json:"partner_key,omitempty"`
	Status     string            `json:"aggregation_status,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Flow export protocols.
const (
	FlowProtocolNetFlow = "netflow"
	FlowProtocolSFlow   = "sflow"
	FlowProtocolIPFIX   = "ipfix"
)

// FlowExportConfig is the flow-export state of one bridge for one protocol.
// Only the fields that apply to the protocol are populated.
type FlowExportConfig struct {
	Protocol string   `json:"protocol"` // netflow, sflow, ipfix
	Bridge   string   `json:"bridge"`
	Targets  []string `json:"targets"` // collector addresses, ip:port

	// NetFlow / IPFIX
	ActiveTimeout int `json:"active_timeout,omitempty"`

	// NetFlow
	EngineID   int `json:"engine_id,omitempty"`
	EngineType int `json:"engine_type,omitempty"`

	// sFlow
	Header   int `json:"header,omitempty"`
	Sampling int `json:"sampling,omitempty"`
	Polling  int `json:"polling,omitempty"`

	// IPFIX
	ObsDomainID        int `json:"obs_domain_id,omitempty"`
	ObsPointID         int `json:"obs_point_id,omitempty"`
	CacheActiveTimeout int `json:"cache_active_timeout,omitempty"`
	CacheMaxFlows      int `json:"cache_max_flows,omitempty"`
}
