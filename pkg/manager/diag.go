package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ovsman-net/ovsman/pkg/util"
)

// DiagProbe is one fixed read-only diagnostic command. Args names the
// placeholders the command template takes, in order.
type DiagProbe struct {
	Name    string
	Summary string
	Command string
	Args    []string
}

// Probe commands are fixed templates. Nothing user-supplied reaches the
// remote shell except the declared positional arguments.
var diagProbes = map[string]DiagProbe{
	"addresses": {
		Name:    "addresses",
		Summary: "Interface addresses, brief",
		Command: "ip -brief addr show",
	},
	"bridge": {
		Name:    "bridge",
		Summary: "OpenFlow view of a bridge",
		Command: "ovs-ofctl show %s",
		Args:    []string{"bridge"},
	},
	"datapath-flows": {
		Name:    "datapath-flows",
		Summary: "Datapath flow table",
		Command: "ovs-appctl dpctl/dump-flows",
	},
	"fdb": {
		Name:    "fdb",
		Summary: "MAC learning table of a bridge",
		Command: "ovs-appctl fdb/show %s",
		Args:    []string{"bridge"},
	},
	"flows": {
		Name:    "flows",
		Summary: "OpenFlow rules of a bridge",
		Command: "ovs-ofctl dump-flows %s",
		Args:    []string{"bridge"},
	},
	"interface-addr": {
		Name:    "interface-addr",
		Summary: "Addresses of one interface",
		Command: "ip addr show %s",
		Args:    []string{"interface"},
	},
	"interface-stats": {
		Name:    "interface-stats",
		Summary: "Raw counters of one interface",
		Command: "ovs-vsctl get interface %s statistics",
		Args:    []string{"interface"},
	},
	"neighbors": {
		Name:    "neighbors",
		Summary: "ARP/NDP neighbor table",
		Command: "ip neigh show",
	},
	"overview": {
		Name:    "overview",
		Summary: "Switch configuration overview",
		Command: "ovs-vsctl show",
	},
	"port-stats": {
		Name:    "port-stats",
		Summary: "Per-port OpenFlow counters of a bridge",
		Command: "ovs-ofctl dump-ports %s",
		Args:    []string{"bridge"},
	},
	"protocols": {
		Name:    "protocols",
		Summary: "OpenFlow protocol versions of a bridge",
		Command: "ovs-vsctl get bridge %s protocols",
		Args:    []string{"bridge"},
	},
	"version": {
		Name:    "version",
		Summary: "Switch version",
		Command: "ovs-vsctl --version",
	},
}

// Probes lists the available diagnostic probes sorted by name.
func Probes() []DiagProbe {
	names := make([]string, 0, len(diagProbes))
	for name := range diagProbes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]DiagProbe, len(names))
	for i, name := range names {
		out[i] = diagProbes[name]
	}
	return out
}

// Diagnose runs one named probe and returns its raw output.
func (m *Manager) Diagnose(ctx context.Context, hostName, probe string, args ...string) (string, error) {
	p, ok := diagProbes[probe]
	if !ok {
		return "", util.NewValidationError(fmt.Sprintf("unknown probe %q", probe))
	}
	if len(args) != len(p.Args) {
		return "", util.NewValidationError(fmt.Sprintf(
			"probe %s takes %d argument(s) (%s), got %d",
			p.Name, len(p.Args), strings.Join(p.Args, ", "), len(args)))
	}

	command := p.Command
	if len(args) > 0 {
		vals := make([]interface{}, len(args))
		for i, a := range args {
			vals[i] = a
		}
		command = fmt.Sprintf(p.Command, vals...)
	}
	return m.run(ctx, hostName, command)
}

// TraceRequest describes a synthetic packet for an OpenFlow pipeline
// trace. EthType defaults to IPv4.
type TraceRequest struct {
	Bridge   string
	InPort   string
	SrcMAC   string
	DstMAC   string
	EthType  string
	SrcIP    string
	DstIP    string
	Protocol int
}

// FlowSpec renders the request as an ofproto/trace flow string. Only the
// populated fields appear, in the switch's canonical field order.
func (r *TraceRequest) FlowSpec() string {
	parts := []string{"in_port=" + r.InPort}
	if r.SrcMAC != "" {
		parts = append(parts, "dl_src="+r.SrcMAC)
	}
	if r.DstMAC != "" {
		parts = append(parts, "dl_dst="+r.DstMAC)
	}
	ethType := r.EthType
	if ethType == "" {
		ethType = "0x0800"
	}
	parts = append(parts, "dl_type="+ethType)
	if r.SrcIP != "" {
		parts = append(parts, "nw_src="+r.SrcIP)
	}
	if r.DstIP != "" {
		parts = append(parts, "nw_dst="+r.DstIP)
	}
	if r.Protocol != 0 {
		parts = append(parts, fmt.Sprintf("nw_proto=%d", r.Protocol))
	}
	return strings.Join(parts, ",")
}

// TracePacket traces a synthetic packet through a bridge's pipeline.
func (m *Manager) TracePacket(ctx context.Context, hostName string, req TraceRequest) (string, error) {
	if req.Bridge == "" || req.InPort == "" {
		return "", util.NewValidationError("trace requires a bridge and an input port")
	}
	command := fmt.Sprintf("ovs-appctl ofproto/trace %s '%s'", req.Bridge, req.FlowSpec())
	return m.run(ctx, hostName, command)
}

// PingRequest describes a reachability test from the host. Source may be
// an address or an interface name; zero Count and TimeoutSec take the
// usual 4-probe, 2-second defaults.
type PingRequest struct {
	Target     string
	Source     string
	Count      int
	TimeoutSec int
}

// Ping tests reachability of a target from the host. A failed ping is a
// result, not an error: reached reports whether the target answered.
func (m *Manager) Ping(ctx context.Context, hostName string, req PingRequest) (output string, reached bool, err error) {
	if req.Target == "" {
		return "", false, util.NewValidationError("ping requires a target")
	}
	count := req.Count
	if count <= 0 {
		count = 4
	}
	timeout := req.TimeoutSec
	if timeout <= 0 {
		timeout = 2
	}

	command := fmt.Sprintf("ping -c %d -W %d", count, timeout)
	if req.Source != "" {
		command += " -I " + req.Source
	}
	command += " " + req.Target

	r, err := m.runner(hostName)
	if err != nil {
		return "", false, err
	}
	stdout, _, exitCode, err := r.Run(ctx, command)
	if err != nil {
		return "", false, util.NewRemoteError(hostName, command, exitCode, "", err)
	}
	return stdout, exitCode == 0, nil
}
