package ovs

import (
	"regexp"
	"strings"
)

var uuidRE = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// RawTopology carries the command output a topology snapshot is built from.
// Each field is the verbatim stdout of one ovs-vsctl invocation.
type RawTopology struct {
	Show       string // ovs-vsctl show
	BridgeList string // ovs-vsctl list bridge
	PortList   string // ovs-vsctl list port
	MirrorList string // ovs-vsctl list mirror
	TypeList   string // ovs-vsctl --columns=name,type list interface
}

// BuildTopology assembles the normalized topology for one host. The show
// output provides the bridge/port/interface skeleton and ordering; the list
// outputs provide UUIDs, interface types and mirrors. Unresolvable
// references degrade to empty or "unknown" values, they never drop an
// element or abort the build.
func BuildTopology(raw RawTopology) *Topology {
	skeleton := ParseShowTree(raw.Show)
	ifaceTypes := ParseInterfaceTypes(raw.TypeList)
	bridgeUUIDs := ParseNameUUIDs(raw.BridgeList)
	portUUIDs := ParseNameUUIDs(raw.PortList)
	portNames := ParseUUIDNames(raw.PortList)
	portBridges := PortBridges(skeleton)
	tier1 := ParseBridgeMirrors(raw.BridgeList)

	topo := &Topology{Bridges: make([]*Bridge, 0, len(skeleton))}
	byName := map[string]*Bridge{}

	for _, sb := range skeleton {
		bridge := &Bridge{
			UUID:  bridgeUUIDs[sb.Name],
			Name:  sb.Name,
			Ports: make([]*Port, 0, len(sb.Ports)),
		}
		for _, sp := range sb.Ports {
			port := &Port{
				UUID:       portUUIDs[sp.Name],
				Name:       sp.Name,
				Bridge:     sb.Name,
				Interfaces: make([]*Interface, 0, len(sp.Interfaces)),
			}
			for _, name := range sp.Interfaces {
				t, ok := ifaceTypes[name]
				if !ok {
					t = "unknown"
				}
				port.Interfaces = append(port.Interfaces, &Interface{Name: name, Type: t})
			}
			// Port type follows the first interface; more than one
			// interface means a bond.
			if len(port.Interfaces) > 0 {
				port.Type = port.Interfaces[0].Type
			}
			bridge.Ports = append(bridge.Ports, port)
		}
		topo.Bridges = append(topo.Bridges, bridge)
		byName[bridge.Name] = bridge
	}

	topo.Mirrors = ParseMirrors(raw.MirrorList, portNames, portBridges, tier1)
	for _, m := range topo.Mirrors {
		if b, ok := byName[m.Bridge]; ok {
			b.Mirrors = append(b.Mirrors, m)
		}
	}
	return topo
}

// ParseInterfaceTypes reads `ovs-vsctl --columns=name,type list interface`
// output into a name to type map. An empty reported type falls back by name
// prefix: tap* and veth* keep their workload-device kind, everything else
// is a plain system interface.
func ParseInterfaceTypes(text string) map[string]string {
	types := map[string]string{}
	for _, rec := range ParseRecords(text) {
		name := rec.Text("name")
		if name == "" {
			continue
		}
		t := rec.Text("type")
		if t == "" {
			t = fallbackType(name)
		}
		types[name] = t
	}
	return types
}

func fallbackType(name string) string {
	switch {
	case strings.HasPrefix(name, "tap"):
		return "tap"
	case strings.HasPrefix(name, "veth"):
		return "veth"
	default:
		return "system"
	}
}

// ParseBridgeMirrors maps mirror UUIDs to their owning bridge from
// `ovs-vsctl list bridge` output. The bridge-side mirrors column is the
// authoritative association; the port-derived fallback in ParseMirrors is
// only consulted for UUIDs absent here.
func ParseBridgeMirrors(text string) map[string]string {
	out := map[string]string{}
	for _, rec := range ParseRecords(text) {
		name := rec.Text("name")
		if name == "" {
			continue
		}
		for _, id := range uuidRE.FindAllString(rec.Get("mirrors"), -1) {
			out[id] = name
		}
	}
	return out
}

// ParseMirrors reads `ovs-vsctl list mirror` output. portNames maps port
// UUID to name, portBridges maps port name to bridge, bridgeMirrors is the
// tier-1 mirror UUID to bridge map. A mirror neither map can place keeps
// bridge "unknown" and is still returned.
func ParseMirrors(text string, portNames, portBridges, bridgeMirrors map[string]string) []*Mirror {
	var mirrors []*Mirror
	for _, rec := range ParseRecords(text) {
		uuid := rec.Text("_uuid")
		if uuid == "" {
			continue
		}
		m := &Mirror{
			UUID:          uuid,
			Name:          rec.Text("name"),
			SelectSrcPort: resolvePorts(rec.Array("select_src_port"), portNames),
			SelectDstPort: resolvePorts(rec.Array("select_dst_port"), portNames),
			OutputPort:    portNames[rec.Text("output_port")],
			SelectAll:     rec.Bool("select_all"),
		}
		if v, ok := rec.Int("output_vlan"); ok {
			m.OutputVLANs = []int{v}
		} else {
			m.OutputVLANs = rec.IntArray("output_vlan")
		}

		m.Bridge = bridgeMirrors[uuid]
		if m.Bridge == "" {
			m.Bridge = bridgeForPorts(portBridges, m.SelectSrcPort, m.OutputPort)
		}
		mirrors = append(mirrors, m)
	}
	return mirrors
}

// resolvePorts maps port UUIDs to names, dropping UUIDs that do not
// resolve. nil when nothing resolves, so an unset selection stays unset.
func resolvePorts(uuids []string, portNames map[string]string) []string {
	var out []string
	for _, id := range uuids {
		if name := portNames[id]; name != "" {
			out = append(out, name)
		}
	}
	return out
}

func bridgeForPorts(portBridges map[string]string, srcPorts []string, outputPort string) string {
	for _, p := range srcPorts {
		if b := portBridges[p]; b != "" {
			return b
		}
	}
	if b := portBridges[outputPort]; b != "" {
		return b
	}
	return "unknown"
}
