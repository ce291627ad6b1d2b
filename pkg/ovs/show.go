package ovs

import "strings"

// ShowBridge is one top-level block of `ovs-vsctl show` output.
type ShowBridge struct {
	Name  string
	Ports []*ShowPort
}

// ShowPort is a Port block inside a bridge, with its interface names in
// source order.
type ShowPort struct {
	Name       string
	Interfaces []string
}

// ParseShowTree parses `ovs-vsctl show` output into its bridge/port/
// interface skeleton, preserving source order. A Port line attaches to the
// most recently opened bridge, an Interface line to the most recently
// opened port; lines that match neither keyword are ignored. A Port or
// Interface line with no open parent is dropped rather than mis-attributed.
func ParseShowTree(text string) []*ShowBridge {
	var bridges []*ShowBridge
	var bridge *ShowBridge
	var port *ShowPort

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Bridge "):
			bridge = &ShowBridge{Name: blockName(line)}
			bridges = append(bridges, bridge)
			port = nil
		case strings.HasPrefix(line, "Port "):
			if bridge == nil {
				continue
			}
			port = &ShowPort{Name: blockName(line)}
			bridge.Ports = append(bridge.Ports, port)
		case strings.HasPrefix(line, "Interface "):
			if port == nil {
				continue
			}
			port.Interfaces = append(port.Interfaces, blockName(line))
		}
	}
	return bridges
}

// PortBridges flattens a show tree into a port name to owning bridge map.
func PortBridges(bridges []*ShowBridge) map[string]string {
	out := map[string]string{}
	for _, b := range bridges {
		for _, p := range b.Ports {
			out[p.Name] = b.Name
		}
	}
	return out
}

// blockName extracts the name from a `Keyword "name"` line. The switch
// quotes names that are not bare words.
func blockName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], `"`)
}
