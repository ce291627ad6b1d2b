package ovs

import (
	"fmt"
	"strconv"
	"strings"
)

// Mirror selection modes.
const (
	MirrorModeManual  = "manual"  // explicit source port list
	MirrorModeDynamic = "dynamic" // select-all, every port on the bridge
)

// CreateMirrorCommand builds the ovs-vsctl transaction that creates a
// mirror on a bridge. Dynamic mode selects all traffic; manual mode selects
// the given source ports for both directions. The whole transaction is one
// command so a half-created mirror never lands on the switch.
func CreateMirrorCommand(bridge, name, mode string, sourcePorts []string, outputPort string) (string, error) {
	if outputPort == "" {
		return "", fmt.Errorf("mirror requires an output port")
	}

	switch mode {
	case MirrorModeDynamic:
		return fmt.Sprintf("ovs-vsctl -- --id=@p get Port %s"+
			" -- --id=@m create Mirror name=%s select-all=true output-port=@p"+
			" -- add Bridge %s mirrors @m", outputPort, name, bridge), nil

	case MirrorModeManual:
		if len(sourcePorts) == 0 {
			return "", fmt.Errorf("manual mirror requires at least one source port")
		}
		if len(sourcePorts) == 1 {
			return fmt.Sprintf("ovs-vsctl -- --id=@src get Port %s"+
				" -- --id=@out get Port %s"+
				" -- --id=@m create Mirror name=%s select-src-port=@src select-dst-port=@src output-port=@out"+
				" -- add Bridge %s mirrors @m", sourcePorts[0], outputPort, name, bridge), nil
		}
		refs := make([]string, len(sourcePorts))
		ids := make([]string, len(sourcePorts))
		for i, port := range sourcePorts {
			ids[i] = "@src" + strconv.Itoa(i)
			refs[i] = fmt.Sprintf("--id=%s get Port %s", ids[i], port)
		}
		set := "{" + strings.Join(ids, " ") + "}"
		return fmt.Sprintf("ovs-vsctl -- %s"+
			" -- --id=@out get Port %s"+
			" -- --id=@m create Mirror name=%s select-src-port=%s select-dst-port=%s output-port=@out"+
			" -- add Bridge %s mirrors @m",
			strings.Join(refs, " -- "), outputPort, name, set, set, bridge), nil

	default:
		return "", fmt.Errorf("unknown mirror mode %q", mode)
	}
}

// ParseMirrorStatistics decodes the `get Mirror <name> statistics` map
// into counters. Non-numeric values are dropped.
func ParseMirrorStatistics(raw string) map[string]int64 {
	out := map[string]int64{}
	for key, value := range ParseSet(raw) {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			out[key] = n
		}
	}
	return out
}

// MirrorUUIDs extracts the mirror UUIDs from the mirrors column of a
// `list bridge <name>` dump. Used to verify a mirror belongs to a bridge
// before removal.
func MirrorUUIDs(bridgeList string) []string {
	var out []string
	for _, rec := range ParseRecords(bridgeList) {
		out = append(out, uuidRE.FindAllString(rec.Get("mirrors"), -1)...)
	}
	return out
}
