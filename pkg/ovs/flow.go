package ovs

import (
	"fmt"
	"strings"
)

// FlowTableName maps a flow-export protocol to its OVSDB table name as used
// by `ovs-vsctl list`. The bridge column uses the protocol name itself.
func FlowTableName(protocol string) (string, error) {
	switch protocol {
	case FlowProtocolNetFlow:
		return "NetFlow", nil
	case FlowProtocolSFlow:
		return "sFlow", nil
	case FlowProtocolIPFIX:
		return "IPFIX", nil
	default:
		return "", fmt.Errorf("unknown flow export protocol %q", protocol)
	}
}

// FlowExportCommand builds the ovs-vsctl transaction that enables flow
// export on cfg.Bridge: one `set Bridge` referencing a `create` row via
// --id. Optional parameters are emitted only when non-zero.
func FlowExportCommand(cfg FlowExportConfig) (string, error) {
	if cfg.Bridge == "" {
		return "", fmt.Errorf("flow export requires a bridge")
	}
	if len(cfg.Targets) == 0 {
		return "", fmt.Errorf("flow export requires at least one collector target")
	}
	table, err := FlowTableName(cfg.Protocol)
	if err != nil {
		return "", err
	}

	// Target strings carry escaped quotes so they survive the remote shell.
	quoted := make([]string, len(cfg.Targets))
	for i, t := range cfg.Targets {
		quoted[i] = `\"` + t + `\"`
	}

	var ref string
	switch cfg.Protocol {
	case FlowProtocolNetFlow:
		ref = "@nf"
	case FlowProtocolSFlow:
		ref = "@sf"
	case FlowProtocolIPFIX:
		ref = "@ipfix"
	}

	parts := []string{fmt.Sprintf("--id=%s create %s targets=[%s]", ref, table, strings.Join(quoted, ","))}
	appendOpt := func(key string, value int) {
		if value != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", key, value))
		}
	}
	switch cfg.Protocol {
	case FlowProtocolNetFlow:
		appendOpt("active_timeout", cfg.ActiveTimeout)
		appendOpt("engine_id", cfg.EngineID)
		appendOpt("engine_type", cfg.EngineType)
	case FlowProtocolSFlow:
		appendOpt("header", cfg.Header)
		appendOpt("sampling", cfg.Sampling)
		appendOpt("polling", cfg.Polling)
	case FlowProtocolIPFIX:
		appendOpt("obs_domain_id", cfg.ObsDomainID)
		appendOpt("obs_point_id", cfg.ObsPointID)
		appendOpt("cache_active_timeout", cfg.CacheActiveTimeout)
		appendOpt("cache_max_flows", cfg.CacheMaxFlows)
	}

	return fmt.Sprintf("ovs-vsctl -- set Bridge %s %s=%s -- %s",
		cfg.Bridge, cfg.Protocol, ref, strings.Join(parts, " ")), nil
}

// ParseFlowExportConfig decodes a `list NetFlow|sFlow|IPFIX <uuid>` record
// into the per-protocol config. Absent optional columns stay zero.
func ParseFlowExportConfig(protocol, bridge string, rec Record) *FlowExportConfig {
	cfg := &FlowExportConfig{
		Protocol: protocol,
		Bridge:   bridge,
		Targets:  rec.Array("targets"),
	}
	getInt := func(key string) int {
		n, _ := rec.Int(key)
		return n
	}
	switch protocol {
	case FlowProtocolNetFlow:
		cfg.ActiveTimeout = getInt("active_timeout")
		cfg.EngineID = getInt("engine_id")
		cfg.EngineType = getInt("engine_type")
	case FlowProtocolSFlow:
		cfg.Header = getInt("header")
		cfg.Sampling = getInt("sampling")
		cfg.Polling = getInt("polling")
	case FlowProtocolIPFIX:
		cfg.ObsDomainID = getInt("obs_domain_id")
		cfg.ObsPointID = getInt("obs_point_id")
		cfg.CacheActiveTimeout = getInt("cache_active_timeout")
		cfg.CacheMaxFlows = getInt("cache_max_flows")
	}
	return cfg
}
