package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// SetFlowExport enables NetFlow, sFlow or IPFIX export on a bridge.
// Setting the bridge column replaces any previous export row for that
// protocol, so enable is also reconfigure.
func (m *Manager) SetFlowExport(ctx context.Context, hostName string, cfg ovs.FlowExportConfig) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command, err := ovs.FlowExportCommand(cfg)
	if err != nil {
		return util.NewValidationError(err.Error())
	}

	_, err = m.run(ctx, hostName, command)
	m.record(hostName, audit.OpFlowSet, cfg.Bridge, command, start, err)
	if err != nil {
		return fmt.Errorf("enabling %s on %s: %w", cfg.Protocol, cfg.Bridge, err)
	}
	util.WithHost(hostName).Infof("Enabled %s export on bridge %s", cfg.Protocol, cfg.Bridge)
	return nil
}

// FlowExport reads the current export config of one protocol on a
// bridge. Returns nil without error when the protocol is not enabled.
func (m *Manager) FlowExport(ctx context.Context, hostName, bridge, protocol string) (*ovs.FlowExportConfig, error) {
	table, err := ovs.FlowTableName(protocol)
	if err != nil {
		return nil, util.NewValidationError(err.Error())
	}

	out, err := m.run(ctx, hostName, fmt.Sprintf("ovs-vsctl get Bridge %s %s", bridge, protocol))
	if err != nil {
		return nil, err
	}
	uuid := strings.TrimSpace(out)
	if uuid == "" || uuid == "[]" {
		return nil, nil
	}

	out, err = m.run(ctx, hostName, fmt.Sprintf("ovs-vsctl list %s %s", table, uuid))
	if err != nil {
		return nil, err
	}
	return ovs.ParseFlowExportConfig(protocol, bridge, ovs.ParseRecord(out)), nil
}

// DisableFlowExport turns off one export protocol on a bridge. Clearing
// the bridge column drops the export row with it.
func (m *Manager) DisableFlowExport(ctx context.Context, hostName, bridge, protocol string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}
	if _, err := ovs.FlowTableName(protocol); err != nil {
		return util.NewValidationError(err.Error())
	}

	command := fmt.Sprintf("ovs-vsctl clear Bridge %s %s", bridge, protocol)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpFlowDisable, bridge, command, start, err)
	if err != nil {
		return fmt.Errorf("disabling %s on %s: %w", protocol, bridge, err)
	}
	util.WithHost(hostName).Infof("Disabled %s export on bridge %s", protocol, bridge)
	return nil
}
