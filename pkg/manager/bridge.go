package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/ifaces"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/util"
)

const interfacesPath = "/etc/network/interfaces"

// readInterfaces fetches the network config file content.
func (m *Manager) readInterfaces(ctx context.Context, hostName string) (string, error) {
	return m.run(ctx, hostName, "cat "+interfacesPath)
}

// backupInterfaces snapshots the network config file before an edit.
// Best effort: a failed backup is logged, not fatal.
func (m *Manager) backupInterfaces(ctx context.Context, hostName string) {
	m.tryRun(ctx, hostName, fmt.Sprintf("cp %s %s.bak.$(date +%%Y%%m%%d_%%H%%M%%S)", interfacesPath, interfacesPath))
}

// writeInterfacesCommand builds the whole-file replacement command. The
// quoted heredoc keeps the content literal; its terminator supplies the
// final newline, so one trailing newline comes off the content first.
func writeInterfacesCommand(content string) string {
	return fmt.Sprintf("cat > %s << 'EOF'\n%s\nEOF", interfacesPath, strings.TrimSuffix(content, "\n"))
}

// CreateBridgeRequest carries the switch and config-file parameters for a
// new bridge. Zero values follow Proxmox defaults: no addressing, standard
// MTU, system datapath.
type CreateBridgeRequest struct {
	Name         string
	FailMode     string // standalone, secure
	DatapathType string // system, netdev
	IPv4CIDR     string
	IPv4Gateway  string
	IPv6CIDR     string
	IPv6Gateway  string
	Ports        string // space-separated ovs_ports value
	MTU          int
	Options      string // raw ovs_options value
	Comment      string
	Autostart    bool
}

// CreateBridge creates an OVS bridge and records it in the host's network
// config file. The switch change happens first; if the file write then
// fails the bridge is removed again so switch and file never drift apart.
func (m *Manager) CreateBridge(ctx context.Context, hostName string, req CreateBridgeRequest) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	stanza := &ifaces.BridgeStanza{
		Name:        req.Name,
		Autostart:   req.Autostart,
		IPv4CIDR:    req.IPv4CIDR,
		IPv4Gateway: req.IPv4Gateway,
		IPv6CIDR:    req.IPv6CIDR,
		IPv6Gateway: req.IPv6Gateway,
		Ports:       req.Ports,
		MTU:         req.MTU,
		Options:     req.Options,
		Comment:     req.Comment,
	}
	if err := stanza.Validate(); err != nil {
		return err
	}

	unlock, err := m.lockHost(hostName)
	if err != nil {
		return err
	}
	defer unlock()

	content, err := m.readInterfaces(ctx, hostName)
	if err != nil {
		return fmt.Errorf("creating bridge %s: %w", req.Name, err)
	}
	if req.IPv4Gateway != "" {
		if holder := ifaces.DefaultGatewayInterface(content); holder != "" {
			return util.NewPreconditionError(audit.OpBridgeCreate, req.Name,
				"single default gateway",
				fmt.Sprintf("interface %s already holds the default gateway", holder))
		}
	}

	command := "ovs-vsctl add-br " + req.Name
	if req.DatapathType != "" && req.DatapathType != "system" {
		command += fmt.Sprintf(" -- set bridge %s datapath_type=%s", req.Name, req.DatapathType)
	}
	if req.FailMode != "" {
		command += fmt.Sprintf(" -- set bridge %s fail_mode=%s", req.Name, req.FailMode)
	}
	if _, err := m.run(ctx, hostName, command); err != nil {
		m.record(hostName, audit.OpBridgeCreate, req.Name, command, start, err)
		return fmt.Errorf("creating bridge %s: %w", req.Name, err)
	}

	m.backupInterfaces(ctx, hostName)

	updated := ifaces.AppendStanza(content, stanza)
	if _, err := m.run(ctx, hostName, writeInterfacesCommand(updated)); err != nil {
		// The switch bridge exists but the file write failed. Remove the
		// bridge again so the host does not drift from its config.
		m.tryRun(ctx, hostName, "ovs-vsctl del-br "+req.Name)
		m.record(hostName, audit.OpBridgeCreate, req.Name, command, start, err)
		return fmt.Errorf("writing network config for %s: %w", req.Name, err)
	}

	m.tryRun(ctx, hostName, "ifup "+req.Name)

	m.record(hostName, audit.OpBridgeCreate, req.Name, command, start, nil)
	util.WithHost(hostName).Infof("Created bridge %s", req.Name)
	return nil
}

// DeleteBridge removes an OVS bridge and its stanza from the network
// config file. A missing stanza is not an error; the file is left alone.
func (m *Manager) DeleteBridge(ctx context.Context, hostName, name string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	unlock, err := m.lockHost(hostName)
	if err != nil {
		return err
	}
	defer unlock()

	command := "ovs-vsctl del-br " + name
	if _, err := m.run(ctx, hostName, command); err != nil {
		m.record(hostName, audit.OpBridgeDelete, name, command, start, err)
		return fmt.Errorf("deleting bridge %s: %w", name, err)
	}

	m.backupInterfaces(ctx, hostName)

	content, err := m.readInterfaces(ctx, hostName)
	if err != nil {
		m.record(hostName, audit.OpBridgeDelete, name, command, start, err)
		return fmt.Errorf("deleting bridge %s: %w", name, err)
	}
	updated := ifaces.RemoveStanza(content, name)
	if updated != content {
		if _, err := m.run(ctx, hostName, writeInterfacesCommand(updated)); err != nil {
			m.record(hostName, audit.OpBridgeDelete, name, command, start, err)
			return fmt.Errorf("writing network config after deleting %s: %w", name, err)
		}
	}

	m.tryRun(ctx, hostName, "ifdown "+name+" 2>/dev/null || true")

	m.record(hostName, audit.OpBridgeDelete, name, command, start, nil)
	util.WithHost(hostName).Infof("Deleted bridge %s", name)
	return nil
}

// UpdateBridge sets arbitrary properties on a bridge row. An empty
// property set is a no-op.
func (m *Manager) UpdateBridge(ctx context.Context, hostName, name string, properties map[string]string) error {
	if len(properties) == 0 {
		return nil
	}
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := setCommand("bridge", name, properties)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpBridgeUpdate, name, command, start, err)
	if err != nil {
		return fmt.Errorf("updating bridge %s: %w", name, err)
	}
	util.WithHost(hostName).Infof("Updated bridge %s", name)
	return nil
}

// BridgeDetails returns the full attribute view of one bridge: the bridge
// row, each port row, and each interface row behind those ports.
func (m *Manager) BridgeDetails(ctx context.Context, hostName, name string) (*ovs.BridgeDetail, error) {
	out, err := m.run(ctx, hostName, "ovs-vsctl list bridge "+name)
	if err != nil {
		return nil, err
	}
	detail := ovs.ParseBridgeDetail(ovs.ParseRecord(out))

	portsOut, err := m.run(ctx, hostName, "ovs-vsctl list-ports "+name)
	if err != nil {
		return nil, err
	}
	for _, portName := range splitLines(portsOut) {
		out, err := m.run(ctx, hostName, "ovs-vsctl list port "+portName)
		if err != nil {
			return nil, err
		}
		rec := ovs.ParseRecord(out)
		port := ovs.ParsePortDetail(rec)
		port.Bridge = name

		// The port row only carries interface UUIDs.
		for _, ifaceUUID := range rec.Array("interfaces") {
			out, err := m.run(ctx, hostName, "ovs-vsctl list interface "+ifaceUUID)
			if err != nil {
				return nil, err
			}
			port.Interfaces = append(port.Interfaces, ovs.ParseInterfaceDetail(ovs.ParseRecord(out)))
		}
		detail.Ports = append(detail.Ports, port)
	}

	content, err := m.readInterfaces(ctx, hostName)
	if err != nil {
		return nil, err
	}
	detail.CIDR = ifaces.BridgeCIDRs(content)[name]
	return detail, nil
}

// FlushBridgeFDB clears a bridge's MAC learning table.
func (m *Manager) FlushBridgeFDB(ctx context.Context, hostName, bridge string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := "ovs-appctl fdb/flush " + bridge
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpBridgeFlushFDB, bridge, command, start, err)
	if err != nil {
		return fmt.Errorf("flushing FDB on %s: %w", bridge, err)
	}
	util.WithHost(hostName).Infof("Flushed FDB on bridge %s", bridge)
	return nil
}
