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

var (
	bondModes = map[string]bool{
		"active-backup": true,
		"balance-slb":   true,
		"balance-tcp":   true,
	}
	lacpModes = map[string]bool{
		"active":  true,
		"passive": true,
		"off":     true,
	}
)

// CreateBondRequest describes a new link aggregate. Mode and LACP fall
// back to active-backup and off when empty.
type CreateBondRequest struct {
	Bridge string
	Name   string
	Slaves []string
	Mode   string
	LACP   string
}

// Validate fills defaults and rejects impossible bonds.
func (r *CreateBondRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = "active-backup"
	}
	if r.LACP == "" {
		r.LACP = "off"
	}

	v := &util.ValidationBuilder{}
	v.Add(r.Bridge != "", "bridge is required")
	v.Add(r.Name != "", "bond name is required")
	if len(r.Slaves) < 2 {
		v.AddErrorf("bond needs at least 2 member interfaces, got %d", len(r.Slaves))
	}
	if !bondModes[r.Mode] {
		v.AddErrorf("invalid bond mode %q: must be active-backup, balance-slb or balance-tcp", r.Mode)
	}
	if !lacpModes[r.LACP] {
		v.AddErrorf("invalid lacp mode %q: must be active, passive or off", r.LACP)
	}
	return v.Build()
}

// CreateBond aggregates member interfaces into one bond port.
func (m *Manager) CreateBond(ctx context.Context, hostName string, req CreateBondRequest) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	command := fmt.Sprintf("ovs-vsctl add-bond %s %s %s bond_mode=%s lacp=%s",
		req.Bridge, req.Name, strings.Join(req.Slaves, " "), req.Mode, req.LACP)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpBondCreate, req.Name, command, start, err)
	if err != nil {
		return fmt.Errorf("creating bond %s on %s: %w", req.Name, req.Bridge, err)
	}
	util.WithHost(hostName).Infof("Created bond %s on bridge %s", req.Name, req.Bridge)
	return nil
}

// UpdateBond sets properties on a bond. Bonds are ports, so this is the
// port update path under a different name.
func (m *Manager) UpdateBond(ctx context.Context, hostName, bond string, properties map[string]string) error {
	return m.UpdatePort(ctx, hostName, bond, properties)
}

// BondStatus reports a bond's mode and the state of each member. The
// port row is authoritative for mode and lacp; bond/show supplies the
// member list and is tolerated failing (members stay empty).
func (m *Manager) BondStatus(ctx context.Context, hostName, bond string) (*ovs.BondStatus, error) {
	out, err := m.run(ctx, hostName, "ovs-vsctl list port "+bond)
	if err != nil {
		return nil, err
	}
	rec := ovs.ParseRecord(out)

	status := &ovs.BondStatus{
		Name: bond,
		Mode: rec.Text("bond_mode"),
		LACP: rec.Text("lacp"),
	}
	if status.Mode == "" {
		status.Mode = "unknown"
	}
	if status.LACP == "" {
		status.LACP = "off"
	}

	showOut, err := m.run(ctx, hostName, "ovs-appctl bond/show "+bond)
	if err != nil {
		util.WithHost(hostName).Warnf("bond/show %s: %v", bond, err)
		return status, nil
	}
	status.Slaves, status.ActiveSlave = ovs.ParseBondSlaves(showOut)
	return status, nil
}

// LACPStatus reports LACP negotiation state for a bond.
func (m *Manager) LACPStatus(ctx context.Context, hostName, bond string) (*ovs.LACPStatus, error) {
	out, err := m.run(ctx, hostName, "ovs-appctl lacp/show "+bond)
	if err != nil {
		return nil, err
	}
	return ovs.ParseLACPStatus(bond, out), nil
}

// SetBondSlave enables or disables one member of a bond.
func (m *Manager) SetBondSlave(ctx context.Context, hostName, bond, slave string, enabled bool) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	action := "disable"
	if enabled {
		action = "enable"
	}
	command := fmt.Sprintf("ovs-appctl bond/%s-slave %s %s", action, bond, slave)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpBondSlave, bond+"/"+slave, command, start, err)
	if err != nil {
		return fmt.Errorf("%s bond slave %s: %w", action, slave, err)
	}
	util.WithHost(hostName).Infof("Bond %s slave %s %sd", bond, slave, action)
	return nil
}
