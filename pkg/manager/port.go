package manager

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// AddPort attaches a port to a bridge. A non-system type becomes a set
// clause on the interface row, as do any type-specific options.
func (m *Manager) AddPort(ctx context.Context, hostName, bridge, port, portType string, options map[string]string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := fmt.Sprintf("ovs-vsctl add-port %s %s", bridge, port)
	if portType != "" && portType != "system" {
		command += fmt.Sprintf(" -- set interface %s type=%s", port, portType)
	}
	for _, key := range sortedKeys(options) {
		command += fmt.Sprintf(" -- set interface %s options:%s=%s", port, key, options[key])
	}

	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpPortAdd, port, command, start, err)
	if err != nil {
		return fmt.Errorf("adding port %s to %s: %w", port, bridge, err)
	}
	util.WithHost(hostName).Infof("Added port %s to bridge %s", port, bridge)
	return nil
}

// DeletePort detaches a port from a bridge.
func (m *Manager) DeletePort(ctx context.Context, hostName, bridge, port string) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := fmt.Sprintf("ovs-vsctl del-port %s %s", bridge, port)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpPortDelete, port, command, start, err)
	if err != nil {
		return fmt.Errorf("deleting port %s from %s: %w", port, bridge, err)
	}
	util.WithHost(hostName).Infof("Deleted port %s from bridge %s", port, bridge)
	return nil
}

// UpdatePort sets arbitrary properties on a port row. An empty property
// set is a no-op.
func (m *Manager) UpdatePort(ctx context.Context, hostName, port string, properties map[string]string) error {
	if len(properties) == 0 {
		return nil
	}
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	command := setCommand("port", port, properties)
	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpPortUpdate, port, command, start, err)
	if err != nil {
		return fmt.Errorf("updating port %s: %w", port, err)
	}
	util.WithHost(hostName).Infof("Updated port %s", port)
	return nil
}

// SetPortVLAN configures a port's VLAN membership. Access and native
// modes take a tag; trunk mode ignores it (use SetPortTrunks for the
// allowed VLAN list).
func (m *Manager) SetPortVLAN(ctx context.Context, hostName, port, mode string, tag int) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	var command string
	switch mode {
	case "access":
		if err := validVLAN(tag); err != nil {
			return err
		}
		command = fmt.Sprintf("ovs-vsctl set port %s tag=%d vlan_mode=access", port, tag)
	case "trunk":
		command = fmt.Sprintf("ovs-vsctl set port %s vlan_mode=trunk", port)
	case "native-tagged", "native-untagged":
		if err := validVLAN(tag); err != nil {
			return err
		}
		command = fmt.Sprintf("ovs-vsctl set port %s tag=%d vlan_mode=%s", port, tag, mode)
	default:
		return util.NewValidationError(fmt.Sprintf(
			"invalid VLAN mode %q: must be access, trunk, native-tagged or native-untagged", mode))
	}

	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpPortVLAN, port, command, start, err)
	if err != nil {
		return fmt.Errorf("setting VLAN on port %s: %w", port, err)
	}
	util.WithHost(hostName).Infof("Set VLAN mode %s on port %s", mode, port)
	return nil
}

// SetPortTrunks sets the allowed VLAN list on a trunk port. An empty
// list clears the trunks column.
func (m *Manager) SetPortTrunks(ctx context.Context, hostName, port string, vlans []int) error {
	start := time.Now()
	if err := m.requireWritable(hostName); err != nil {
		return err
	}

	value := "[]"
	if len(vlans) > 0 {
		parts := make([]string, len(vlans))
		for i, v := range vlans {
			if err := validVLAN(v); err != nil {
				return err
			}
			parts[i] = strconv.Itoa(v)
		}
		value = strings.Join(parts, ",")
	}
	command := fmt.Sprintf("ovs-vsctl set port %s trunks=%s", port, value)

	_, err := m.run(ctx, hostName, command)
	m.record(hostName, audit.OpPortVLAN, port, command, start, err)
	if err != nil {
		return fmt.Errorf("setting trunks on port %s: %w", port, err)
	}
	util.WithHost(hostName).Infof("Set trunks on port %s", port)
	return nil
}

func validVLAN(tag int) error {
	if tag < 1 || tag > 4094 {
		return util.NewValidationError(fmt.Sprintf("VLAN ID %d out of range 1-4094", tag))
	}
	return nil
}

var linkLineRE = regexp.MustCompile(`^\d+:\s+([^:@\s]+)`)

// ListAvailableInterfaces returns host interface names that could be
// attached to a bridge. Loopback is excluded; the @peer suffix on veth
// pairs is stripped.
func (m *Manager) ListAvailableInterfaces(ctx context.Context, hostName string) ([]string, error) {
	out, err := m.run(ctx, hostName, "ip link show")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		match := linkLineRE.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if match[1] == "lo" {
			continue
		}
		names = append(names, match[1])
	}
	return names, nil
}
