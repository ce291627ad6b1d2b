// Package ifaces reads and edits Debian /etc/network/interfaces content
// for OVS bridges. Everything here is a pure text transform; reading and
// writing the remote file is the manager's job.
package ifaces

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ovsman-net/ovsman/pkg/util"
)

// Proxmox naming rules: leading letter, then letters, digits and
// underscores. Hyphens are rejected.
var bridgeNameRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateBridgeName checks a bridge name against Proxmox naming rules.
func ValidateBridgeName(name string) error {
	if !bridgeNameRE.MatchString(name) {
		return util.NewValidationError(fmt.Sprintf(
			"invalid bridge name %q: must start with a letter and contain only letters, numbers and underscores", name))
	}
	return nil
}

// BridgeStanza describes one OVS bridge block in /etc/network/interfaces.
// Zero values render nothing: no MTU line for 0 or the default 1500, no
// address block without a CIDR.
type BridgeStanza struct {
	Name        string
	Autostart   bool
	IPv4CIDR    string
	IPv4Gateway string
	IPv6CIDR    string
	IPv6Gateway string
	Ports       string // space-separated ovs_ports value
	MTU         int
	Options     string // raw ovs_options value
	Comment     string
}

// Validate checks the stanza fields. The single-default-gateway rule
// needs the current file content and is checked separately with
// DefaultGatewayInterface.
func (s *BridgeStanza) Validate() error {
	v := &util.ValidationBuilder{}

	if !bridgeNameRE.MatchString(s.Name) {
		v.AddErrorf("invalid bridge name %q: must start with a letter and contain only letters, numbers and underscores", s.Name)
	}
	if s.IPv4CIDR != "" && !util.IsValidIPv4CIDR(s.IPv4CIDR) {
		v.AddErrorf("invalid IPv4 CIDR %q: expected address/prefix like 192.168.1.1/24", s.IPv4CIDR)
	}
	if s.IPv4Gateway != "" && !util.IsValidIPv4(s.IPv4Gateway) {
		v.AddErrorf("invalid IPv4 gateway %q", s.IPv4Gateway)
	}
	if s.IPv6CIDR != "" && !util.IsValidIPv6CIDR(s.IPv6CIDR) {
		v.AddErrorf("invalid IPv6 CIDR %q: expected address/prefix like fe80::1/64", s.IPv6CIDR)
	}
	if s.IPv6Gateway != "" && !util.IsValidIPv6(s.IPv6Gateway) {
		v.AddErrorf("invalid IPv6 gateway %q", s.IPv6Gateway)
	}
	if s.MTU != 0 && (s.MTU < 576 || s.MTU > 9000) {
		v.AddErrorf("invalid MTU %d: must be between 576 and 9000", s.MTU)
	}

	return v.Build()
}

// Format renders the stanza the way Proxmox writes its own blocks: auto
// line first, 8-space indentation, the comment after the block, and a
// blank line on each side.
func (s *BridgeStanza) Format() string {
	var lines []string

	if s.Autostart {
		lines = append(lines, "auto "+s.Name)
	}

	if s.IPv4CIDR != "" {
		lines = append(lines, fmt.Sprintf("iface %s inet static", s.Name))
		lines = append(lines, "        address "+s.IPv4CIDR)
		if s.IPv4Gateway != "" {
			lines = append(lines, "        gateway "+s.IPv4Gateway)
		}
	} else {
		lines = append(lines, fmt.Sprintf("iface %s inet manual", s.Name))
	}

	lines = append(lines, "        ovs_type OVSBridge")
	if s.Ports != "" {
		lines = append(lines, "        ovs_ports "+s.Ports)
	}
	if s.MTU != 0 && s.MTU != 1500 {
		lines = append(lines, fmt.Sprintf("        ovs_mtu %d", s.MTU))
	}
	if s.Options != "" {
		lines = append(lines, "        ovs_options "+s.Options)
	}

	if s.IPv6CIDR != "" {
		lines = append(lines, fmt.Sprintf("iface %s inet6 static", s.Name))
		lines = append(lines, "        address "+s.IPv6CIDR)
		if s.IPv6Gateway != "" {
			lines = append(lines, "        gateway "+s.IPv6Gateway)
		}
	}

	if s.Comment != "" {
		lines = append(lines, "#"+s.Comment)
	}

	return "\n\n" + strings.Join(lines, "\n") + "\n\n"
}

// AppendStanza appends the formatted stanza to content. Purely additive:
// RemoveStanza(AppendStanza(content, s), s.Name) restores content exactly.
func AppendStanza(content string, s *BridgeStanza) string {
	return content + s.Format()
}
