package ifaces

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ifaceLineRE = regexp.MustCompile(`(?i)iface\s+(\w+)\s+inet\s+\w+`)
	addressRE   = regexp.MustCompile(`(?i)address\s+(\d+\.\d+\.\d+\.\d+)/(\d+)`)
)

// RemoveStanza returns content with the named bridge's block removed: the
// auto and iface lines, the indented body, at most one trailing single-#
// comment, and one blank line of padding on each side. Everything else is
// preserved byte for byte, so removing a stanza AppendStanza just added
// restores the prior content exactly. Content without a matching block
// comes back unchanged.
func RemoveStanza(content, name string) string {
	for {
		next, found := removeFirstStanza(content, name)
		if !found {
			return content
		}
		content = next
	}
}

func removeFirstStanza(content, name string) (string, bool) {
	lines := strings.SplitAfter(content, "\n")
	autoLine := "auto " + name
	ifacePrefix := "iface " + name + " "

	start := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == autoLine || strings.HasPrefix(t, ifacePrefix) {
			start = i
			break
		}
	}
	if start < 0 {
		return content, false
	}

	// Walk the block body. Blank runs need lookahead: they stay in the
	// block when indented lines, another iface line for this bridge, or
	// the trailing comment follow. A single-# comment ends the block;
	// ## section headers do not belong to it.
	end := start + 1
scan:
	for end < len(lines) {
		line := lines[end]
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t"):
			end++
		case t == autoLine || strings.HasPrefix(t, ifacePrefix):
			end++
		case t == "":
			peek := end
			for peek < len(lines) && strings.TrimSpace(lines[peek]) == "" {
				peek++
			}
			if peek >= len(lines) {
				break scan
			}
			peeked := lines[peek]
			pt := strings.TrimSpace(peeked)
			switch {
			case strings.HasPrefix(peeked, " ") || strings.HasPrefix(peeked, "\t"),
				pt == autoLine, strings.HasPrefix(pt, ifacePrefix):
				end = peek
			case strings.HasPrefix(pt, "#") && !strings.HasPrefix(pt, "##"):
				end = peek + 1
				break scan
			default:
				break scan
			}
		case strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "##"):
			end++
			break scan
		default:
			break scan
		}
	}

	bs := 0
	for _, line := range lines[:start] {
		bs += len(line)
	}
	be := bs
	for _, line := range lines[start:end] {
		be += len(line)
	}

	// One blank line of trailing padding belongs to the stanza.
	if be < len(content) && content[be] == '\n' {
		be++
	}

	// Leading padding: consume up to two newlines, but never the one
	// terminating a preceding line unless the stanza was the last thing
	// in the file.
	run := 0
	for bs-run-1 >= 0 && content[bs-run-1] == '\n' {
		run++
	}
	allowed := run - 1
	if be >= len(content) {
		allowed = run
	}
	if allowed > 2 {
		allowed = 2
	}
	if allowed > 0 {
		bs -= allowed
	}

	return content[:bs] + content[be:], true
}

// DefaultGatewayInterface returns the name of the interface whose stanza
// carries a gateway line, or "" when none does. Proxmox hosts must not
// have more than one default gateway.
func DefaultGatewayInterface(content string) string {
	current := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "iface ") {
			if fields := strings.Fields(line); len(fields) >= 2 {
				current = fields[1]
			}
		}
		if strings.HasPrefix(line, "gateway ") && current != "" {
			return current
		}
	}
	return ""
}

// BridgeCIDRs maps interface names to the network CIDR taken from the
// address line in their stanza. The host address is truncated to the
// network for /8, /16 and /24 prefixes; other prefixes pass through
// as address/prefix.
func BridgeCIDRs(content string) map[string]string {
	cidrs := make(map[string]string)
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := ifaceLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]

		limit := i + 15
		if limit > len(lines) {
			limit = len(lines)
		}
		for j := i + 1; j < limit; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || strings.HasPrefix(next, "#") {
				continue
			}
			if strings.HasPrefix(next, "iface ") || strings.HasPrefix(next, "auto ") {
				break
			}
			am := addressRE.FindStringSubmatch(next)
			if am == nil {
				continue
			}
			cidrs[name] = networkCIDR(am[1], am[2])
			break
		}
	}

	return cidrs
}

func networkCIDR(ip, prefix string) string {
	octets := strings.Split(ip, ".")
	switch n, _ := strconv.Atoi(prefix); n {
	case 24:
		return octets[0] + "." + octets[1] + "." + octets[2] + ".0/" + prefix
	case 16:
		return octets[0] + "." + octets[1] + ".0.0/" + prefix
	case 8:
		return octets[0] + ".0.0.0/" + prefix
	default:
		return ip + "/" + prefix
	}
}
