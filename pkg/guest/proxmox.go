package guest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseVMList parses `qm list` output. The header row is skipped and rows
// whose id column is not numeric are ignored.
func ParseVMList(text string) []*VM {
	var vms []*VM
	for _, line := range listRows(text) {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		vmid, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		status := "unknown"
		if len(parts) > 2 {
			status = parts[2]
		}
		vms = append(vms, &VM{
			VMID:       vmid,
			Name:       parts[1],
			Status:     status,
			Interfaces: []*GuestInterface{},
		})
	}
	return vms
}

// ParseContainerList parses `pct list` output. The lock column prints "-"
// placeholders which are dropped from the name; a row without a name falls
// back to CT<id>.
func ParseContainerList(text string) []*Container {
	var containers []*Container
	for _, line := range listRows(text) {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		ctid, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		var nameParts []string
		for _, p := range parts[2:] {
			if p != "-" {
				nameParts = append(nameParts, p)
			}
		}
		name := strings.Join(nameParts, " ")
		if name == "" {
			name = fmt.Sprintf("CT%d", ctid)
		}
		containers = append(containers, &Container{
			CTID:       ctid,
			Name:       name,
			Status:     parts[1],
			Interfaces: []*GuestInterface{},
		})
	}
	return containers
}

func listRows(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) <= 1 {
		return nil
	}
	return lines[1:]
}

// NIC line strategies. Proxmox prints guest NICs in several shapes, so each
// dump is matched against an ordered strategy list and the first strategy
// that matches anything wins for the whole dump.

type vmNICStrategy struct {
	re *regexp.Regexp
	// fields maps a submatch to (index, mac, bridge); mac may be empty.
	fields func(m []string) (string, string, string)
}

var vmNICStrategies = []vmNICStrategy{
	// netN: virtio=...,bridge=vmbr0 or any model key before bridge.
	{
		re:     regexp.MustCompile(`(?im)^net(\d+):\s+.*?bridge=([^,\s]+)`),
		fields: func(m []string) (string, string, string) { return m[1], "", m[2] },
	},
	// Strict model=MAC,bridge=... pairing.
	{
		re:     regexp.MustCompile(`(?im)^net(\d+):\s+\w+=([A-F0-9:]{17}),bridge=([^,]+)`),
		fields: func(m []string) (string, string, string) { return m[1], m[2], m[3] },
	},
	// mac= somewhere on the line before bridge.
	{
		re:     regexp.MustCompile(`(?im)^net(\d+):\s+[^,]*mac=([A-F0-9:]{17})[^,]*bridge=([^,]+)`),
		fields: func(m []string) (string, string, string) { return m[1], m[2], m[3] },
	},
}

var (
	nicLineRE  = regexp.MustCompile(`(?m)^net(\d+):\s*(.*)$`)
	validMACRE = regexp.MustCompile(`(?i)^[A-F0-9:]{17}$`)
	macScanRE  = regexp.MustCompile(`(?i)(?:mac=|virtio=|e1000=|[a-z]+\d*=)([A-F0-9:]{17})`)
)

// ParseVMConfig reads the netN lines of a `qm config <vmid>` dump. When the
// winning strategy does not capture a MAC, the NIC's own line is rescanned
// for a model=MAC token. Duplicate netN entries keep the first occurrence.
func ParseVMConfig(vmid int, text string) []*GuestInterface {
	// Line bodies by index, for MAC backfill.
	bodies := map[string]string{}
	for _, m := range nicLineRE.FindAllStringSubmatch(text, -1) {
		if _, seen := bodies[m[1]]; !seen {
			bodies[m[1]] = m[2]
		}
	}

	var interfaces []*GuestInterface
	seen := map[string]bool{}
	for _, strategy := range vmNICStrategies {
		matches := strategy.re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			netid, mac, bridge := strategy.fields(m)
			if !validMACRE.MatchString(mac) {
				mac = ""
				if body, ok := bodies[netid]; ok {
					if bm := macScanRE.FindStringSubmatch(body); bm != nil {
						mac = bm[1]
					}
				}
			}
			tap := fmt.Sprintf("tap%di%s", vmid, netid)
			if seen[tap] {
				continue
			}
			seen[tap] = true
			index, _ := strconv.Atoi(netid)
			interfaces = append(interfaces, &GuestInterface{
				Index:  index,
				Netid:  "net" + netid,
				Tap:    tap,
				MAC:    mac,
				Bridge: strings.TrimSpace(bridge),
			})
		}
		break
	}
	return interfaces
}

type containerNICStrategy struct {
	re *regexp.Regexp
	// fields maps a submatch to (index, bridge, mac); mac may be empty.
	fields func(m []string) (string, string, string)
}

var containerNICStrategies = []containerNICStrategy{
	// netN: name=eth0,bridge=vmbr0[,...,hwaddr=AA:...]
	{
		re: regexp.MustCompile(`(?m)^net(\d+):\s+name=([^,]+),bridge=([^,]+)(?:.*?,hwaddr=([^,\s]+))?`),
		fields: func(m []string) (string, string, string) {
			return m[1], m[3], m[4]
		},
	},
	// netN: bridge=vmbr0 with nothing else usable.
	{
		re: regexp.MustCompile(`(?m)^net(\d+):\s+bridge=([^,]+)`),
		fields: func(m []string) (string, string, string) {
			return m[1], m[2], ""
		},
	},
	// netN: <token>,bridge=vmbr0 where the leading token is not a name.
	{
		re: regexp.MustCompile(`(?m)^net(\d+):\s+([^,]+),bridge=([^,]+)`),
		fields: func(m []string) (string, string, string) {
			return m[1], m[3], ""
		},
	},
}

// ParseContainerConfig reads the netN lines of a `pct config <ctid>` dump.
// Duplicate indexes keep the first occurrence.
func ParseContainerConfig(ctid int, text string) []*GuestInterface {
	var interfaces []*GuestInterface
	seen := map[int]bool{}
	for _, strategy := range containerNICStrategies {
		matches := strategy.re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			netid, bridge, mac := strategy.fields(m)
			index, err := strconv.Atoi(netid)
			if err != nil || seen[index] {
				continue
			}
			seen[index] = true
			interfaces = append(interfaces, &GuestInterface{
				Index:  index,
				Netid:  "net" + netid,
				Tap:    fmt.Sprintf("veth%di%s", ctid, netid),
				MAC:    strings.TrimSpace(mac),
				Bridge: strings.TrimSpace(bridge),
			})
		}
		break
	}
	return interfaces
}
