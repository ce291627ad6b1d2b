package ovs

import (
	"strconv"
	"strings"
)

// ParseBondSlaves reads `ovs-appctl bond/show <bond>` output into the
// member list. A member line looks like `slave eth1: enabled`; an indented
// `active slave` marker after a member names the active one. Also returns
// the active member when the output identifies it.
func ParseBondSlaves(text string) ([]BondSlave, string) {
	var slaves []BondSlave
	var active string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "active slave" && len(slaves) > 0 {
			active = slaves[len(slaves)-1].Name
			continue
		}
		if !strings.HasPrefix(trimmed, "slave ") {
			continue
		}
		name, status, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(strings.TrimPrefix(name, "slave "))
		status = strings.TrimSpace(status)
		slaves = append(slaves, BondSlave{Name: name, Status: status})
		if strings.Contains(strings.ToLower(status), "active") {
			active = name
		}
	}
	return slaves, active
}

// ParseLACPStatus reads `ovs-appctl lacp/show <bond>` output. Every
// key/value line lands in Details with a lower-cased key; the actor and
// partner keys and the negotiation status are lifted out when present.
func ParseLACPStatus(bond, text string) *LACPStatus {
	details := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		details[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	st := &LACPStatus{
		Bond:    bond,
		Status:  details["status"],
		Details: details,
	}
	if st.Status == "" {
		st.Status = "unknown"
	}
	if n, err := strconv.Atoi(details["actor key"]); err == nil {
		st.ActorKey = n
	}
	if n, err := strconv.Atoi(details["partner key"]); err == nil {
		st.PartnerKey = n
	}
	return st
}
