package ovs

// ParseBridgeDetail decodes a `list bridge <name>` record. Ports and
// Mirrors are left empty; the caller fills them from separate lookups.
func ParseBridgeDetail(rec Record) *BridgeDetail {
	return &BridgeDetail{
		UUID:                rec.Text("_uuid"),
		Name:                rec.Text("name"),
		FailMode:            rec.Text("fail_mode"),
		DatapathType:        rec.Text("datapath_type"),
		DatapathID:          rec.Text("datapath_id"),
		Protocols:           rec.Array("protocols"),
		Controller:          rec.Text("controller"),
		STPEnable:           rec.Bool("stp_enable"),
		RSTPEnable:          rec.Bool("rstp_enable"),
		McastSnoopingEnable: rec.Bool("mcast_snooping_enable"),
	}
}

// ParsePortDetail decodes a `list port <name>` record. Interfaces are left
// empty; the record only carries interface UUIDs, which the caller resolves.
func ParsePortDetail(rec Record) *PortDetail {
	d := &PortDetail{
		UUID:     rec.Text("_uuid"),
		Name:     rec.Text("name"),
		Trunks:   rec.IntArray("trunks"),
		VLANMode: rec.Text("vlan_mode"),
		BondMode: rec.Text("bond_mode"),
		LACP:     rec.Text("lacp"),
	}
	if tag, ok := rec.Int("tag"); ok {
		d.Tag = &tag
	}
	if v, ok := rec.Int("bond_updelay"); ok {
		d.BondUpdelay = v
	}
	if v, ok := rec.Int("bond_downdelay"); ok {
		d.BondDowndelay = v
	}
	return d
}

// ParseInterfaceDetail decodes a `list interface` record. An empty reported
// type falls back by name prefix, the same rule the topology builder uses.
func ParseInterfaceDetail(rec Record) *InterfaceDetail {
	name := rec.Text("name")
	t := rec.Text("type")
	if t == "" {
		t = fallbackType(name)
	}
	d := &InterfaceDetail{
		Name:       name,
		Type:       t,
		MAC:        rec.Text("mac_in_use"),
		AdminState: rec.Text("admin_state"),
		LinkState:  rec.Text("link_state"),
	}
	if mtu, ok := rec.Int("mtu"); ok {
		d.MTU = mtu
	}
	if opts := rec.Set("options"); len(opts) > 0 {
		d.Options = opts
	}
	return d
}
