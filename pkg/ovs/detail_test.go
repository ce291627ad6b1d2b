package ovs

import (
	"reflect"
	"testing"
)

func TestParseBridgeDetail(t *testing.T) {
	rec := ParseRecord(`_uuid               : 11111111-1111-1111-1111-111111111111
name                : vmbr0
fail_mode           : secure
datapath_type       : ""
datapath_id         : "0000aabbccddeeff"
protocols           : []
stp_enable          : true
rstp_enable         : false
mcast_snooping_enable: false
`)
	d := ParseBridgeDetail(rec)
	if d.Name != "vmbr0" || d.UUID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("identity = %q/%q", d.Name, d.UUID)
	}
	if d.FailMode != "secure" {
		t.Errorf("FailMode = %q", d.FailMode)
	}
	if d.DatapathID != "0000aabbccddeeff" {
		t.Errorf("DatapathID = %q", d.DatapathID)
	}
	if !d.STPEnable || d.RSTPEnable {
		t.Errorf("stp/rstp = %v/%v", d.STPEnable, d.RSTPEnable)
	}
	if len(d.Protocols) != 0 {
		t.Errorf("Protocols = %v, want empty", d.Protocols)
	}
}

func TestParsePortDetail(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, d *PortDetail)
	}{
		{
			name: "access port",
			text: `_uuid               : 33333333-3333-3333-3333-333333333333
name                : tap101i0
tag                 : 100
trunks              : []
vlan_mode           : access
bond_mode           : []
lacp                : []
`,
			check: func(t *testing.T, d *PortDetail) {
				if d.Tag == nil || *d.Tag != 100 {
					t.Errorf("Tag = %v, want 100", d.Tag)
				}
				if d.Trunks != nil {
					t.Errorf("Trunks = %v, want nil", d.Trunks)
				}
				if d.VLANMode != "access" {
					t.Errorf("VLANMode = %q", d.VLANMode)
				}
				if d.BondMode != "" || d.LACP != "" {
					t.Errorf("bond fields = %q/%q, want unset", d.BondMode, d.LACP)
				}
			},
		},
		{
			name: "trunk port",
			text: `name                : uplink0
tag                 : []
trunks              : [100, 200, 300]
vlan_mode           : trunk
`,
			check: func(t *testing.T, d *PortDetail) {
				if d.Tag != nil {
					t.Errorf("Tag = %v, want nil for unset column", d.Tag)
				}
				if !reflect.DeepEqual(d.Trunks, []int{100, 200, 300}) {
					t.Errorf("Trunks = %v", d.Trunks)
				}
			},
		},
		{
			name: "bond port",
			text: `name                : bond0
bond_mode           : balance-tcp
lacp                : active
bond_updelay        : 200
bond_downdelay      : 100
`,
			check: func(t *testing.T, d *PortDetail) {
				if d.BondMode != "balance-tcp" || d.LACP != "active" {
					t.Errorf("bond = %q lacp %q", d.BondMode, d.LACP)
				}
				if d.BondUpdelay != 200 || d.BondDowndelay != 100 {
					t.Errorf("delays = %d/%d", d.BondUpdelay, d.BondDowndelay)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ParsePortDetail(ParseRecord(tt.text)))
		})
	}
}

func TestParseInterfaceDetail(t *testing.T) {
	rec := ParseRecord(`name                : "vx0"
type                : vxlan
mac_in_use          : "aa:bb:cc:dd:ee:ff"
mtu                 : 1450
admin_state         : up
link_state          : up
options             : {key=flow, remote_ip="172.16.0.9"}
`)
	d := ParseInterfaceDetail(rec)
	if d.Name != "vx0" || d.Type != "vxlan" {
		t.Errorf("identity = %q/%q", d.Name, d.Type)
	}
	if d.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("MAC = %q", d.MAC)
	}
	if d.MTU != 1450 {
		t.Errorf("MTU = %d", d.MTU)
	}
	if d.Options["remote_ip"] != "172.16.0.9" {
		t.Errorf("Options = %v", d.Options)
	}
}

func TestParseInterfaceDetail_EmptyTypeFallback(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"name : tap101i0\ntype : \"\"\n", "tap"},
		{"name : veth106i0\ntype : \"\"\n", "veth"},
		{"name : eth1\ntype : \"\"\n", "system"},
	}
	for _, tt := range tests {
		d := ParseInterfaceDetail(ParseRecord(tt.text))
		if d.Type != tt.want {
			t.Errorf("type for %q = %q, want %q", d.Name, d.Type, tt.want)
		}
	}
}

func TestParseInterfaceDetail_UnsetColumns(t *testing.T) {
	rec := ParseRecord(`name                : eth1
type                : ""
mac_in_use          : []
mtu                 : []
admin_state         : []
link_state          : []
options             : {}
`)
	d := ParseInterfaceDetail(rec)
	if d.MAC != "" || d.AdminState != "" || d.LinkState != "" {
		t.Errorf("unset columns leaked: %q/%q/%q", d.MAC, d.AdminState, d.LinkState)
	}
	if d.MTU != 0 {
		t.Errorf("MTU = %d, want 0", d.MTU)
	}
	if d.Options != nil {
		t.Errorf("Options = %v, want nil for empty map", d.Options)
	}
}
