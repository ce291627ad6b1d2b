package ovs

import (
	"reflect"
	"testing"
)

const typeListFixture = `name                : vmbr0
type                : internal

name                : tap101i0
type                : ""

name                : veth106i0
type                : ""

name                : eth1
type                : ""

name                : vx0
type                : vxlan
`

func TestParseInterfaceTypes(t *testing.T) {
	got := ParseInterfaceTypes(typeListFixture)
	want := map[string]string{
		"vmbr0":     "internal",
		"tap101i0":  "tap",
		"veth106i0": "veth",
		"eth1":      "system",
		"vx0":       "vxlan",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseInterfaceTypes = %v, want %v", got, want)
	}
}

const bridgeListFixture = `_uuid               : 11111111-1111-1111-1111-111111111111
datapath_id         : "0000aabbccddeeff"
mirrors             : []
name                : vmbr0
stp_enable          : false

_uuid               : 22222222-2222-2222-2222-222222222222
mirrors             : [aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff]
name                : vmbr1
stp_enable          : false
`

const portListFixture = `_uuid               : 33333333-3333-3333-3333-333333333333
name                : vmbr0
tag                 : []

_uuid               : 44444444-4444-4444-4444-444444444444
name                : tap101i0
tag                 : []

_uuid               : 55555555-5555-5555-5555-555555555555
name                : vmbr1

_uuid               : 66666666-6666-6666-6666-666666666666
name                : veth106i0
`

const mirrorListFixture = `_uuid               : aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff
external_ids        : {}
name                : span1
output_port         : 44444444-4444-4444-4444-444444444444
output_vlan         : []
select_all          : false
select_dst_port     : [66666666-6666-6666-6666-666666666666]
select_src_port     : [66666666-6666-6666-6666-666666666666]
statistics          : {tx_bytes=0, tx_packets=0}
`

const topoShowFixture = `    Bridge vmbr0
        Port vmbr0
            Interface vmbr0
        Port tap101i0
            Interface tap101i0
    Bridge vmbr1
        Port vmbr1
            Interface vmbr1
        Port veth106i0
            Interface veth106i0
    ovs_version: "3.1.0"
`

func TestBuildTopology(t *testing.T) {
	topo := BuildTopology(RawTopology{
		Show:       topoShowFixture,
		BridgeList: bridgeListFixture,
		PortList:   portListFixture,
		MirrorList: mirrorListFixture,
		TypeList:   typeListFixture,
	})

	if len(topo.Bridges) != 2 {
		t.Fatalf("built %d bridges, want 2", len(topo.Bridges))
	}

	vmbr0 := topo.Bridges[0]
	if vmbr0.UUID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("vmbr0.UUID = %q", vmbr0.UUID)
	}
	if len(vmbr0.Ports) != 2 {
		t.Fatalf("vmbr0 has %d ports, want 2", len(vmbr0.Ports))
	}
	if got := vmbr0.Ports[0].Type; got != "internal" {
		t.Errorf("vmbr0 port type = %q, want internal", got)
	}
	tap := vmbr0.Ports[1]
	if tap.Type != "tap" {
		t.Errorf("tap101i0 type = %q, want tap (name-prefix fallback)", tap.Type)
	}
	if tap.UUID != "44444444-4444-4444-4444-444444444444" {
		t.Errorf("tap101i0 UUID = %q", tap.UUID)
	}
	if tap.Bridge != "vmbr0" {
		t.Errorf("tap101i0 bridge = %q", tap.Bridge)
	}

	// Mirror from the fixture is listed in vmbr1's bridge record, so tier-1
	// places it there even though its ports alone would agree.
	if len(topo.Mirrors) != 1 {
		t.Fatalf("built %d mirrors, want 1", len(topo.Mirrors))
	}
	m := topo.Mirrors[0]
	if m.Bridge != "vmbr1" {
		t.Errorf("mirror bridge = %q, want vmbr1", m.Bridge)
	}
	if m.Name != "span1" {
		t.Errorf("mirror name = %q", m.Name)
	}
	if m.OutputPort != "tap101i0" {
		t.Errorf("mirror output port = %q, want tap101i0", m.OutputPort)
	}
	if !reflect.DeepEqual(m.SelectSrcPort, []string{"veth106i0"}) {
		t.Errorf("mirror select src = %v", m.SelectSrcPort)
	}
	if len(topo.Bridges[1].Mirrors) != 1 {
		t.Errorf("vmbr1 carries %d mirrors, want 1", len(topo.Bridges[1].Mirrors))
	}
}

func TestBuildTopology_UnresolvedUUIDKeepsBridge(t *testing.T) {
	topo := BuildTopology(RawTopology{
		Show: "Bridge lonely\n    Port lonely\n        Interface lonely\n",
	})
	if len(topo.Bridges) != 1 {
		t.Fatalf("built %d bridges, want 1", len(topo.Bridges))
	}
	b := topo.Bridges[0]
	if b.UUID != "" {
		t.Errorf("UUID = %q, want empty when unresolved", b.UUID)
	}
	if got := b.Ports[0].Type; got != "unknown" {
		t.Errorf("port type = %q, want unknown without a type listing", got)
	}
}

func TestParseBridgeMirrors_Tier1WinsOverPorts(t *testing.T) {
	// Bridge list assigns the mirror to vmbr1; the mirror's own port
	// references resolve to vmbr0. Tier-1 must win.
	bridgeList := `_uuid               : 11111111-1111-1111-1111-111111111111
name                : vmbr0
mirrors             : []

_uuid               : 22222222-2222-2222-2222-222222222222
name                : vmbr1
mirrors             : [aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff]
`
	tier1 := ParseBridgeMirrors(bridgeList)
	if got := tier1["aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff"]; got != "vmbr1" {
		t.Fatalf("tier-1 bridge = %q, want vmbr1", got)
	}

	portNames := map[string]string{"77777777-7777-7777-7777-777777777777": "tap200i0"}
	portBridges := map[string]string{"tap200i0": "vmbr0"}
	mirrorList := `_uuid               : aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeffff
name                : span1
output_port         : 77777777-7777-7777-7777-777777777777
select_all          : true
`
	mirrors := ParseMirrors(mirrorList, portNames, portBridges, tier1)
	if len(mirrors) != 1 {
		t.Fatalf("parsed %d mirrors, want 1", len(mirrors))
	}
	if mirrors[0].Bridge != "vmbr1" {
		t.Errorf("mirror bridge = %q, want vmbr1 (tier-1 authoritative)", mirrors[0].Bridge)
	}
	if !mirrors[0].SelectAll {
		t.Error("SelectAll = false, want true")
	}
}

func TestParseMirrors_FallbackAndUnknown(t *testing.T) {
	portNames := map[string]string{
		"77777777-7777-7777-7777-777777777777": "tap200i0",
	}
	portBridges := map[string]string{"tap200i0": "vmbr0"}

	mirrorList := `_uuid               : bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb
name                : viaports
select_src_port     : [77777777-7777-7777-7777-777777777777]
output_port         : []

_uuid               : cccccccc-cccc-cccc-cccc-cccccccccccc
name                : adrift
select_src_port     : []
output_port         : []
`
	mirrors := ParseMirrors(mirrorList, portNames, portBridges, map[string]string{})
	if len(mirrors) != 2 {
		t.Fatalf("parsed %d mirrors, want 2", len(mirrors))
	}
	if mirrors[0].Bridge != "vmbr0" {
		t.Errorf("tier-2 bridge = %q, want vmbr0", mirrors[0].Bridge)
	}
	// Unplaceable mirrors are labeled, never dropped.
	if mirrors[1].Bridge != "unknown" {
		t.Errorf("unplaceable mirror bridge = %q, want unknown", mirrors[1].Bridge)
	}
}
