package ovs

import (
	"reflect"
	"testing"
)

const showFixture = `0e7654d0-3265-47fb-8b68-871829d16f89
    Bridge vmbr0
        Port vmbr0
            Interface vmbr0
                type: internal
        Port tap101i0
            Interface tap101i0
        Port bond0
            Interface eth1
            Interface eth2
    Bridge "vmbr1"
        fail_mode: secure
        Port "vmbr1"
            Interface "vmbr1"
                type: internal
        Port veth106i0
            Interface veth106i0
    ovs_version: "3.1.0"
`

func TestParseShowTree(t *testing.T) {
	bridges := ParseShowTree(showFixture)
	if len(bridges) != 2 {
		t.Fatalf("parsed %d bridges, want 2", len(bridges))
	}

	vmbr0 := bridges[0]
	if vmbr0.Name != "vmbr0" {
		t.Errorf("bridges[0].Name = %q", vmbr0.Name)
	}
	if len(vmbr0.Ports) != 3 {
		t.Fatalf("vmbr0 has %d ports, want 3", len(vmbr0.Ports))
	}
	wantPorts := []string{"vmbr0", "tap101i0", "bond0"}
	for i, want := range wantPorts {
		if vmbr0.Ports[i].Name != want {
			t.Errorf("vmbr0.Ports[%d].Name = %q, want %q", i, vmbr0.Ports[i].Name, want)
		}
	}
	if got := vmbr0.Ports[2].Interfaces; !reflect.DeepEqual(got, []string{"eth1", "eth2"}) {
		t.Errorf("bond0 interfaces = %v", got)
	}

	vmbr1 := bridges[1]
	if vmbr1.Name != "vmbr1" {
		t.Errorf("bridges[1].Name = %q, want quoted name stripped", vmbr1.Name)
	}
	if len(vmbr1.Ports) != 2 {
		t.Fatalf("vmbr1 has %d ports, want 2", len(vmbr1.Ports))
	}
	if got := vmbr1.Ports[1].Interfaces; !reflect.DeepEqual(got, []string{"veth106i0"}) {
		t.Errorf("veth106i0 interfaces = %v", got)
	}
}

func TestParseShowTree_OrphanLines(t *testing.T) {
	// Port and Interface lines with no open parent must not invent blocks.
	text := `Port stray0
Interface stray1
    Bridge vmbr0
        Interface stray2
        Port vmbr0
            Interface vmbr0
`
	bridges := ParseShowTree(text)
	if len(bridges) != 1 {
		t.Fatalf("parsed %d bridges, want 1", len(bridges))
	}
	if len(bridges[0].Ports) != 1 {
		t.Fatalf("vmbr0 has %d ports, want 1", len(bridges[0].Ports))
	}
	if got := bridges[0].Ports[0].Interfaces; !reflect.DeepEqual(got, []string{"vmbr0"}) {
		t.Errorf("vmbr0 interfaces = %v", got)
	}
}

func TestParseShowTree_PortResetsAcrossBridges(t *testing.T) {
	// An Interface line directly under a new bridge must not attach to the
	// previous bridge's last port.
	text := `Bridge br0
    Port p0
        Interface p0
Bridge br1
    Interface ghost
    Port p1
        Interface p1
`
	bridges := ParseShowTree(text)
	if len(bridges) != 2 {
		t.Fatalf("parsed %d bridges, want 2", len(bridges))
	}
	if got := bridges[0].Ports[0].Interfaces; !reflect.DeepEqual(got, []string{"p0"}) {
		t.Errorf("br0/p0 interfaces = %v, ghost mis-attributed", got)
	}
	if got := bridges[1].Ports[0].Interfaces; !reflect.DeepEqual(got, []string{"p1"}) {
		t.Errorf("br1/p1 interfaces = %v", got)
	}
}

func TestPortBridges(t *testing.T) {
	got := PortBridges(ParseShowTree(showFixture))
	want := map[string]string{
		"vmbr0":     "vmbr0",
		"tap101i0":  "vmbr0",
		"bond0":     "vmbr0",
		"vmbr1":     "vmbr1",
		"veth106i0": "vmbr1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PortBridges = %v, want %v", got, want)
	}
}
