//go:build e2e

package e2e_test

import (
	"net"
	"regexp"
	"testing"

	"github.com/ovsman-net/ovsman/internal/testutil"
)

var netidRE = regexp.MustCompile(`^net\d+$`)

func TestE2E_PortMappingRefresh(t *testing.T) {
	name := targetHost(t)
	mgr := newManager(t)
	ctx := testutil.Context(t)

	records, err := mgr.RefreshPortMapping(ctx, name)
	if err != nil {
		t.Fatalf("RefreshPortMapping: %v", err)
	}

	for _, rec := range records {
		if rec.PortName == "" {
			t.Error("record with empty port name")
			continue
		}
		if rec.BridgeName == "" {
			t.Errorf("port %s: no bridge", rec.PortName)
		}
		if rec.Netid != "" && !netidRE.MatchString(rec.Netid) {
			t.Errorf("port %s: netid = %q", rec.PortName, rec.Netid)
		}
		if rec.MAC != "" {
			if _, err := net.ParseMAC(rec.MAC); err != nil {
				t.Errorf("port %s: MAC %q: %v", rec.PortName, rec.MAC, err)
			}
		}
		if rec.VMID != nil && rec.ContainerID != nil {
			t.Errorf("port %s: claims both a VM and a container", rec.PortName)
		}
	}

	snap, err := mgr.PortMapping(ctx, name)
	if err != nil {
		t.Fatalf("PortMapping: %v", err)
	}
	if snap.Host != name {
		t.Errorf("snapshot host = %q, want %q", snap.Host, name)
	}
	if len(snap.Records) != len(records) {
		t.Errorf("snapshot has %d records, refresh returned %d",
			len(snap.Records), len(records))
	}
}

// Every mapped port must exist in the switch topology; both views come
// from the same ovs-vsctl state, so a quiet host keeps them consistent.
func TestE2E_MappingAgreesWithTopology(t *testing.T) {
	name := targetHost(t)
	mgr := newManager(t)
	ctx := testutil.Context(t)

	topo, err := mgr.InspectTopology(ctx, name)
	if err != nil {
		t.Fatalf("InspectTopology: %v", err)
	}
	records, err := mgr.InspectPortMapping(ctx, name)
	if err != nil {
		t.Fatalf("InspectPortMapping: %v", err)
	}

	known := map[string]bool{}
	for _, bridge := range topo.Bridges {
		for _, port := range bridge.Ports {
			known[port.Name] = true
		}
	}
	for _, rec := range records {
		if !known[rec.PortName] {
			t.Errorf("mapping lists port %s missing from the topology", rec.PortName)
		}
	}
}
