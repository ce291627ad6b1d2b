//go:build e2e

// Package e2e_test exercises the full stack against a live Proxmox host:
// real SSH, real ovs-vsctl output, real Redis snapshots. The suite is
// opt-in through the environment:
//
//	OVSMAN_E2E_HOST       name of the target host in the inventory
//	OVSMAN_E2E_INVENTORY  inventory file listing that host
//	OVSMAN_E2E_WRITE=1    additionally run the mutating tests
//
// Mutating tests confine themselves to resources named e2e* and remove
// them again, but they briefly edit /etc/network/interfaces on the host.
// Point the suite at a lab host, never production.
package e2e_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/ovsman-net/ovsman/internal/testutil"
	"github.com/ovsman-net/ovsman/pkg/host"
	"github.com/ovsman-net/ovsman/pkg/manager"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/store"
)

// Names the mutating tests create and delete. Each test cleans up its own
// leftovers, including those of an earlier failed run.
const (
	e2eBridge = "e2ebr0"
	e2ePort   = "e2ep0"
	e2eMirror = "e2espan"
)

func TestMain(m *testing.M) {
	if name := os.Getenv("OVSMAN_E2E_HOST"); name != "" {
		fmt.Fprintf(os.Stderr, "e2e suite targeting host %s\n", name)
	}
	os.Exit(m.Run())
}

// targetHost returns the host under test, skipping when the suite is not
// configured.
func targetHost(t *testing.T) string {
	t.Helper()
	name := os.Getenv("OVSMAN_E2E_HOST")
	if name == "" {
		t.Skip("no e2e host: set OVSMAN_E2E_HOST and OVSMAN_E2E_INVENTORY")
	}
	return name
}

// requireWrite gates the mutating tests.
func requireWrite(t *testing.T) {
	t.Helper()
	if os.Getenv("OVSMAN_E2E_WRITE") != "1" {
		t.Skip("mutating tests disabled: set OVSMAN_E2E_WRITE=1 against a lab host")
	}
}

// newManager builds a manager over the e2e inventory and the test Redis
// instance. The inventory entry must carry its credentials; a password
// prompt would hang the suite.
func newManager(t *testing.T) *manager.Manager {
	t.Helper()
	testutil.SkipIfNoRedis(t)

	inv, err := host.LoadInventory(testutil.MustEnv(t, "OVSMAN_E2E_INVENTORY"))
	if err != nil {
		t.Fatalf("loading inventory: %v", err)
	}
	st := store.New(testutil.RedisAddr())
	mgr := manager.New(inv, st)
	t.Cleanup(func() {
		mgr.Close()
		st.Close()
	})
	return mgr
}

// firstBridge returns one existing bridge from the live topology. Its
// internal interface shares the bridge name, which the stats and trace
// tests rely on.
func firstBridge(t *testing.T, mgr *manager.Manager, hostName string) string {
	t.Helper()
	topo, err := mgr.InspectTopology(testutil.Context(t), hostName)
	if err != nil {
		t.Fatalf("InspectTopology: %v", err)
	}
	if len(topo.Bridges) == 0 {
		t.Skip("host has no bridges")
	}
	return topo.Bridges[0].Name
}

// bridgePort fetches one port's record from a bridge, failing the test
// when the port is not attached.
func bridgePort(t *testing.T, mgr *manager.Manager, hostName, bridge, port string) *ovs.PortDetail {
	t.Helper()
	detail, err := mgr.BridgeDetails(testutil.Context(t), hostName, bridge)
	if err != nil {
		t.Fatalf("BridgeDetails: %v", err)
	}
	for _, p := range detail.Ports {
		if p.Name == port {
			return p
		}
	}
	t.Fatalf("port %s not on bridge %s", port, bridge)
	return nil
}

// scratchBridge creates the e2e bridge, removing leftovers first and
// registering its deletion. Tests that mutate ports, mirrors or flow
// export run on this bridge so production bridges stay untouched.
func scratchBridge(t *testing.T, mgr *manager.Manager, hostName string) {
	t.Helper()
	ctx := testutil.Context(t)

	// Best effort: a leftover bridge from a failed run must not fail this one.
	mgr.DeleteBridge(ctx, hostName, e2eBridge)

	err := mgr.CreateBridge(ctx, hostName, manager.CreateBridgeRequest{
		Name:    e2eBridge,
		Comment: "ovsman e2e scratch bridge",
	})
	if err != nil {
		t.Fatalf("CreateBridge %s: %v", e2eBridge, err)
	}
	t.Cleanup(func() {
		if err := mgr.DeleteBridge(testutil.Context(t), hostName, e2eBridge); err != nil {
			t.Errorf("cleanup: DeleteBridge %s: %v", e2eBridge, err)
		}
	})
}
