//go:build integration

package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ovsman-net/ovsman/internal/testutil"
	"github.com/ovsman-net/ovsman/pkg/guest"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/store"
	"github.com/ovsman-net/ovsman/pkg/util"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	testutil.SkipIfNoRedis(t)
	testutil.FlushStore(t)

	s := store.New(testutil.RedisAddr())
	t.Cleanup(func() { s.Close() })
	if err := s.Connect(); err != nil {
		t.Fatalf("connecting store: %v", err)
	}
	return s
}

func sampleTopology() *ovs.Topology {
	return &ovs.Topology{
		Bridges: []*ovs.Bridge{
			{
				UUID: "3ff39f2c-5962-4bd6-99a0-51e584a0d83c",
				Name: "vmbr0",
				CIDR: "192.168.1.0/24",
				Ports: []*ovs.Port{
					{
						Name: "vmbr0",
						Type: "internal",
						Interfaces: []*ovs.Interface{
							{Name: "vmbr0", Type: "internal"},
						},
					},
					{
						Name: "tap100i0",
						Type: "tap",
						Interfaces: []*ovs.Interface{
							{Name: "tap100i0"},
						},
					},
				},
			},
		},
	}
}

func TestTopologySnapshotRoundTrip(t *testing.T) {
	s := newStore(t)

	if err := s.PutTopology("pve1", sampleTopology()); err != nil {
		t.Fatalf("PutTopology failed: %v", err)
	}
	if !testutil.KeyExists(t, "OVSMAN_TOPOLOGY|pve1") {
		t.Fatal("OVSMAN_TOPOLOGY|pve1 not written")
	}

	snap, err := s.GetTopology("pve1")
	if err != nil {
		t.Fatalf("GetTopology failed: %v", err)
	}
	if snap.Host != "pve1" {
		t.Errorf("snapshot host = %q, want %q", snap.Host, "pve1")
	}
	if snap.LastUpdated.IsZero() {
		t.Error("snapshot LastUpdated is zero")
	}
	if time.Since(snap.LastUpdated) > time.Minute {
		t.Errorf("snapshot LastUpdated = %v, want recent", snap.LastUpdated)
	}
	if len(snap.Topology.Bridges) != 1 {
		t.Fatalf("expected 1 bridge, got %d", len(snap.Topology.Bridges))
	}
	br := snap.Topology.Bridges[0]
	if br.Name != "vmbr0" {
		t.Errorf("bridge name = %q, want %q", br.Name, "vmbr0")
	}
	if br.CIDR != "192.168.1.0/24" {
		t.Errorf("bridge cidr = %q, want %q", br.CIDR, "192.168.1.0/24")
	}
	if len(br.Ports) != 2 {
		t.Errorf("expected 2 ports, got %d", len(br.Ports))
	}
}

func TestGetTopology_Missing(t *testing.T) {
	s := newStore(t)

	_, err := s.GetTopology("never-refreshed")
	if !errors.Is(err, util.ErrNoSnapshot) {
		t.Errorf("GetTopology error = %v, want ErrNoSnapshot", err)
	}
}

func TestPutTopology_Replaces(t *testing.T) {
	s := newStore(t)

	if err := s.PutTopology("pve1", sampleTopology()); err != nil {
		t.Fatalf("first PutTopology failed: %v", err)
	}
	second := &ovs.Topology{
		Bridges: []*ovs.Bridge{
			{Name: "vmbr1", Ports: []*ovs.Port{}},
		},
	}
	if err := s.PutTopology("pve1", second); err != nil {
		t.Fatalf("second PutTopology failed: %v", err)
	}

	snap, err := s.GetTopology("pve1")
	if err != nil {
		t.Fatalf("GetTopology failed: %v", err)
	}
	if len(snap.Topology.Bridges) != 1 {
		t.Fatalf("expected 1 bridge after replacement, got %d", len(snap.Topology.Bridges))
	}
	if snap.Topology.Bridges[0].Name != "vmbr1" {
		t.Errorf("bridge name = %q, want %q", snap.Topology.Bridges[0].Name, "vmbr1")
	}
}

func TestPortMappingRoundTrip(t *testing.T) {
	s := newStore(t)

	vmid := 100
	ifid := 0
	records := []*guest.PortMappingRecord{
		{
			PortName:    "tap100i0",
			PortUUID:    "9d1bca45-6e2c-4c71-8a76-51a05e0ad3a1",
			BridgeName:  "vmbr0",
			VMID:        &vmid,
			VMName:      "web",
			InterfaceID: &ifid,
			Netid:       "net0",
			MAC:         "BC:24:11:AA:00:01",
		},
		{
			PortName:   "eth0",
			PortUUID:   "2f4a8c3e-91b0-4f5d-b6c7-d8e9f0a1b2c3",
			BridgeName: "vmbr0",
		},
	}

	if err := s.PutPortMapping("pve1", records); err != nil {
		t.Fatalf("PutPortMapping failed: %v", err)
	}

	snap, err := s.GetPortMapping("pve1")
	if err != nil {
		t.Fatalf("GetPortMapping failed: %v", err)
	}
	if snap.Host != "pve1" {
		t.Errorf("snapshot host = %q, want %q", snap.Host, "pve1")
	}
	if len(snap.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap.Records))
	}

	tap := snap.Records[0]
	if tap.VMID == nil || *tap.VMID != 100 {
		t.Errorf("tap100i0 vm_id = %v, want 100", tap.VMID)
	}
	if tap.InterfaceID == nil || *tap.InterfaceID != 0 {
		t.Errorf("tap100i0 interface_id = %v, want 0", tap.InterfaceID)
	}
	if tap.MAC != "BC:24:11:AA:00:01" {
		t.Errorf("tap100i0 mac = %q, want %q", tap.MAC, "BC:24:11:AA:00:01")
	}

	infra := snap.Records[1]
	if infra.VMID != nil {
		t.Errorf("eth0 vm_id = %v, want nil", infra.VMID)
	}
	if infra.ContainerID != nil {
		t.Errorf("eth0 container_id = %v, want nil", infra.ContainerID)
	}
	if infra.IsContainer {
		t.Error("eth0 is_container = true, want false")
	}
}

func TestGetPortMapping_Missing(t *testing.T) {
	s := newStore(t)

	_, err := s.GetPortMapping("never-refreshed")
	if !errors.Is(err, util.ErrNoSnapshot) {
		t.Errorf("GetPortMapping error = %v, want ErrNoSnapshot", err)
	}
}

func TestAcquireLock_Conflict(t *testing.T) {
	s := newStore(t)

	if err := s.AcquireLock("pve1", "holder-a", 30); err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	err := s.AcquireLock("pve1", "holder-b", 30)
	if !errors.Is(err, util.ErrHostLocked) {
		t.Errorf("second AcquireLock error = %v, want ErrHostLocked", err)
	}

	vals := testutil.ReadHash(t, "OVSMAN_LOCK|pve1")
	if vals["holder"] != "holder-a" {
		t.Errorf("lock holder = %q, want %q", vals["holder"], "holder-a")
	}
	if vals["ttl"] != "30" {
		t.Errorf("lock ttl = %q, want %q", vals["ttl"], "30")
	}
	if _, err := time.Parse(time.RFC3339, vals["acquired"]); err != nil {
		t.Errorf("lock acquired %q is not RFC3339: %v", vals["acquired"], err)
	}

	if err := s.ReleaseLock("pve1", "holder-a"); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	info, err := s.GetLock("pve1")
	if err != nil {
		t.Fatalf("GetLock failed: %v", err)
	}
	if info != nil {
		t.Errorf("lock after release = %+v, want nil", info)
	}
}

func TestReleaseLock_HolderMismatch(t *testing.T) {
	s := newStore(t)

	if err := s.AcquireLock("pve1", "holder-a", 30); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if err := s.ReleaseLock("pve1", "holder-b"); err == nil {
		t.Error("ReleaseLock with wrong holder succeeded, want error")
	}
	// The real holder can still release.
	if err := s.ReleaseLock("pve1", "holder-a"); err != nil {
		t.Errorf("ReleaseLock with real holder failed: %v", err)
	}
}

func TestReleaseLock_NotHeld(t *testing.T) {
	s := newStore(t)

	// Releasing an expired or never-held lock is not an error.
	if err := s.ReleaseLock("pve1", "holder-a"); err != nil {
		t.Errorf("ReleaseLock on unheld lock = %v, want nil", err)
	}
}

func TestLockExpiry(t *testing.T) {
	s := newStore(t)

	if err := s.AcquireLock("pve1", "holder-a", 1); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)

	if err := s.AcquireLock("pve1", "holder-b", 30); err != nil {
		t.Errorf("AcquireLock after expiry failed: %v", err)
	}
}

func TestLock_ReleaseFunc(t *testing.T) {
	s := newStore(t)

	release, err := s.Lock("pve1", 30)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	info, err := s.GetLock("pve1")
	if err != nil {
		t.Fatalf("GetLock failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected lock to be held")
	}
	if info.Holder == "" {
		t.Error("lock holder is empty, want generated token")
	}

	if _, err := s.Lock("pve1", 30); !errors.Is(err, util.ErrHostLocked) {
		t.Errorf("second Lock error = %v, want ErrHostLocked", err)
	}

	if err := release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	release2, err := s.Lock("pve1", 30)
	if err != nil {
		t.Fatalf("Lock after release failed: %v", err)
	}
	if err := release2(); err != nil {
		t.Fatalf("second release failed: %v", err)
	}
}
