// Package manager orchestrates remote operations against managed Proxmox
// hosts: topology and port-mapping refreshes, bridge and port mutations,
// bonds, mirrors, flow export and diagnostics.
//
// The manager owns one Runner per connected host, dialing lazily on first
// use. Parsing stays in pkg/ovs and pkg/guest; config-file edits stay in
// pkg/ifaces. This package runs the commands, feeds the output through
// those transforms, and writes the results to the snapshot store. Edits
// to /etc/network/interfaces run under the store's per-host lock.
package manager

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ovsman-net/ovsman/pkg/audit"
	"github.com/ovsman-net/ovsman/pkg/guest"
	"github.com/ovsman-net/ovsman/pkg/host"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/store"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// Store is the snapshot and lock surface the manager needs. *store.Store
// implements it; tests substitute an in-memory fake.
type Store interface {
	PutTopology(host string, topo *ovs.Topology) error
	GetTopology(host string) (*store.TopologySnapshot, error)
	PutPortMapping(host string, records []*guest.PortMappingRecord) error
	GetPortMapping(host string) (*store.PortMappingSnapshot, error)
	Lock(host string, ttlSeconds int) (release func() error, err error)
}

// Manager executes operations against the hosts in an inventory. Runners
// are shared across operations and closed together with the manager.
type Manager struct {
	inventory *host.Inventory
	store     Store
	user      string

	mu      sync.RWMutex
	runners map[string]host.Runner

	// dial creates the remote runner for a host. Tests replace it.
	dial func(cfg *host.Config) (host.Runner, error)
}

// New creates a manager over the given inventory and snapshot store.
func New(inv *host.Inventory, st Store) *Manager {
	return &Manager{
		inventory: inv,
		store:     st,
		user:      auditUser(),
		runners:   make(map[string]host.Runner),
		dial: func(cfg *host.Config) (host.Runner, error) {
			if err := cfg.EnsureCredentials(); err != nil {
				return nil, err
			}
			return host.DialSSH(cfg)
		},
	}
}

// auditUser builds the identity recorded on audit events: "user@hostname".
func auditUser() string {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	hostname := "unknown"
	if h, err := os.Hostname(); err == nil {
		hostname = h
	}
	return fmt.Sprintf("%s@%s", username, hostname)
}

// Hosts returns the configured host names in sorted order.
func (m *Manager) Hosts() []string {
	return m.inventory.Names()
}

// Host returns the inventory entry for a host.
func (m *Manager) Host(name string) (*host.Config, error) {
	return m.inventory.Lookup(name)
}

// runner returns the host's runner, dialing it on first use.
func (m *Manager) runner(hostName string) (host.Runner, error) {
	m.mu.RLock()
	r, ok := m.runners[hostName]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	cfg, err := m.inventory.Lookup(hostName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runners[hostName]; ok {
		return r, nil
	}
	r, err = m.dial(cfg)
	if err != nil {
		return nil, err
	}
	m.runners[hostName] = r
	util.WithHost(hostName).Info("Connected")
	return r, nil
}

// Disconnect closes the connection to one host if open.
func (m *Manager) Disconnect(hostName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runners[hostName]
	if !ok {
		return nil
	}
	delete(m.runners, hostName)
	if err := r.Close(); err != nil {
		return err
	}
	util.WithHost(hostName).Info("Disconnected")
	return nil
}

// Close closes every open host connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, r := range m.runners {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.runners, name)
	}
	return firstErr
}

// run executes command on the host and fails on any transport error or
// non-zero exit. Refresh and mutation steps go through it so a failed
// step surfaces instead of being masked as empty output.
func (m *Manager) run(ctx context.Context, hostName, command string) (string, error) {
	r, err := m.runner(hostName)
	if err != nil {
		return "", err
	}
	stdout, stderr, code, err := r.Run(ctx, command)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", util.NewRemoteError(hostName, command, code, stderr, nil)
	}
	return stdout, nil
}

// tryRun executes a best-effort command. Failures are logged, never
// returned; ifup after a bridge create is the typical caller.
func (m *Manager) tryRun(ctx context.Context, hostName, command string) {
	r, err := m.runner(hostName)
	if err != nil {
		util.WithHost(hostName).Warnf("%s: %v", command, err)
		return
	}
	_, stderr, code, err := r.Run(ctx, command)
	if err != nil {
		util.WithHost(hostName).Warnf("%s: %v", command, err)
		return
	}
	if code != 0 {
		util.WithHost(hostName).Warnf("%s exited %d: %s", command, code, strings.TrimSpace(stderr))
	}
}

// requireWritable rejects mutations against read-only hosts before any
// remote call is made.
func (m *Manager) requireWritable(hostName string) error {
	cfg, err := m.inventory.Lookup(hostName)
	if err != nil {
		return err
	}
	if cfg.ReadOnly {
		return fmt.Errorf("host %s: %w", hostName, util.ErrHostReadOnly)
	}
	return nil
}

// lockHost acquires the per-host mutation lock and returns its release.
// Config-file edits run under this exclusion.
func (m *Manager) lockHost(hostName string) (func(), error) {
	release, err := m.store.Lock(hostName, store.DefaultLockTTLSeconds)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			util.WithHost(hostName).Warnf("releasing host lock: %v", err)
		}
	}, nil
}

// record writes one audit event for a mutation outcome.
func (m *Manager) record(hostName, operation, target, command string, start time.Time, opErr error) {
	ev := audit.NewEvent(m.user, hostName, operation).
		WithTarget(target).
		WithCommand(command).
		WithDuration(time.Since(start))
	if opErr != nil {
		ev.WithError(opErr)
	} else {
		ev.WithSuccess()
	}
	if err := audit.Log(ev); err != nil {
		util.WithHost(hostName).Warnf("audit: recording %s: %v", operation, err)
	}
}

// setCommand builds one ovs-vsctl transaction setting properties on a row.
// Keys are emitted in sorted order so the command is deterministic.
func setCommand(table, name string, properties map[string]string) string {
	clauses := make([]string, 0, len(properties))
	for _, key := range sortedKeys(properties) {
		clauses = append(clauses, fmt.Sprintf("set %s %s %s=%s", table, name, key, properties[key]))
	}
	return "ovs-vsctl " + strings.Join(clauses, " -- ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// splitLines returns the non-empty trimmed lines of a command output.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
