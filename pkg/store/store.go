// Package store caches host snapshots and mediates mutation locks in Redis.
//
// Snapshots are full-replacement JSON documents: one SET per refresh, one
// GET per read, no partial updates. A missing snapshot is a normal condition
// for read paths (callers fall back to a live refresh); Redis being
// unreachable during a mutation is not.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ovsman-net/ovsman/pkg/guest"
	"github.com/ovsman-net/ovsman/pkg/ovs"
	"github.com/ovsman-net/ovsman/pkg/util"
)

// TopologySnapshot is the cached topology of one host with its capture time.
type TopologySnapshot struct {
	Host        string        `json:"host"`
	LastUpdated time.Time     `json:"last_updated"`
	Topology    *ovs.Topology `json:"topology"`
}

// PortMappingSnapshot is the cached workload port mapping of one host.
type PortMappingSnapshot struct {
	Host        string                     `json:"host"`
	LastUpdated time.Time                  `json:"last_updated"`
	Records     []*guest.PortMappingRecord `json:"records"`
}

// Store wraps a Redis client for snapshot and lock access.
type Store struct {
	client *redis.Client
	ctx    context.Context
}

// New creates a store client for the given Redis address.
func New(addr string) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		ctx: context.Background(),
	}
}

// Connect tests the connection.
func (s *Store) Connect() error {
	return s.client.Ping(s.ctx).Err()
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// PutTopology replaces the cached topology for a host. The snapshot is
// stamped with the current UTC time.
func (s *Store) PutTopology(host string, topo *ovs.Topology) error {
	snap := &TopologySnapshot{
		Host:        host,
		LastUpdated: time.Now().UTC(),
		Topology:    topo,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding topology snapshot for %s: %w", host, err)
	}
	key := fmt.Sprintf("OVSMAN_TOPOLOGY|%s", host)
	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing topology snapshot for %s: %w", host, err)
	}
	return nil
}

// GetTopology reads the cached topology for a host.
// Returns util.ErrNoSnapshot if the host has never been refreshed.
func (s *Store) GetTopology(host string) (*TopologySnapshot, error) {
	key := fmt.Sprintf("OVSMAN_TOPOLOGY|%s", host)
	data, err := s.client.Get(s.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("topology for %s: %w", host, util.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("reading topology snapshot for %s: %w", host, err)
	}
	var snap TopologySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding topology snapshot for %s: %w", host, err)
	}
	return &snap, nil
}

// PutPortMapping replaces the cached port mapping for a host.
func (s *Store) PutPortMapping(host string, records []*guest.PortMappingRecord) error {
	snap := &PortMappingSnapshot{
		Host:        host,
		LastUpdated: time.Now().UTC(),
		Records:     records,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding port mapping snapshot for %s: %w", host, err)
	}
	key := fmt.Sprintf("OVSMAN_PORTMAP|%s", host)
	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing port mapping snapshot for %s: %w", host, err)
	}
	return nil
}

// GetPortMapping reads the cached port mapping for a host.
// Returns util.ErrNoSnapshot if the host has never been refreshed.
func (s *Store) GetPortMapping(host string) (*PortMappingSnapshot, error) {
	key := fmt.Sprintf("OVSMAN_PORTMAP|%s", host)
	data, err := s.client.Get(s.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("port mapping for %s: %w", host, util.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("reading port mapping snapshot for %s: %w", host, err)
	}
	var snap PortMappingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding port mapping snapshot for %s: %w", host, err)
	}
	return &snap, nil
}
