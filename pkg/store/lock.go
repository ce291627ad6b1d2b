package store

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ovsman-net/ovsman/pkg/util"
)

// DefaultLockTTLSeconds bounds how long a crashed run can keep a host locked.
const DefaultLockTTLSeconds = 120

// acquireLockScript is a Lua script for atomic lock acquisition.
// Returns 1 on success, 0 if already locked by another holder.
var acquireLockScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
	return 0
end
redis.call("HSET", key, "holder", ARGV[1], "acquired", ARGV[2], "ttl", ARGV[3])
redis.call("EXPIRE", key, tonumber(ARGV[3]))
return 1
`)

// releaseLockScript is a Lua script for atomic lock release with holder
// verification. Returns 1 on success, 0 if holder mismatch, -1 if the key
// doesn't exist.
var releaseLockScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
	return -1
end
local current = redis.call("HGET", key, "holder")
if current ~= ARGV[1] then
	return 0
end
redis.call("DEL", key)
return 1
`)

// LockInfo describes the current holder of a host mutation lock.
type LockInfo struct {
	Holder   string `json:"holder"`
	Acquired string `json:"acquired"`
	TTL      string `json:"ttl"`
}

// AcquireLock acquires the mutation lock for a host. The lock is stored as
// OVSMAN_LOCK|<host> with holder, acquired time, and TTL.
// Returns util.ErrHostLocked if the host is already locked by another holder.
func (s *Store) AcquireLock(host, holder string, ttlSeconds int) error {
	key := fmt.Sprintf("OVSMAN_LOCK|%s", host)
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := acquireLockScript.Run(s.ctx, s.client, []string{key},
		holder, now, fmt.Sprintf("%d", ttlSeconds)).Int()
	if err != nil {
		return fmt.Errorf("acquiring lock for %s: %w", host, err)
	}
	if result == 0 {
		return util.ErrHostLocked
	}
	return nil
}

// ReleaseLock releases the mutation lock for a host.
// Returns an error if the holder does not match the current lock holder.
func (s *Store) ReleaseLock(host, holder string) error {
	key := fmt.Sprintf("OVSMAN_LOCK|%s", host)

	result, err := releaseLockScript.Run(s.ctx, s.client, []string{key}, holder).Int()
	if err != nil {
		return fmt.Errorf("releasing lock for %s: %w", host, err)
	}
	switch result {
	case 0:
		return fmt.Errorf("lock holder mismatch for %s", host)
	case -1:
		return nil // Lock expired or never held, treat as success
	}
	return nil
}

// Lock acquires the mutation lock for a host under a fresh holder token and
// returns the matching release function.
func (s *Store) Lock(host string, ttlSeconds int) (release func() error, err error) {
	holder := uuid.NewString()
	if err := s.AcquireLock(host, holder, ttlSeconds); err != nil {
		return nil, err
	}
	return func() error { return s.ReleaseLock(host, holder) }, nil
}

// GetLock reports the current lock on a host.
// Returns nil (not error) if the host is unlocked.
func (s *Store) GetLock(host string) (*LockInfo, error) {
	key := fmt.Sprintf("OVSMAN_LOCK|%s", host)
	vals, err := s.client.HGetAll(s.ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading lock for %s: %w", host, err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return &LockInfo{
		Holder:   vals["holder"],
		Acquired: vals["acquired"],
		TTL:      vals["ttl"],
	}, nil
}
