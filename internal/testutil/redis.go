//go:build integration || e2e

package testutil

import (
	"context"
	"encoding/json"
	"testing"
)

// ReadDocument reads a raw JSON document from the store database and
// unmarshals it into out.
func ReadDocument(t *testing.T, key string, out interface{}) {
	t.Helper()

	client := RedisClient(t)
	data, err := client.Get(context.Background(), key).Bytes()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decoding %s: %v", key, err)
	}
}

// WriteDocument marshals v and writes it as a JSON document in the store
// database.
func WriteDocument(t *testing.T, key string, v interface{}) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encoding %s: %v", key, err)
	}
	client := RedisClient(t)
	if err := client.Set(context.Background(), key, data, 0).Err(); err != nil {
		t.Fatalf("writing %s: %v", key, err)
	}
}

// KeyExists checks whether a key exists in the store database.
func KeyExists(t *testing.T, key string) bool {
	t.Helper()

	client := RedisClient(t)
	n, err := client.Exists(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("checking existence of %s: %v", key, err)
	}
	return n > 0
}

// DeleteKey removes a key from the store database.
func DeleteKey(t *testing.T, key string) {
	t.Helper()

	client := RedisClient(t)
	if err := client.Del(context.Background(), key).Err(); err != nil {
		t.Fatalf("deleting %s: %v", key, err)
	}
}

// ReadHash reads a hash entry (such as a host lock) from the store database.
// Returns an empty map if the key does not exist.
func ReadHash(t *testing.T, key string) map[string]string {
	t.Helper()

	client := RedisClient(t)
	vals, err := client.HGetAll(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	return vals
}
