// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/srxprov/srxprov/pkg/inventory"
	"github.com/srxprov/srxprov/pkg/provision"
)

// SampleIntent returns a valid intent used across tests.
func SampleIntent() provision.ConfigIntent {
	return provision.ConfigIntent{
		InterfaceName:    "ge-0/0/1",
		InterfaceAddress: "192.168.10.1/24",
		SecurityZone:     "trust",
	}
}

// SimInventory returns an inventory containing a single simulated device
// named "sim1" with no step delay, suitable for fast deterministic tests.
func SimInventory(t *testing.T) *inventory.Inventory {
	t.Helper()

	inv, err := inventory.New([]*inventory.Device{
		{Name: "sim1", Simulated: true, Seed: 1, StepDelayMS: 1},
	})
	if err != nil {
		t.Fatalf("building inventory: %v", err)
	}
	return inv
}

// WriteFile writes content to a file under t.TempDir() and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// Context returns a context that respects the test deadline.
func Context(t *testing.T) context.Context {
	t.Helper()

	deadline, ok := t.Deadline()
	if !ok {
		return context.Background()
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Add(-time.Second))
	t.Cleanup(cancel)
	return ctx
}

// RedisAddr returns the address of a test Redis, or "" if none is configured.
func RedisAddr() string {
	return os.Getenv("SRXPROV_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test unless a test Redis is configured and reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set SRXPROV_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}
