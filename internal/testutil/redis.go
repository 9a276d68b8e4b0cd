package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/redis/go-redis/v9"
)

// NewTestRedis starts a miniredis server and a client connected to it
func NewTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

// NewTestSessionStore returns a session store backed by miniredis
func NewTestSessionStore(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()

	rdb, mr := NewTestRedis(t)
	store, err := session.NewStore(rdb, "bigstone-test", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	return store, mr
}
