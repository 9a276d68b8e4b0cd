package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store, err := NewStore(rdb, "bigstone-test", time.Hour)
	require.NoError(t, err)
	return store, mr
}

func TestNewStoreValidation(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()

	_, err := NewStore(rdb, "", time.Hour)
	assert.Error(t, err)
	_, err = NewStore(rdb, "x", 0)
	assert.Error(t, err)
}

func TestCreateLookupRevoke(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()
	alice := Identity{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	token, err := store.Create(ctx, alice)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("bigstone-test:session:"+token))
	assert.Equal(t, time.Hour, mr.TTL("bigstone-test:session:"+token))

	got, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice, *got)

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	// revoking twice is fine
	assert.NoError(t, store.Revoke(ctx, token))
}

func TestLookupExpired(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, Identity{ID: "u-1", Username: "alice"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	_, err = store.Lookup(ctx, "")
	assert.ErrorIs(t, err, types.ErrAuthRequired)
}

func TestCreateRequiresID(t *testing.T) {
	store, _ := setupTestStore(t)
	_, err := store.Create(context.Background(), Identity{Username: "nobody"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestResetTokenSingleUse(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	token, err := store.IssueResetToken(ctx, "u-7", 15*time.Minute)
	require.NoError(t, err)

	userID, err := store.ConsumeResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u-7", userID)

	_, err = store.ConsumeResetToken(ctx, token)
	assert.ErrorIs(t, err, types.ErrValidation)

	expiring, err := store.IssueResetToken(ctx, "u-7", time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = store.ConsumeResetToken(ctx, expiring)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSubscribeReceivesSessionEvents(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	token, err := store.Create(ctx, Identity{ID: "u-1", Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-sub.Events():
			got = append(got, ev)
		case err := <-sub.Errors():
			t.Fatalf("unexpected subscription error: %v", err)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d", len(got))
		}
	}

	assert.Equal(t, EventSignedIn, got[0].Type)
	assert.Equal(t, EventSignedOut, got[1].Type)
	assert.Equal(t, "alice", got[1].Username)
	assert.False(t, got[0].At.IsZero())
}

func TestSubscriptionCloseClosesChannels(t *testing.T) {
	store, _ := setupTestStore(t)

	sub, err := store.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{ID: "u-1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", id.UserID())

	var anon *Identity
	assert.Equal(t, "", anon.UserID())

	_, ok = FromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)
}

func TestWatchDeliversUntilCancelled(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(ev Event) { got <- ev }, nil)
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(store.eventsChannel())[store.eventsChannel()] > 0
	}, 2*time.Second, 10*time.Millisecond)

	_, err := store.Create(ctx, Identity{ID: "u-2", Username: "bob"})
	require.NoError(t, err)

	select {
	case ev := <-got:
		assert.Equal(t, EventSignedIn, ev.Type)
		assert.Equal(t, "u-2", ev.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return")
	}
}
