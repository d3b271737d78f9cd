package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionState(t *testing.T) {
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	s := New("abc", now)

	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsPinPending())
	assert.False(t, s.InFeedback())

	s.PendingCustomerID = "CUST001"
	s.PINAttempts = 2
	s.Feedback = &FeedbackState{Step: StepAwaitingRating, StartedAt: now}
	assert.True(t, s.IsPinPending())
	assert.True(t, s.InFeedback())

	s.Reset()
	assert.Equal(t, "abc", s.Key)
	assert.Empty(t, s.PendingCustomerID)
	assert.Empty(t, s.AuthenticatedCustomerID)
	assert.Zero(t, s.PINAttempts)
	assert.Nil(t, s.Feedback)
}

func TestSessionClone(t *testing.T) {
	s := New("abc", time.Now())
	s.Feedback = &FeedbackState{Step: StepAwaitingComments, Rating: 4}

	c := s.Clone()
	c.Feedback.Rating = 1
	c.PINAttempts = 3

	assert.Equal(t, 4, s.Feedback.Rating)
	assert.Zero(t, s.PINAttempts)
	assert.Nil(t, (*Session)(nil).Clone())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "missing session is not an error")

	s := New("k1", time.Now())
	s.PendingCustomerID = "CUST001"
	require.NoError(t, store.Put(ctx, s))

	// Mutating the caller's copy must not leak into the store
	s.PendingCustomerID = "CUST002"

	got, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CUST001", got.PendingCustomerID)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "k1"))
	require.NoError(t, store.Delete(ctx, "k1"))
	got, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Put(ctx, New("k2", time.Now())), ErrStoreClosed)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10 * time.Minute)

	old := New("old", base)
	fresh := New("fresh", base.Add(15*time.Minute))
	require.NoError(t, store.Put(ctx, old))
	require.NoError(t, store.Put(ctx, fresh))

	removed := store.Sweep(base.Add(20 * time.Minute))
	assert.Equal(t, 1, removed)

	got, _ := store.Get(ctx, "old")
	assert.Nil(t, got)
	got, _ = store.Get(ctx, "fresh")
	assert.NotNil(t, got)

	assert.Zero(t, NewMemoryStore(0).Sweep(base.Add(time.Hour)), "zero idle timeout disables expiry")
}

func TestMemoryStoreJanitorStops(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(StoreTypeRedis)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewStore("etcd")
	assert.ErrorIs(t, err, ErrInvalidStoreType)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	s, err = NewStore(StoreTypeRedis, WithRedisClient(client), WithKeyPrefix("t:"), WithIdleTimeout(time.Minute))
	require.NoError(t, err)
	rs, ok := s.(*RedisStore)
	require.True(t, ok)
	assert.Equal(t, "t:abc", rs.key("abc"))
	assert.Equal(t, time.Minute, rs.ttl)
	_ = s.Close()
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(100 * time.Microsecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, km.Len(), "idle keys are released")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	acquired := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
	unlockA()
}

// TestRedisStore runs against a live server when ASSISTANT_TEST_REDIS_ADDR is set
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ASSISTANT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ASSISTANT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStore(client, "assistant:test:", time.Minute)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	key := "redis-" + time.Now().Format("150405.000000")
	s := New(key, time.Now().UTC())
	s.AuthenticatedCustomerID = "CUST001"
	s.Feedback = &FeedbackState{Step: StepAwaitingComments, Rating: 5}

	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CUST001", got.AuthenticatedCustomerID)
	assert.Equal(t, 5, got.Feedback.Rating)

	ttl, err := client.TTL(ctx, "assistant:test:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, key))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
