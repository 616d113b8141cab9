package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	s, err := Connect(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	var out []string
	assert.False(t, s.Get(ctx, "k", &out))
	assert.NoError(t, s.Set(ctx, "k", []string{"a"}, time.Minute))
	assert.NoError(t, s.Del(ctx, "k"))
	assert.NoError(t, s.Close())

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
	assert.NoError(t, nilStore.Forget(ctx, "k"))
}

func TestRememberWithoutRedisAlwaysLoads(t *testing.T) {
	s := New(nil)
	calls := 0
	load := func(dest *[]int) func() error {
		return func() error {
			calls++
			*dest = []int{1, 2}
			return nil
		}
	}

	for i := 0; i < 2; i++ {
		var got []int
		require.NoError(t, s.Remember(context.Background(), "nums", time.Minute, &got, load(&got)))
		assert.Equal(t, []int{1, 2}, got)
	}
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	var got []int
	assert.ErrorIs(t, s.Remember(context.Background(), "nums", time.Minute, &got, func() error { return boom }), boom)
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := Connect(ctx, "127.0.0.1:1", "")
	assert.Error(t, err)
	assert.False(t, s.Enabled())
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, addr, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := "diner:test:" + t.Name()
	require.NoError(t, s.Set(ctx, key, map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	assert.True(t, s.Get(ctx, key, &got))
	assert.Equal(t, 1, got["a"])

	require.NoError(t, s.Forget(ctx, key))
	assert.False(t, s.Get(ctx, key, &got))
}
