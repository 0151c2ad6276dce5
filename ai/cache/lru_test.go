package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_Defaults(t *testing.T) {
	c := NewLRUCache[string, int](0, 0)
	assert.Equal(t, 1000, c.Capacity())
	assert.Equal(t, 5*time.Minute, c.defaultTTL)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache[string, string](10, time.Minute)

	c.SetWithDefaultTTL("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("a", "2", 0)
	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Size())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Expiration(t *testing.T) {
	var reasons []EvictReason
	c := NewLRUCache[string, int](10, time.Minute,
		WithEvictCallback(func(_ string, _ int, r EvictReason) { reasons = append(reasons, r) }))

	c.Set("short", 1, 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, []EvictReason{EvictExpired}, reasons)
}

func TestLRUCache_SlidingExpiration(t *testing.T) {
	c := NewLRUCache[string, int](10, time.Minute, WithSlidingExpiration[string, int]())

	c.Set("idle", 1, 80*time.Millisecond)
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		_, ok := c.Get("idle")
		require.True(t, ok, "hit %d should refresh the deadline", i)
	}

	time.Sleep(120 * time.Millisecond)
	_, ok := c.Get("idle")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	var evictedKeys []string
	c := NewLRUCache[string, int](2, time.Minute,
		WithEvictCallback(func(k string, _ int, r EvictReason) {
			assert.Equal(t, EvictCapacity, r)
			evictedKeys = append(evictedKeys, k)
		}))

	c.SetWithDefaultTTL("a", 1)
	c.SetWithDefaultTTL("b", 2)
	_, _ = c.Get("a") // a becomes most recent
	c.SetWithDefaultTTL("c", 3)

	assert.Equal(t, []string{"b"}, evictedKeys)
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Remove(t *testing.T) {
	var got EvictReason = -1
	c := NewLRUCache[string, int](10, time.Minute,
		WithEvictCallback(func(_ string, _ int, r EvictReason) { got = r }))

	c.SetWithDefaultTTL("a", 1)
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, EvictRemoved, got)
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	c := NewLRUCache[string, int](10, time.Minute)
	c.Set("a", 1, 10*time.Millisecond)
	c.Set("b", 2, 10*time.Millisecond)
	c.Set("c", 3, time.Minute)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_CallbackMayReenter(t *testing.T) {
	var c *LRUCache[string, int]
	c = NewLRUCache[string, int](1, time.Minute,
		WithEvictCallback(func(_ string, _ int, _ EvictReason) { _ = c.Size() }))

	c.SetWithDefaultTTL("a", 1)
	c.SetWithDefaultTTL("b", 2)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_ThreadSafety(t *testing.T) {
	c := NewLRUCache[string, int](50, time.Minute, WithSlidingExpiration[string, int]())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.SetWithDefaultTTL(key, i)
				_, _ = c.Get(key)
				if i%50 == 0 {
					c.CleanupExpired()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 50)
}

func TestEvictReason_String(t *testing.T) {
	assert.Equal(t, "capacity", EvictCapacity.String())
	assert.Equal(t, "expired", EvictExpired.String())
	assert.Equal(t, "removed", EvictRemoved.String())
	assert.Equal(t, "unknown", EvictReason(7).String())
}

func BenchmarkLRUCache_SetAndEvict(b *testing.B) {
	c := NewLRUCache[int, int](100, time.Minute)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetWithDefaultTTL(i, i)
	}
}
