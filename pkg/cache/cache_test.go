package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetAndGet(t *testing.T) {
	c := New[string, float64](time.Second, 0, 10)
	defer c.Stop()

	c.Set("berlin", 52.52)
	v, ok := c.Get("berlin")
	require.True(t, ok)
	assert.Equal(t, 52.52, v)

	_, ok = c.Get("paris")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTTLCache_Expiration(t *testing.T) {
	c := New[string, string](50*time.Millisecond, 10*time.Millisecond, 10)
	defer c.Stop()

	c.Set("temp", "data")
	c.SetWithTTL("forever", "data", 0)
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("temp")
	assert.False(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_Eviction(t *testing.T) {
	c := New[string, int](time.Second, 0, 2)
	defer c.Stop()

	c.SetWithTTL("a", 1, time.Second)
	c.SetWithTTL("b", 2, 2*time.Second)
	c.SetWithTTL("c", 3, 3*time.Second)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "entry closest to expiry is evicted")
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestTTLCache_DeleteAndClear(t *testing.T) {
	c := New[int, string](time.Minute, 0, 0)
	c.Set(1, "one")
	c.Set(2, "two")

	c.Delete(1)
	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Stop()
	c.Stop()
}

func TestTTLCache_Concurrent(t *testing.T) {
	c := New[int, int](time.Minute, time.Millisecond, 50)
	defer c.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(base*100+j, j)
				c.Get(base*100 + j)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
