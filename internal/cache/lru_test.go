package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	c.Set("x", "1")
	c.Set("y", "2")
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set(Key("u1", "dashboard", 2024, 3), "a")
	c.Set(Key("u1", "analytics", 2024, 3), "b")
	c.Set(Key("u2", "dashboard", 2024, 3), "c")

	assert.Equal(t, 2, c.DeletePrefix(UserPrefix("u1")))
	_, ok := c.Get(Key("u2", "dashboard", 2024, 3))
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "u:abc:dashboard:2024-03", Key("abc", "dashboard", 2024, 3))
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](1, time.Nanosecond)
	m.Register(c)
	c.Set("a", 1)
	m.StartCleanup(time.Millisecond)
	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
}
