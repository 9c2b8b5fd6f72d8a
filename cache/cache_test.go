package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/shelfscrape/models"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestCache_GetRespectsMaxAge(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(10, clock.now)

	key := Key("https://s.test/p/1")
	c.Set(key, models.ScrapeResult{Title: "Lamp"})

	got, hit := c.Get(key, 1000)
	assert.True(t, hit)
	assert.Equal(t, "Lamp", got.Title)

	clock.t = clock.t.Add(2 * time.Second)
	_, hit = c.Get(key, 1000)
	assert.False(t, hit)

	_, hit = c.Get(key, 0)
	assert.False(t, hit, "max age 0 disables lookups")
}

func TestCache_Miss(t *testing.T) {
	c := newCache(10, time.Now)
	_, hit := c.Get(Key("https://s.test/none"), 60_000)
	assert.False(t, hit)
}

func TestCache_BoundedSize(t *testing.T) {
	c := newCache(2, time.Now)
	c.Set(Key("a"), models.ScrapeResult{})
	c.Set(Key("b"), models.ScrapeResult{})
	c.Set(Key("c"), models.ScrapeResult{})
	assert.Equal(t, 2, c.Len())

	c.Set(Key("c"), models.ScrapeResult{Title: "again"})
	assert.Equal(t, 2, c.Len(), "overwriting must not evict")
}

func TestCache_EvictBefore(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(10, clock.now)

	c.Set(Key("old"), models.ScrapeResult{})
	clock.t = clock.t.Add(2 * time.Hour)
	c.Set(Key("new"), models.ScrapeResult{})

	c.evictBefore(clock.t.Add(-time.Hour))
	assert.Equal(t, 1, c.Len())
}

func TestKey_TrimsAndDistinguishes(t *testing.T) {
	assert.Equal(t, Key("https://s.test/a"), Key(" https://s.test/a "))
	assert.NotEqual(t, Key("https://s.test/a"), Key("https://s.test/b"))
}

func TestCache_CleanupLoopStopsWithContext(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(10, clock.now)
	c.Set(Key("https://s.test/old"), models.ScrapeResult{Title: "Old"})

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		c.cleanupLoop(ctx, tick)
		close(done)
	}()

	clock.t = clock.t.Add(2 * time.Hour)
	tick <- clock.t
	tick <- clock.t // second send returns only after the first sweep ran
	assert.Equal(t, 0, c.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancel")
	}
}
