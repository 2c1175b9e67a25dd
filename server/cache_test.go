package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	defer c.Stop()

	d := Decision{Redirect: true, Destination: "/en/latest/new.html", Status: 301}
	c.Set("k", d, time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, d, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	defer c.Stop()

	c.Set("k", Decision{Redirect: false}, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheFlush(t *testing.T) {
	c := NewTTLCache()
	defer c.Stop()

	c.Set("a", Decision{Redirect: true, Destination: "/x", Status: 302}, time.Minute)
	c.Set("b", Decision{Redirect: false}, time.Minute)
	c.Flush()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
