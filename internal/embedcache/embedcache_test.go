package embedcache

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(Config{DataDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := newTestCache(t)
	_, ok, err := c.Get("deadbeef", "openai", "text-embedding-3-small")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c := newTestCache(t)
	vector := []float32{0.1, 0.2, 0.3, -0.4}

	require.NoError(t, c.Put("abc123", "openai", "text-embedding-3-small", vector))

	got, ok, err := c.Get("abc123", "openai", "text-embedding-3-small")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vector, got)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("hash", "openai", "m", []float32{1, 2}))
	require.NoError(t, c.Put("hash", "openai", "m", []float32{3, 4, 5}))

	got, ok, err := c.Get("hash", "openai", "m")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 3)
}

func TestDistinctProviderModelAreSeparateEntries(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("hash", "openai", "small", []float32{1}))

	_, ok, err := c.Get("hash", "cohere", "small")
	require.NoError(t, err)
	assert.False(t, ok, "expected miss for a different provider with the same content hash")
}
