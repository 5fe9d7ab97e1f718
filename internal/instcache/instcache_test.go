package instcache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nordigen "github.com/nordigen-tools/nordigen-go"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := Open(filepath.Join(t.TempDir(), "institutions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache
}

func TestCacheMissOnEmpty(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Get("PT", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePutGet(t *testing.T) {
	assert := assert.New(t)
	cache := openTestCache(t)

	institutions := []nordigen.Institution{
		{ID: "BANK_A", Name: "Bank A", Countries: []string{"PT"}},
		{ID: "BANK_B", Name: "Bank B", Countries: []string{"PT", "ES"}},
	}

	require.NoError(t, cache.Put("PT", institutions))

	got, ok, err := cache.Get("PT", time.Hour)
	require.NoError(t, err)
	assert.True(ok)
	assert.Equal(institutions, got)

	// Another country is a separate entry.
	_, ok, err = cache.Get("ES", time.Hour)
	require.NoError(t, err)
	assert.False(ok)
}

func TestCachePutReplaces(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("PT", []nordigen.Institution{{ID: "OLD"}}))
	require.NoError(t, cache.Put("PT", []nordigen.Institution{{ID: "NEW"}}))

	got, ok, err := cache.Get("PT", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "NEW", got[0].ID)
}

func TestCacheStaleEntryIsAMiss(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("PT", []nordigen.Institution{{ID: "BANK_A"}}))

	_, ok, err := cache.Get("PT", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheEmptyCountryKeysUnfilteredListing(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("", []nordigen.Institution{{ID: "ANY"}}))

	got, ok, err := cache.Get("", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ANY", got[0].ID)
}
