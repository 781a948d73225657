package rating_test

import (
	"testing"
	"time"

	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	cache := rating.NewCache()
	cache.Set("k", 42, time.Minute)

	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	cache := rating.NewCache()
	// A non-positive TTL is already expired by the time it is read.
	cache.Set("k", "v", -time.Second)

	_, ok := cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry is dropped on read")
}

func TestCache_Overwrite(t *testing.T) {
	cache := rating.NewCache()
	cache.Set("k", 1, time.Minute)
	cache.Set("k", 2, time.Minute)

	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ClearPrefix(t *testing.T) {
	cache := rating.NewCache()
	cache.Set("rates:ups:a", 1, time.Minute)
	cache.Set("rates:ups:b", 2, time.Minute)
	cache.Set("warehouse:x", 3, time.Minute)

	cache.ClearPrefix("rates:ups:")

	_, ok := cache.Get("rates:ups:a")
	assert.False(t, ok)
	_, ok = cache.Get("warehouse:x")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}
