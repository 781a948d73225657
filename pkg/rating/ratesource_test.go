package rating_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/shopalloy/ratewise/pkg/rating/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedRateSource_HitAndMiss(t *testing.T) {
	src := mock.New()
	cached := rating.NewCachedRateSource(src, rating.NewCache(), time.Minute)

	hits, misses := 0, 0
	cached.Hit = func() { hits++ }
	cached.Miss = func() { misses++ }

	origin, dest := usAddress("97201"), usAddress("30301")

	first, err := cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Calls)
	assert.Equal(t, 0, hits)
	assert.Equal(t, 1, misses)

	second, err := cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Calls, "second identical lookup is served from cache")
	assert.Equal(t, 1, hits)
	assert.Equal(t, first, second)
}

func TestCachedRateSource_KeyIncludesLaneAndWeight(t *testing.T) {
	src := mock.New()
	cached := rating.NewCachedRateSource(src, rating.NewCache(), time.Minute)

	origin := usAddress("97201")
	_, err := cached.GetRates(context.Background(), origin, usAddress("30301"), 10, rating.ServiceAll)
	require.NoError(t, err)
	_, err = cached.GetRates(context.Background(), origin, usAddress("30302"), 10, rating.ServiceAll)
	require.NoError(t, err)
	_, err = cached.GetRates(context.Background(), origin, usAddress("30301"), 12, rating.ServiceAll)
	require.NoError(t, err)

	assert.Equal(t, 3, src.Calls)
}

func TestCachedRateSource_ErrorsNotCached(t *testing.T) {
	src := mock.New()
	src.Err = errors.New("down")
	cached := rating.NewCachedRateSource(src, rating.NewCache(), time.Minute)

	origin, dest := usAddress("97201"), usAddress("30301")

	_, err := cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.Error(t, err)

	src.Err = nil
	quotes, err := cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.NoError(t, err)
	assert.NotEmpty(t, quotes)
	assert.Equal(t, 2, src.Calls)
}

func TestCachedRateSource_Invalidate(t *testing.T) {
	src := mock.New()
	cached := rating.NewCachedRateSource(src, rating.NewCache(), time.Minute)

	origin, dest := usAddress("97201"), usAddress("30301")
	_, err := cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.NoError(t, err)

	cached.Invalidate()

	_, err = cached.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls)
}

func TestBreakerRateSource_PassesThrough(t *testing.T) {
	src := mock.New()
	breaker := rating.NewBreakerRateSource(src)

	quotes, err := breaker.GetRates(context.Background(), usAddress("97201"), usAddress("30301"), 10, rating.ServiceAll)
	require.NoError(t, err)
	assert.NotEmpty(t, quotes)
	assert.Equal(t, "mock", breaker.Name())
}

func TestBreakerRateSource_OpensAfterConsecutiveFailures(t *testing.T) {
	src := mock.New()
	src.Err = errors.New("timeout")
	breaker := rating.NewBreakerRateSource(src)

	origin, dest := usAddress("97201"), usAddress("30301")

	for i := 0; i < 5; i++ {
		_, err := breaker.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
		require.Error(t, err)
		assert.NotErrorIs(t, err, rating.ErrSourceUnavailable, "underlying error passes through while closed")
	}

	// Circuit is now open: the source is no longer called.
	calls := src.Calls
	_, err := breaker.GetRates(context.Background(), origin, dest, 10, rating.ServiceAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, rating.ErrSourceUnavailable)
	assert.Equal(t, calls, src.Calls)
	assert.True(t, rating.IsRetryable(err))
}
