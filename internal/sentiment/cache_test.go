package sentiment

import (
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/lumos/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache(t *testing.T) {
	positive := model.SentimentResult{
		Label:  model.LabelPositive,
		Scores: model.SentimentScores{Positive: 0.9, Neutral: 0.08, Negative: 0.02},
	}

	t.Run("basic operations", func(t *testing.T) {
		cache := newResultCache(5 * time.Minute)

		_, found := cache.get("non-existent")
		assert.False(t, found)

		cache.set("key1", positive)
		retrieved, found := cache.get("key1")
		require.True(t, found)
		assert.Equal(t, positive, retrieved)
		assert.Equal(t, 1, cache.size())

		cache.set("key1", positive)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		cache := newResultCache(time.Minute)
		cache.now = func() time.Time { return now }

		cache.set("key2", positive)
		_, found := cache.get("key2")
		assert.True(t, found)

		now = now.Add(2 * time.Minute)
		_, found = cache.get("key2")
		assert.False(t, found)
		assert.Equal(t, 0, cache.size())
	})

	t.Run("negative ttl disables caching", func(t *testing.T) {
		cache := newResultCache(-1)
		cache.set("key3", positive)
		_, found := cache.get("key3")
		assert.False(t, found)
		assert.Equal(t, 0, cache.size())
	})

	t.Run("sweep at capacity", func(t *testing.T) {
		cache := newResultCache(time.Minute)
		cache.maxItems = 2
		cache.set("a", positive)
		cache.set("b", positive)
		cache.set("c", positive)
		assert.LessOrEqual(t, cache.size(), 2)
		_, found := cache.get("c")
		assert.True(t, found)
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newResultCache(5 * time.Minute)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					cache.set("concurrent", positive)
					_, _ = cache.get("concurrent")
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, cache.size())
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("hello"), cacheKey("hello"))
	assert.NotEqual(t, cacheKey("hello"), cacheKey("hello "))
	assert.Len(t, cacheKey(""), 64)
}
