package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradejournal/brokergate/internal/models"
)

func TestQuoteCacheDisabledWithoutRedis(t *testing.T) {
	cache := NewQuoteCache(nil)
	assert.False(t, cache.Enabled())

	// Put is a no-op and Latest always misses.
	cache.Put("zerodha", models.Quote{Symbol: "TCS", Price: 3500})
	_, ok := cache.Latest("zerodha", "TCS")
	assert.False(t, ok)
}

func TestQuoteKey(t *testing.T) {
	assert.Equal(t, "quote:zerodha:TCS", quoteKey("zerodha", "TCS"))
}
