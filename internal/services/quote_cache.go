package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tradejournal/brokergate/internal/models"
)

// quoteTTL bounds how long a cached quote is served after the stream that
// produced it goes quiet
const quoteTTL = 5 * time.Minute

// QuoteCache keeps the latest quote per (broker, symbol) in Redis so the
// REST API can serve last values without an open stream. A nil Redis
// client disables the cache; Put becomes a no-op and Latest always misses.
type QuoteCache struct {
	client *redis.Client
}

// NewQuoteCache creates a quote cache backed by the given Redis client,
// which may be nil
func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{client: client}
}

// Enabled reports whether the cache has a backing Redis client
func (c *QuoteCache) Enabled() bool {
	return c.client != nil
}

func quoteKey(brokerID, symbol string) string {
	return "quote:" + brokerID + ":" + symbol
}

// Put stores the quote as the latest value for its symbol
func (c *QuoteCache) Put(brokerID string, quote models.Quote) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return
	}
	if err := c.client.Set(context.Background(), quoteKey(brokerID, quote.Symbol), data, quoteTTL).Err(); err != nil {
		log.Printf("quote cache write failed: %v", err)
	}
}

// Latest returns the most recent cached quote for the symbol
func (c *QuoteCache) Latest(brokerID, symbol string) (models.Quote, bool) {
	if c.client == nil {
		return models.Quote{}, false
	}

	data, err := c.client.Get(context.Background(), quoteKey(brokerID, symbol)).Bytes()
	if err != nil {
		return models.Quote{}, false
	}

	var quote models.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return models.Quote{}, false
	}
	return quote, true
}
