// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// CachingQuoteRepository decorates a QuoteRepository with Redis caching.
// Errors are never cached; only successfully decoded quotes are stored.
type CachingQuoteRepository struct {
	inner     usecase.QuoteRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

// CachingQuoteRepositoryがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*CachingQuoteRepository)(nil)

// NewCachingQuoteRepository decorates a QuoteRepository with Redis caching.
// ttl is the lifetime during the regular session; outside it entries live until the next open.
// If ttl is 0, it defaults to 5 seconds. If namespace is empty, it uses "quotes".
func NewCachingQuoteRepository(rdb *redis.Client, ttl time.Duration, inner usecase.QuoteRepository, namespace string) *CachingQuoteRepository {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &CachingQuoteRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// GetQuote returns a quote, checking the cache first then falling back to the inner repository.
func (c *CachingQuoteRepository) GetQuote(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.GetQuote(ctx, code, candle)
	}

	key := c.cacheKey(code, candle)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Quote
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && !errors.Is(err, redis.Nil) {
		slog.Debug("quote cache read failed", "key", key, "error", err)
	}

	// 2) Fallback to the brokerage
	out, err := c.inner.GetQuote(ctx, code, candle)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, QuoteTTL(c.now(), c.ttl)).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a specific query.
func (c *CachingQuoteRepository) cacheKey(code string, candle market.CandleType) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, safe(code), safe(string(candle)))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
