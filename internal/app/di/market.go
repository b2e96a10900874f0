// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/cache"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis"
	infrahttp "github.com/yangmw7/TradeVision-sub001/internal/platform/http"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/ratelimiter"
)

// NewQuoteRepository はKISの現在値クライアントを組み立てます。
// トークンの共有・レート制限・Redisキャッシュ（rdbがnilの場合は無効）を含みます。
func NewQuoteRepository(rdb *redis.Client, cfg kis.Config) usecase.QuoteRepository {
	client := infrahttp.NewRestyClient(cfg.Timeout)
	creds := NewCredentialCache(rdb, kis.NewTokenIssuer(cfg, client), cfg)
	limiter := ratelimiter.NewRateLimiter("kis", cfg.RatePerSecond, 1)
	quotes := kis.NewQuoteClient(cfg, client, creds, limiter)

	ttl := config.Duration("QUOTE_CACHE_TTL", 5*time.Second)
	return cache.NewCachingQuoteRepository(rdb, ttl, quotes, "quotes")
}
