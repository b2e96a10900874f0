package di

import (
	"github.com/redis/go-redis/v9"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/credential"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis"
)

// NewCredentialCache はKISのアクセストークンを共有するキャッシュを生成します。
// Redisが利用可能な場合は他プロセスとトークンを共有し、そうでなければプロセス内だけで保持します。
func NewCredentialCache(rdb *redis.Client, issuer credential.Issuer, cfg kis.Config) *credential.Cache {
	opts := []credential.Option{credential.WithSafetyMargin(cfg.TokenMargin)}
	if rdb != nil {
		opts = append(opts, credential.WithStore(credential.NewRedisStore(rdb, cfg.Namespace)))
	}
	return credential.NewCache(issuer, opts...)
}
