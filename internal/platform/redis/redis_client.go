// Package redis はRedis接続を提供します。Redisは任意の依存で、未設定の場合は使いません。
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
)

// Config はRedis接続設定です。
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Host:     config.String("REDIS_HOST", ""),
		Port:     config.String("REDIS_PORT", "6379"),
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	}
}

// Enabled はREDIS_HOSTが設定されているかを返します。
func (c Config) Enabled() bool { return c.Host != "" }

// Addr は host:port を返します。
func (c Config) Addr() string { return c.Host + ":" + c.Port }

// NewRedisClient は接続を確認してクライアントを返します。
// 未設定の場合は (nil, nil) を返し、呼び出し側はRedisなしで動作します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if !cfg.Enabled() {
		slog.Info("REDIS_HOST未設定のためRedisを使用しません")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", cfg.Addr(), err)
	}

	slog.Info("Redis connection successful", "address", cfg.Addr())
	return rdb, nil
}
