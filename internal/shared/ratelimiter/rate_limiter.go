package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiterは、トークンバケット方式でAPI呼び出しの頻度を制限します。
// 複数のgoroutineから同時に利用できます。
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewRateLimiterは1秒あたりperSecond回、最大burst回の連続呼び出しを許可するRateLimiterを生成します。
// perSecondが0以下の場合は制限なしになります。
func NewRateLimiter(name string, perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst), name: name}
}

// WaitIfNeededはレートリミットの上限に達しているかを確認し、必要であれば待機します。
// ctxがキャンセルされた場合は待機を中断してエラーを返します。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	slog.Debug("rate limit reached, waiting", "limiter", rl.name, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
