package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// RetryPolicy は一時的な通信失敗に対する再試行の設定です。
type RetryPolicy struct {
	MaxRetries      uint64        // 初回を除く再試行回数
	InitialInterval time.Duration // 最初の待ち時間
	MaxInterval     time.Duration
}

// DefaultRetryPolicy は最大2回、200msから始まる指数バックオフです。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// retry はopを実行し、upstream.Retryableなエラーのときだけ再試行します。
// ctxがキャンセルされると待機を打ち切ります。
func retry(ctx context.Context, policy RetryPolicy, name string, op func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = policy.InitialInterval
	if policy.MaxInterval > 0 {
		eb.MaxInterval = policy.MaxInterval
	}
	eb.MaxElapsedTime = 0
	eb.Reset()

	var b backoff.BackOff = backoff.WithMaxRetries(eb, policy.MaxRetries)
	b = backoff.WithContext(b, ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !upstream.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		slog.Warn("一時的な失敗のため再試行", "call", name, "attempt", attempt, "wait", wait, "error", err)
	})
}
