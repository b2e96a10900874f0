// Package db はGORMによるデータベース接続を提供します（本番はPostgreSQL、テストと単体実行はSQLite）。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config はデータベース接続設定です。
type Config struct {
	Driver         string        // "postgres" | "sqlite"
	DSN            string        // 接続文字列（sqliteの場合はファイルパス）
	ConnectTimeout time.Duration // 起動時の接続待ちの上限
	RunMigrations  bool
}

// LoadConfig は環境変数からデータベース設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Driver:         config.String("DB_DRIVER", DriverPostgres),
		DSN:            config.String("DB_DSN", ""),
		ConnectTimeout: config.Duration("DB_CONNECT_TIMEOUT", 60*time.Second),
		RunMigrations:  config.Bool("RUN_MIGRATIONS", false),
	}
}

// Opener はDSNからDB接続を開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor はドライバー名に対応するOpenerを返します。
func OpenerFor(driver string) (Opener, error) {
	var dial func(string) gorm.Dialector
	switch driver {
	case DriverPostgres:
		dial = postgres.Open
	case DriverSQLite:
		dial = sqlite.Open
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(dial(dsn), &gorm.Config{})
	}, nil
}

// Open は設定に従って接続し、必要ならマイグレーションを実行します。
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(cfg.DSN, cfg.ConnectTimeout, opener)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("マイグレーションを実行しました", "models", len(models))
	}
	return db, nil
}

// ConnectWithRetry はtimeoutに達するまで指数バックオフで接続を再試行します。
// コンテナ起動直後にDBがまだ受け付けていない場合に備えます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 3 * time.Second
	eb.MaxElapsedTime = timeout
	eb.Reset()

	var db *gorm.DB
	err := backoff.RetryNotify(func() error {
		d, err := opener(dsn)
		if err != nil {
			return err
		}
		db = d
		return nil
	}, eb, func(err error, wait time.Duration) {
		slog.Warn("DB接続に失敗、再試行します", "error", err, "wait", wait)
	})
	if err != nil {
		return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
	}
	return db, nil
}
