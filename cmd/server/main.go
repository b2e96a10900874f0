package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/yangmw7/TradeVision-sub001/internal/app/di"
	"github.com/yangmw7/TradeVision-sub001/internal/app/router"
	analysisrepo "github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/repository"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/adapters/storage"
	analysishandler "github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/transport/handler"
	analysisusecase "github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	quoteentity "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	quotehandler "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/handler"
	quoteusecase "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	symbollistadapters "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/adapters"
	symbolentity "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
	symbollisthandler "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/transport/handler"
	symbollistusecase "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/config"
	infradb "github.com/yangmw7/TradeVision-sub001/internal/platform/db"
	"github.com/yangmw7/TradeVision-sub001/internal/platform/externalapi/kis"
	healthhandler "github.com/yangmw7/TradeVision-sub001/internal/platform/http/handler"
	jwtmw "github.com/yangmw7/TradeVision-sub001/internal/platform/jwt"
	infraredis "github.com/yangmw7/TradeVision-sub001/internal/platform/redis"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

func main() {
	config.LoadDotEnv()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.Open(infradb.LoadConfig(), &analysisrepo.AnalysisModel{}, &symbolentity.Symbol{})
	if err != nil {
		slog.Error("DB接続に失敗しました", "error", err)
		os.Exit(1)
	}
	checks := []healthhandler.Check{{
		Name: "db",
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	// Redis（任意）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else if tmp != nil {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
		checks = append(checks, healthhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// Repository
	symbolRepo := symbollistadapters.NewSymbolRepository(db)
	analysisRepo := analysisrepo.NewAnalysisRepository(db)

	var quotes quoteusecase.QuoteRepository
	if kisCfg := kis.LoadConfig(); kisCfg.AppKey != "" {
		quotes = di.NewQuoteRepository(rdb, kisCfg)
	} else {
		slog.Warn("KIS_APP_KEY is not set. Quotes are disabled.")
	}

	images, err := storage.NewLocalImageStore(storage.DirFromEnv())
	if err != nil {
		slog.Error("画像保存先の準備に失敗しました", "error", err)
		os.Exit(1)
	}

	// Analysis
	vision, err := di.NewVisionAnalyzer(ctx, config.String("VISION_PROVIDER", di.ProviderOpenAI))
	if err != nil {
		slog.Error("ビジョンモデルの初期化に失敗しました", "error", err)
		os.Exit(1)
	}
	hinter, closer, err := di.NewTextHinter(ctx)
	if err != nil {
		slog.Warn("OCR hint unavailable", "error", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	p, err := di.NewParser(config.String("ANALYSIS_LABEL_RULES_FILE", ""))
	if err != nil {
		slog.Error("ラベル定義の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}

	// Usecase
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)
	deps := di.OrchestratorDeps{Vision: vision, Symbols: symbolUC, Hinter: hinter, Parser: p}
	var quoteH *quotehandler.QuoteHandler
	if quotes != nil {
		deps.Quotes = quotes
		quoteH = quotehandler.NewQuoteHandler(quoteusecase.NewQuoteUsecase(quotes))
	} else {
		quoteH = quotehandler.NewQuoteHandler(quoteusecase.NewQuoteUsecase(disabledQuotes{}))
	}
	analysisUC := analysisusecase.NewAnalysisUsecase(di.NewOrchestrator(deps), analysisRepo, images)

	// Handler
	handlers := router.Handlers{
		Health:   healthhandler.NewHealthHandler(2*time.Second, checks...),
		Analysis: analysishandler.NewAnalysisHandler(analysisUC),
		Quote:    quoteH,
		Symbol:   symbollisthandler.NewSymbolHandler(symbolUC),
	}

	secret := jwtmw.SecretFromEnv()
	if secret == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	srv := &http.Server{
		Addr:              config.String("HTTP_ADDR", ":8080"),
		Handler:           router.NewRouter(handlers, secret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("サーバーを起動します", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("サーバーが異常終了しました", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("シャットダウンに失敗しました", "error", err)
	}
	slog.Info("サーバーを停止しました")
}

func logLevel() slog.Level {
	switch strings.ToLower(config.String("LOG_LEVEL", "info")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// disabledQuotes はKISの認証情報がない場合の現在値照会です。常に失敗します。
type disabledQuotes struct{}

func (disabledQuotes) GetQuote(ctx context.Context, code string, candle market.CandleType) (*quoteentity.Quote, error) {
	return nil, upstream.New(upstream.ErrCredential, "kis.inquire-price", "", "KIS_APP_KEY is not set", nil)
}
