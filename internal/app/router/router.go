// Package router はアプリケーションのHTTPルーティングを定義します。
package router

import (
	"github.com/gin-gonic/gin"

	analysishandler "github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/transport/handler"
	quotehandler "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/handler"
	symbollisthandler "github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/transport/handler"
	healthhandler "github.com/yangmw7/TradeVision-sub001/internal/platform/http/handler"
	jwtmw "github.com/yangmw7/TradeVision-sub001/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラーの集合です。
type Handlers struct {
	Health   *healthhandler.HealthHandler
	Analysis *analysishandler.AnalysisHandler
	Quote    *quotehandler.QuoteHandler
	Symbol   *symbollisthandler.SymbolHandler
}

// NewRouter はルーターを生成します。/healthz と /readyz 以外はJWTが必要です。
func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// multipartのメモリ上限（超過分は一時ファイル）
	r.MaxMultipartMemory = 12 << 20

	// 認証不要
	r.GET("/healthz", h.Health.Live)
	r.HEAD("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)

	// 認証必須のルート
	v1 := r.Group("/v1")
	v1.Use(jwtmw.AuthRequired(jwtSecret))
	{
		v1.POST("/analyses", h.Analysis.Create)
		v1.GET("/analyses", h.Analysis.List)
		v1.GET("/analyses/:id", h.Analysis.Get)
		v1.PATCH("/analyses/:id/feedback", h.Analysis.UpdateFeedback)

		v1.GET("/quotes/:code", h.Quote.GetQuote)
		v1.GET("/symbols", h.Symbol.List)
	}

	return r
}
