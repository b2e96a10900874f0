// Package handler はsymbollistフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/transport/http/dto"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧を返します。
// market（KOSPI等）で市場を絞り込み、q で銘柄コードの前方一致または銘柄名の部分一致で検索します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		slog.Error("銘柄一覧の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "銘柄一覧の取得に失敗しました"})
		return
	}

	market := strings.ToUpper(strings.TrimSpace(c.Query("market")))
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		if market != "" && s.Market != market {
			continue
		}
		if q != "" && !strings.HasPrefix(s.Code, q) && !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name, Market: s.Market})
	}
	c.JSON(http.StatusOK, out)
}
