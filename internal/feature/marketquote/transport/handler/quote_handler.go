// Package handler はmarketquoteフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/http/dto"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// QuoteUsecase は現在値照会のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuoteUsecase interface {
	GetQuote(ctx context.Context, code, candle string) (*entity.Quote, error)
}

// QuoteHandler は現在値照会のHTTPリクエストを処理します。
type QuoteHandler struct {
	uc QuoteUsecase
}

// NewQuoteHandler はQuoteHandlerの新しいインスタンスを生成します。
func NewQuoteHandler(uc QuoteUsecase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

// GetQuote は銘柄コードの現在値をJSONで返します。
//
// エンドポイント例:
// GET /v1/quotes/:code?candle_type=D
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	code := c.Param("code")
	candle := c.DefaultQuery("candle_type", "D")

	q, err := h.uc.GetQuote(c.Request.Context(), code, candle)
	if err != nil {
		status, msg := quoteErrorStatus(err)
		slog.Warn("現在値の取得に失敗", "error", err, "stock_code", code, "candle_type", candle)
		c.JSON(status, dto.ErrorResponse{Error: msg, Code: upstream.CodeOf(err)})
		return
	}

	c.JSON(http.StatusOK, ToQuoteResponse(q))
}

// ToQuoteResponse はQuoteをレスポンスDTOに変換します。
func ToQuoteResponse(q *entity.Quote) dto.QuoteResponse {
	return dto.QuoteResponse{
		StockCode:     q.StockCode,
		StockName:     q.StockName,
		CurrentPrice:  q.CurrentPrice.String(),
		PriceChange:   q.PriceChange.String(),
		ChangeRate:    q.ChangeRate.String(),
		Volume:        q.Volume,
		OpenPrice:     q.OpenPrice.String(),
		HighPrice:     q.HighPrice.String(),
		LowPrice:      q.LowPrice.String(),
		PreviousClose: q.PreviousClose.String(),
		CandleType:    string(q.CandleType),
		ObservedAt:    q.ObservedAt,
	}
}

func quoteErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidQuoteRequest):
		return http.StatusBadRequest, "銘柄コードまたはローソク足種別が不正です"
	case errors.Is(err, upstream.ErrUpstreamTimeout):
		return http.StatusServiceUnavailable, "相場データ提供元が応答しません"
	default:
		return http.StatusBadGateway, "現在値の取得に失敗しました"
	}
}
