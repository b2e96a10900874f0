package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// mockQuoteUsecase はQuoteUsecaseインターフェースのモック実装です。
type mockQuoteUsecase struct {
	GetQuoteFunc func(ctx context.Context, code, candle string) (*entity.Quote, error)
}

// GetQuote はモックのGetQuote関数を呼び出します。
func (m *mockQuoteUsecase) GetQuote(ctx context.Context, code, candle string) (*entity.Quote, error) {
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, code, candle)
	}
	return nil, nil
}

func TestQuoteHandler_GetQuote(t *testing.T) {
	gin.SetMode(gin.TestMode)

	observed := time.Date(2025, 3, 4, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		path           string
		getQuoteFunc   func(ctx context.Context, code, candle string) (*entity.Quote, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: returns quote with decimal strings",
			path: "/v1/quotes/005930?candle_type=D",
			getQuoteFunc: func(ctx context.Context, code, candle string) (*entity.Quote, error) {
				return &entity.Quote{
					StockCode:     code,
					StockName:     "삼성전자",
					CurrentPrice:  decimal.NewFromInt(71000),
					PriceChange:   decimal.NewFromInt(500),
					ChangeRate:    decimal.RequireFromString("0.71"),
					Volume:        12345678,
					OpenPrice:     decimal.NewFromInt(70500),
					HighPrice:     decimal.NewFromInt(71200),
					LowPrice:      decimal.NewFromInt(70300),
					PreviousClose: decimal.NewFromInt(70500),
					CandleType:    market.CandleType(candle),
					ObservedAt:    observed,
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"stock_code":"005930","stock_name":"삼성전자","current_price":"71000","price_change":"500",` +
				`"change_rate":"0.71","volume":12345678,"open_price":"70500","high_price":"71200","low_price":"70300",` +
				`"previous_close":"70500","candle_type":"D","observed_at":"2025-03-04T01:00:00Z"}`,
		},
		{
			name: "error: invalid request",
			path: "/v1/quotes/5930",
			getQuoteFunc: func(ctx context.Context, code, candle string) (*entity.Quote, error) {
				return nil, fmt.Errorf("%w: bad code", usecase.ErrInvalidQuoteRequest)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"銘柄コードまたはローソク足種別が不正です"}`,
		},
		{
			name: "error: upstream timeout",
			path: "/v1/quotes/005930",
			getQuoteFunc: func(ctx context.Context, code, candle string) (*entity.Quote, error) {
				return nil, upstream.New(upstream.ErrUpstreamTimeout, "kis.inquire-price", "HTTP 503", "", nil)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"相場データ提供元が応答しません","code":"HTTP 503"}`,
		},
		{
			name: "error: upstream rejected",
			path: "/v1/quotes/005930",
			getQuoteFunc: func(ctx context.Context, code, candle string) (*entity.Quote, error) {
				return nil, upstream.New(upstream.ErrUpstreamRejected, "kis.inquire-price", "APBK0919", "no data", nil)
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"現在値の取得に失敗しました","code":"APBK0919"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewQuoteHandler(&mockQuoteUsecase{GetQuoteFunc: tt.getQuoteFunc})

			r := gin.New()
			r.GET("/v1/quotes/:code", h.GetQuote)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestQuoteHandler_DefaultCandle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotCandle string
	h := NewQuoteHandler(&mockQuoteUsecase{GetQuoteFunc: func(ctx context.Context, code, candle string) (*entity.Quote, error) {
		gotCandle = candle
		return &entity.Quote{StockCode: code}, nil
	}})

	r := gin.New()
	r.GET("/v1/quotes/:code", h.GetQuote)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quotes/005930", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "D", gotCandle)
}
