package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// mockQuoteRepository はQuoteRepositoryインターフェースのモック実装です。
type mockQuoteRepository struct {
	GetQuoteFunc func(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error)
	calls        int
}

// GetQuote はモックのGetQuote関数を呼び出します。
func (m *mockQuoteRepository) GetQuote(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error) {
	m.calls++
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, code, candle)
	}
	return nil, nil
}

func TestQuoteUsecase_GetQuote(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("brokerage down")

	tests := []struct {
		name       string
		code       string
		candle     string
		repoErr    error
		wantCandle market.CandleType
		wantErr    error
		wantCalls  int
	}{
		{name: "success: daily", code: "005930", candle: "D", wantCandle: market.CandleDay, wantCalls: 1},
		{name: "success: empty candle defaults to daily", code: "005930", candle: "", wantCandle: market.CandleDay, wantCalls: 1},
		{name: "success: lower case weekly", code: "000660", candle: "w", wantCandle: market.CandleWeek, wantCalls: 1},
		{name: "error: short code", code: "5930", candle: "D", wantErr: ErrInvalidQuoteRequest},
		{name: "error: non numeric code", code: "AAPL00", candle: "D", wantErr: ErrInvalidQuoteRequest},
		{name: "error: unknown candle", code: "005930", candle: "1day", wantErr: ErrInvalidQuoteRequest},
		{name: "error: repository failure", code: "005930", candle: "D", repoErr: repoErr, wantErr: repoErr, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockQuoteRepository{
				GetQuoteFunc: func(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &entity.Quote{StockCode: code, CurrentPrice: decimal.NewFromInt(71000), CandleType: candle}, nil
				},
			}
			uc := NewQuoteUsecase(repo)

			q, err := uc.GetQuote(context.Background(), tt.code, tt.candle)
			assert.Equal(t, tt.wantCalls, repo.calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, q.StockCode)
			assert.Equal(t, tt.wantCandle, q.CandleType)
		})
	}
}
