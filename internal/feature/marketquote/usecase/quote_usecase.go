// Package usecase はmarketquoteフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// ErrInvalidQuoteRequest は銘柄コードまたはローソク足種別が不正な場合に返されます。
var ErrInvalidQuoteRequest = errors.New("invalid quote request")

// QuoteRepository は現在値を取得するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteRepository interface {
	// GetQuote は銘柄コードとローソク足種別に対応する現在値を返します。
	GetQuote(ctx context.Context, code string, candle market.CandleType) (*entity.Quote, error)
}

// quoteUsecase は現在値照会のビジネスロジックを提供します。
type quoteUsecase struct {
	repo QuoteRepository
}

// NewQuoteUsecase はquoteUsecaseの新しいインスタンスを生成します。
func NewQuoteUsecase(repo QuoteRepository) *quoteUsecase {
	return &quoteUsecase{repo: repo}
}

// GetQuote は入力を検証してから現在値を取得します。candleが空の場合は日足を使います。
func (u *quoteUsecase) GetQuote(ctx context.Context, code, candle string) (*entity.Quote, error) {
	if !market.ValidStockCode(code) {
		return nil, fmt.Errorf("%w: stock code must be 6 digits, got %q", ErrInvalidQuoteRequest, code)
	}
	ct := market.CandleDay
	if candle != "" {
		parsed, err := market.ParseCandleType(candle)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuoteRequest, err)
		}
		ct = parsed
	}
	return u.repo.GetQuote(ctx, code, ct)
}
