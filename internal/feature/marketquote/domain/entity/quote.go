// Package entity はmarketquoteフィーチャーのドメインモデルを定義します。
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// Quote はある時点の株価スナップショットです。
// 価格と騰落率は10進数で正確に保持し、浮動小数点は使いません。
type Quote struct {
	StockCode     string            `json:"stock_code"`     // 6桁の銘柄コード（例: "005930"）
	StockName     string            `json:"stock_name"`     // 銘柄名（上流が返さない場合は空）
	CurrentPrice  decimal.Decimal   `json:"current_price"`  // 現在値
	PriceChange   decimal.Decimal   `json:"price_change"`   // 前日比
	ChangeRate    decimal.Decimal   `json:"change_rate"`    // 前日比率（%）
	Volume        int64             `json:"volume"`         // 累積出来高
	OpenPrice     decimal.Decimal   `json:"open_price"`     // 始値
	HighPrice     decimal.Decimal   `json:"high_price"`     // 高値
	LowPrice      decimal.Decimal   `json:"low_price"`      // 安値
	PreviousClose decimal.Decimal   `json:"previous_close"` // 前日終値（基準価格）
	CandleType    market.CandleType `json:"candle_type"`
	ObservedAt    time.Time         `json:"observed_at"`
}
