// Package dto defines data transfer objects for the marketquote HTTP API.
package dto

import "time"

// QuoteResponse is the JSON shape of a quote. Decimal values are rendered as strings
// so that clients never see a binary floating point approximation.
type QuoteResponse struct {
	StockCode     string    `json:"stock_code"`
	StockName     string    `json:"stock_name,omitempty"`
	CurrentPrice  string    `json:"current_price"`
	PriceChange   string    `json:"price_change"`
	ChangeRate    string    `json:"change_rate"`
	Volume        int64     `json:"volume"`
	OpenPrice     string    `json:"open_price"`
	HighPrice     string    `json:"high_price"`
	LowPrice      string    `json:"low_price"`
	PreviousClose string    `json:"previous_close"`
	CandleType    string    `json:"candle_type"`
	ObservedAt    time.Time `json:"observed_at"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
