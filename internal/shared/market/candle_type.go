// Package market holds market vocabulary shared by several features.
package market

import (
	"fmt"
	"regexp"
	"strings"
)

// CandleType は1本のローソク足が表す時間単位です。
type CandleType string

const (
	CandleMinute1  CandleType = "1"
	CandleMinute3  CandleType = "3"
	CandleMinute5  CandleType = "5"
	CandleMinute10 CandleType = "10"
	CandleMinute15 CandleType = "15"
	CandleMinute30 CandleType = "30"
	CandleMinute60 CandleType = "60"
	CandleDay      CandleType = "D"
	CandleWeek     CandleType = "W"
	CandleMonth    CandleType = "M"
	CandleYear     CandleType = "Y"
)

var candleLabels = map[CandleType]string{
	CandleMinute1:  "1-minute",
	CandleMinute3:  "3-minute",
	CandleMinute5:  "5-minute",
	CandleMinute10: "10-minute",
	CandleMinute15: "15-minute",
	CandleMinute30: "30-minute",
	CandleMinute60: "60-minute",
	CandleDay:      "daily",
	CandleWeek:     "weekly",
	CandleMonth:    "monthly",
	CandleYear:     "yearly",
}

// ParseCandleType はコード（"D", "W", "5" など）をCandleTypeに変換します。
// 英字コードは大文字小文字を区別しません。
func ParseCandleType(s string) (CandleType, error) {
	ct := CandleType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := candleLabels[ct]; !ok {
		return "", fmt.Errorf("unknown candle type %q", s)
	}
	return ct, nil
}

// Valid はctが既知のローソク足種別かどうかを返します。
func (ct CandleType) Valid() bool {
	_, ok := candleLabels[ct]
	return ok
}

// Label は表示用のラベルを返します。
func (ct CandleType) Label() string {
	if l, ok := candleLabels[ct]; ok {
		return l
	}
	return string(ct)
}

// IsIntraday は分足かどうかを返します。
func (ct CandleType) IsIntraday() bool {
	switch ct {
	case CandleDay, CandleWeek, CandleMonth, CandleYear:
		return false
	}
	return ct.Valid()
}

// stockCodePattern は国内株式の6桁銘柄コードです。
var stockCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidStockCode はcodeが6桁の銘柄コードかどうかを返します。
func ValidStockCode(code string) bool {
	return stockCodePattern.MatchString(code)
}
