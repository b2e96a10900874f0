// Package entity はchartanalysisフィーチャーのドメインモデルを定義します。
package entity

import (
	"time"

	"github.com/google/uuid"

	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// AnalysisRequest はチャート画像の分析依頼です。
type AnalysisRequest struct {
	Image           []byte            // チャート画像（空は不可）
	ContentType     ContentType       // 画像のメディアタイプ
	StockCode       string            // 任意。指定する場合は6桁
	StockName       string            // 任意
	CandleType      market.CandleType // 必須
	InvestmentLevel InvestmentLevel   // 任意。空の場合はintermediate相当
}

// AnalysisResult はモデルの回答から取り出した構造化済みの分析結果です。
// 認識できなかった項目は空文字列になります。
type AnalysisResult struct {
	Pattern         string   `json:"pattern"`
	Trend           string   `json:"trend"`
	SupportLevel    string   `json:"supportLevel"`
	ResistanceLevel string   `json:"resistanceLevel"`
	VolumeAnalysis  string   `json:"volumeAnalysis"`
	TradingOpinion  string   `json:"tradingOpinion"`
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"keyPoints"`
	RiskLevel       string   `json:"riskLevel"`
}

// Analysis は1回の分析の結果一式です。
type Analysis struct {
	ID              uuid.UUID
	UserID          uint
	StockCode       string
	StockName       string
	CandleType      market.CandleType
	InvestmentLevel InvestmentLevel
	ImagePath       string
	Result          AnalysisResult
	Feedback        FeedbackKind
	Quote           *quote.Quote // 取得できた場合のみ
	Degraded        bool         // 現在値の取得を試みたが失敗した
	Truncated       bool         // 回答が出力長の上限で切れていた
	Model           string
	CreatedAt       time.Time
}
