// Package dto defines data transfer objects for the chartanalysis HTTP API.
package dto

import (
	"time"

	quotedto "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/transport/http/dto"
)

// AnalysisResultResponse is the structured model answer.
type AnalysisResultResponse struct {
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

// AnalysisResponse is one stored analysis.
type AnalysisResponse struct {
	ID              string                  `json:"id"`
	StockCode       string                  `json:"stockCode,omitempty"`
	StockName       string                  `json:"stockName,omitempty"`
	CandleType      string                  `json:"candleType"`
	CandleLabel     string                  `json:"candleLabel"`
	InvestmentLevel string                  `json:"investmentLevel,omitempty"`
	ImagePath       string                  `json:"imagePath"`
	AnalysisResult  AnalysisResultResponse  `json:"analysisResult"`
	Feedback        string                  `json:"feedback"`
	FeedbackLabel   string                  `json:"feedbackLabel"`
	Quote           *quotedto.QuoteResponse `json:"quote,omitempty"`
	Degraded        bool                    `json:"degraded"`
	Truncated       bool                    `json:"truncated"`
	Model           string                  `json:"model,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
}

// AnalysisListResponse wraps a page of analyses.
type AnalysisListResponse struct {
	Items []AnalysisResponse `json:"items"`
}

// FeedbackRequest is the body of PATCH /v1/analyses/:id/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
