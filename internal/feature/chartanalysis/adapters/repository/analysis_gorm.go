// Package repository はchartanalysisフィーチャーの分析履歴リポジトリを提供します。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// AnalysisModel は分析履歴のテーブル定義です。
// キーポイントと現在値のスナップショットはJSON文字列で保持します。
type AnalysisModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID          uint      `gorm:"not null;index:idx_analyses_user_created,priority:1"`
	StockCode       string    `gorm:"size:6"`
	StockName       string    `gorm:"size:100"`
	CandleType      string    `gorm:"size:4;not null"`
	InvestmentLevel string    `gorm:"size:16"`
	ImagePath       string    `gorm:"size:255"`
	Pattern         string    `gorm:"type:text"`
	Trend           string    `gorm:"type:text"`
	SupportLevel    string    `gorm:"type:text"`
	ResistanceLevel string    `gorm:"type:text"`
	VolumeAnalysis  string    `gorm:"type:text"`
	TradingOpinion  string    `gorm:"type:text"`
	Summary         string    `gorm:"type:text"`
	KeyPoints       string    `gorm:"type:text"`
	RiskLevel       string    `gorm:"type:text"`
	Feedback        string    `gorm:"size:16;not null;default:none"`
	QuoteSnapshot   string    `gorm:"type:text"`
	Degraded        bool      `gorm:"not null;default:false"`
	Truncated       bool      `gorm:"not null;default:false"`
	Model           string    `gorm:"size:64"`
	CreatedAt       time.Time `gorm:"index:idx_analyses_user_created,priority:2"`
}

// TableName はテーブル名を返します。
func (AnalysisModel) TableName() string { return "analyses" }

// analysisRepository はAnalysisRepositoryインターフェースのGORM実装です（PostgreSQL / SQLite）。
type analysisRepository struct {
	db *gorm.DB
}

// analysisRepositoryがAnalysisRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.AnalysisRepository = (*analysisRepository)(nil)

// NewAnalysisRepository は指定されたDB接続でanalysisRepositoryの新しいインスタンスを生成します。
func NewAnalysisRepository(db *gorm.DB) *analysisRepository {
	return &analysisRepository{db: db}
}

// Save は分析を1件挿入します。
func (r *analysisRepository) Save(ctx context.Context, a *entity.Analysis) error {
	m, err := toModel(a)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID はユーザー自身の分析を返します。
func (r *analysisRepository) FindByID(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error) {
	var m AnalysisModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return toEntity(m)
}

// ListByUser は新しい順に最大limit件を返します。
func (r *analysisRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error) {
	var rows []AnalysisModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Analysis, 0, len(rows))
	for _, m := range rows {
		a, err := toEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// UpdateFeedback はフィードバックを更新します。対象がなければErrAnalysisNotFoundを返します。
func (r *analysisRepository) UpdateFeedback(ctx context.Context, userID uint, id uuid.UUID, feedback entity.FeedbackKind) error {
	res := r.db.WithContext(ctx).
		Model(&AnalysisModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("feedback", string(feedback))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrAnalysisNotFound
	}
	return nil
}

func toModel(a *entity.Analysis) (*AnalysisModel, error) {
	keyPoints := a.Result.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	kp, err := json.Marshal(keyPoints)
	if err != nil {
		return nil, fmt.Errorf("encode key points: %w", err)
	}

	var snapshot string
	if a.Quote != nil {
		b, err := json.Marshal(a.Quote)
		if err != nil {
			return nil, fmt.Errorf("encode quote snapshot: %w", err)
		}
		snapshot = string(b)
	}

	feedback := a.Feedback
	if feedback == "" {
		feedback = entity.FeedbackNone
	}

	return &AnalysisModel{
		ID:              a.ID,
		UserID:          a.UserID,
		StockCode:       a.StockCode,
		StockName:       a.StockName,
		CandleType:      string(a.CandleType),
		InvestmentLevel: string(a.InvestmentLevel),
		ImagePath:       a.ImagePath,
		Pattern:         a.Result.Pattern,
		Trend:           a.Result.Trend,
		SupportLevel:    a.Result.SupportLevel,
		ResistanceLevel: a.Result.ResistanceLevel,
		VolumeAnalysis:  a.Result.VolumeAnalysis,
		TradingOpinion:  a.Result.TradingOpinion,
		Summary:         a.Result.Summary,
		KeyPoints:       string(kp),
		RiskLevel:       a.Result.RiskLevel,
		Feedback:        string(feedback),
		QuoteSnapshot:   snapshot,
		Degraded:        a.Degraded,
		Truncated:       a.Truncated,
		Model:           a.Model,
		CreatedAt:       a.CreatedAt,
	}, nil
}

func toEntity(m AnalysisModel) (*entity.Analysis, error) {
	keyPoints := []string{}
	if m.KeyPoints != "" {
		if err := json.Unmarshal([]byte(m.KeyPoints), &keyPoints); err != nil {
			return nil, fmt.Errorf("decode key points of %s: %w", m.ID, err)
		}
	}

	var q *quote.Quote
	if m.QuoteSnapshot != "" {
		q = &quote.Quote{}
		if err := json.Unmarshal([]byte(m.QuoteSnapshot), q); err != nil {
			return nil, fmt.Errorf("decode quote snapshot of %s: %w", m.ID, err)
		}
	}

	return &entity.Analysis{
		ID:              m.ID,
		UserID:          m.UserID,
		StockCode:       m.StockCode,
		StockName:       m.StockName,
		CandleType:      market.CandleType(m.CandleType),
		InvestmentLevel: entity.InvestmentLevel(m.InvestmentLevel),
		ImagePath:       m.ImagePath,
		Result: entity.AnalysisResult{
			Pattern:         m.Pattern,
			Trend:           m.Trend,
			SupportLevel:    m.SupportLevel,
			ResistanceLevel: m.ResistanceLevel,
			VolumeAnalysis:  m.VolumeAnalysis,
			TradingOpinion:  m.TradingOpinion,
			Summary:         m.Summary,
			KeyPoints:       keyPoints,
			RiskLevel:       m.RiskLevel,
		},
		Feedback:  entity.FeedbackKind(m.Feedback),
		Quote:     q,
		Degraded:  m.Degraded,
		Truncated: m.Truncated,
		Model:     m.Model,
		CreatedAt: m.CreatedAt,
	}, nil
}
