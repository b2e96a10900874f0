package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
)

const (
	// DefaultListLimit は履歴一覧の既定件数です。
	DefaultListLimit = 20
	// MaxListLimit は履歴一覧で一度に返す最大件数です。
	MaxListLimit = 100
)

// ErrAnalysisNotFound は指定された分析が存在しない（または他人の分析である）場合に返されます。
var ErrAnalysisNotFound = errors.New("analysis not found")

// ChartAnalyzer はチャート分析を実行するインターフェースです（Orchestratorが実装）。
type ChartAnalyzer interface {
	Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error)
}

// AnalysisRepository は分析履歴を永続化するリポジトリインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type AnalysisRepository interface {
	Save(ctx context.Context, a *entity.Analysis) error
	// FindByID はErrAnalysisNotFoundを返すことがあります。
	FindByID(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error)
	// ListByUser は新しい順に最大limit件を返します。
	ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error)
	// UpdateFeedback はErrAnalysisNotFoundを返すことがあります。
	UpdateFeedback(ctx context.Context, userID uint, id uuid.UUID, feedback entity.FeedbackKind) error
}

// ImageStore はアップロードされたチャート画像を保存します。
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType entity.ContentType) (string, error)
	Delete(ctx context.Context, path string) error
}

// analysisUsecase は分析の実行・履歴・フィードバックのビジネスロジックを提供します。
type analysisUsecase struct {
	analyzer ChartAnalyzer
	repo     AnalysisRepository
	images   ImageStore
	newID    func() uuid.UUID
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
func NewAnalysisUsecase(analyzer ChartAnalyzer, repo AnalysisRepository, images ImageStore) *analysisUsecase {
	return &analysisUsecase{analyzer: analyzer, repo: repo, images: images, newID: uuid.New}
}

// Create はチャートを分析し、画像と結果を保存します。
// 分析に失敗した場合は何も保存しません。
func (u *analysisUsecase) Create(ctx context.Context, userID uint, req entity.AnalysisRequest) (*entity.Analysis, error) {
	a, err := u.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	path, err := u.images.Save(ctx, req.Image, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("save chart image: %w", err)
	}

	a.ID = u.newID()
	a.UserID = userID
	a.ImagePath = path

	if err := u.repo.Save(ctx, a); err != nil {
		if derr := u.images.Delete(ctx, path); derr != nil {
			slog.Warn("保存に失敗した分析の画像を削除できません", "error", derr, "path", path)
		}
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return a, nil
}

// Get はユーザー自身の分析を1件返します。
func (u *analysisUsecase) Get(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error) {
	return u.repo.FindByID(ctx, userID, id)
}

// List はユーザーの分析履歴を新しい順に返します。limitが0以下の場合は既定件数を使います。
func (u *analysisUsecase) List(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return u.repo.ListByUser(ctx, userID, limit)
}

// UpdateFeedback は分析に対するユーザーの評価を更新し、更新後の分析を返します。
func (u *analysisUsecase) UpdateFeedback(ctx context.Context, userID uint, id uuid.UUID, feedback string) (*entity.Analysis, error) {
	kind, err := entity.ParseFeedbackKind(feedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := u.repo.UpdateFeedback(ctx, userID, id, kind); err != nil {
		return nil, err
	}
	return u.repo.FindByID(ctx, userID, id)
}
