package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/upstream"
)

// mockChartAnalyzer はChartAnalyzerインターフェースのモック実装です。
type mockChartAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error)
}

func (m *mockChartAnalyzer) Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error) {
	return m.AnalyzeFunc(ctx, req)
}

// mockAnalysisRepository はAnalysisRepositoryインターフェースのモック実装です。
type mockAnalysisRepository struct {
	SaveFunc           func(ctx context.Context, a *entity.Analysis) error
	FindByIDFunc       func(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error)
	ListByUserFunc     func(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error)
	UpdateFeedbackFunc func(ctx context.Context, userID uint, id uuid.UUID, feedback entity.FeedbackKind) error

	SaveCalls           int
	UpdateFeedbackCalls int
	lastLimit           int
}

func (m *mockAnalysisRepository) Save(ctx context.Context, a *entity.Analysis) error {
	m.SaveCalls++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, a)
	}
	return nil
}

func (m *mockAnalysisRepository) FindByID(ctx context.Context, userID uint, id uuid.UUID) (*entity.Analysis, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, userID, id)
	}
	return nil, usecase.ErrAnalysisNotFound
}

func (m *mockAnalysisRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error) {
	m.lastLimit = limit
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit)
	}
	return []entity.Analysis{}, nil
}

func (m *mockAnalysisRepository) UpdateFeedback(ctx context.Context, userID uint, id uuid.UUID, feedback entity.FeedbackKind) error {
	m.UpdateFeedbackCalls++
	if m.UpdateFeedbackFunc != nil {
		return m.UpdateFeedbackFunc(ctx, userID, id, feedback)
	}
	return nil
}

// mockImageStore はImageStoreインターフェースのモック実装です。
type mockImageStore struct {
	SaveErr   error
	DeleteErr error
	saved     [][]byte
	deleted   []string
}

func (m *mockImageStore) Save(ctx context.Context, data []byte, contentType entity.ContentType) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	m.saved = append(m.saved, data)
	return "charts/abc" + contentType.Ext(), nil
}

func (m *mockImageStore) Delete(ctx context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return m.DeleteErr
}

func analyzedOK() *mockChartAnalyzer {
	return &mockChartAnalyzer{AnalyzeFunc: func(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error) {
		return &entity.Analysis{
			StockCode:  req.StockCode,
			CandleType: req.CandleType,
			Result:     entity.AnalysisResult{Pattern: "Double Bottom", KeyPoints: []string{}},
			Feedback:   entity.FeedbackNone,
		}, nil
	}}
}

func TestAnalysisUsecase_Create(t *testing.T) {
	t.Parallel()

	t.Run("success: analysis and image are stored", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{}
		images := &mockImageStore{}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, images)

		a, err := uc.Create(context.Background(), 7, validRequest())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, uint(7), a.UserID)
		assert.Equal(t, "charts/abc.png", a.ImagePath)
		assert.Equal(t, "Double Bottom", a.Result.Pattern)
		assert.Equal(t, 1, repo.SaveCalls)
		assert.Len(t, images.saved, 1)
	})

	t.Run("error: analysis failure stores nothing", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{}
		images := &mockImageStore{}
		analyzer := &mockChartAnalyzer{AnalyzeFunc: func(ctx context.Context, req entity.AnalysisRequest) (*entity.Analysis, error) {
			return nil, upstream.New(upstream.ErrModelError, "openai.chat", "HTTP 400", "", nil)
		}}
		uc := usecase.NewAnalysisUsecase(analyzer, repo, images)

		_, err := uc.Create(context.Background(), 7, validRequest())
		assert.ErrorIs(t, err, upstream.ErrModelError)
		assert.Equal(t, 0, repo.SaveCalls)
		assert.Empty(t, images.saved)
	})

	t.Run("error: image store failure", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{}
		images := &mockImageStore{SaveErr: errors.New("disk full")}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, images)

		_, err := uc.Create(context.Background(), 7, validRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, 0, repo.SaveCalls)
	})

	t.Run("error: database failure removes the stored image", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{SaveFunc: func(ctx context.Context, a *entity.Analysis) error {
			return errors.New("db down")
		}}
		images := &mockImageStore{}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, images)

		_, err := uc.Create(context.Background(), 7, validRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save analysis")
		assert.Equal(t, []string{"charts/abc.png"}, images.deleted)
	})
}

func TestAnalysisUsecase_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"success: default limit", 0, usecase.DefaultListLimit},
		{"success: negative limit", -5, usecase.DefaultListLimit},
		{"success: explicit limit", 5, 5},
		{"success: limit is capped", 1000, usecase.MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := &mockAnalysisRepository{}
			uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, &mockImageStore{})

			_, err := uc.List(context.Background(), 1, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.lastLimit)
		})
	}
}

func TestAnalysisUsecase_Get(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &mockAnalysisRepository{FindByIDFunc: func(ctx context.Context, userID uint, got uuid.UUID) (*entity.Analysis, error) {
		if userID != 1 || got != id {
			return nil, usecase.ErrAnalysisNotFound
		}
		return &entity.Analysis{ID: id, UserID: 1}, nil
	}}
	uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, &mockImageStore{})

	a, err := uc.Get(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	_, err = uc.Get(context.Background(), 2, id)
	assert.ErrorIs(t, err, usecase.ErrAnalysisNotFound)
}

func TestAnalysisUsecase_UpdateFeedback(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("success: feedback is stored", func(t *testing.T) {
		t.Parallel()
		var stored entity.FeedbackKind
		repo := &mockAnalysisRepository{
			UpdateFeedbackFunc: func(ctx context.Context, userID uint, got uuid.UUID, feedback entity.FeedbackKind) error {
				stored = feedback
				return nil
			},
			FindByIDFunc: func(ctx context.Context, userID uint, got uuid.UUID) (*entity.Analysis, error) {
				return &entity.Analysis{ID: got, Feedback: stored}, nil
			},
		}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, &mockImageStore{})

		a, err := uc.UpdateFeedback(context.Background(), 1, id, " LIKE ")
		require.NoError(t, err)
		assert.Equal(t, entity.FeedbackLike, a.Feedback)
	})

	t.Run("error: unknown feedback", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, &mockImageStore{})

		_, err := uc.UpdateFeedback(context.Background(), 1, id, "love")
		assert.ErrorIs(t, err, usecase.ErrInvalidRequest)
		assert.Equal(t, 0, repo.UpdateFeedbackCalls)
	})

	t.Run("error: not found", func(t *testing.T) {
		t.Parallel()
		repo := &mockAnalysisRepository{UpdateFeedbackFunc: func(ctx context.Context, userID uint, got uuid.UUID, feedback entity.FeedbackKind) error {
			return usecase.ErrAnalysisNotFound
		}}
		uc := usecase.NewAnalysisUsecase(analyzedOK(), repo, &mockImageStore{})

		_, err := uc.UpdateFeedback(context.Background(), 1, id, "dislike")
		assert.ErrorIs(t, err, usecase.ErrAnalysisNotFound)
	})
}
