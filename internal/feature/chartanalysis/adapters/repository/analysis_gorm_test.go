package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/chartanalysis/usecase"
	quote "github.com/yangmw7/TradeVision-sub001/internal/feature/marketquote/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&AnalysisModel{}), "failed to migrate table")
	return db
}

var baseTime = time.Date(2025, 3, 4, 1, 0, 0, 0, time.UTC)

func newAnalysis(userID uint, createdAt time.Time) *entity.Analysis {
	return &entity.Analysis{
		ID:              uuid.New(),
		UserID:          userID,
		StockCode:       "005930",
		StockName:       "삼성전자",
		CandleType:      market.CandleDay,
		InvestmentLevel: entity.LevelBeginner,
		ImagePath:       "uploads/charts/x.png",
		Result: entity.AnalysisResult{
			Pattern:   "Double Bottom",
			Trend:     "Upward",
			Summary:   "A double bottom is complete.",
			KeyPoints: []string{"Neckline broken", "Volume confirms"},
			RiskLevel: "Medium",
		},
		Feedback:  entity.FeedbackNone,
		Model:     "gpt-4o",
		CreatedAt: createdAt,
	}
}

func TestAnalysisRepository_SaveAndFind(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	t.Run("success: round trip with quote snapshot", func(t *testing.T) {
		a := newAnalysis(1, baseTime)
		a.Quote = &quote.Quote{
			StockCode:    "005930",
			CurrentPrice: decimal.RequireFromString("71000"),
			PriceChange:  decimal.RequireFromString("500"),
			ChangeRate:   decimal.RequireFromString("0.71"),
			Volume:       12345678,
			CandleType:   market.CandleDay,
			ObservedAt:   baseTime,
		}
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, 1, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, a.Result, got.Result)
		assert.Equal(t, entity.LevelBeginner, got.InvestmentLevel)
		assert.Equal(t, market.CandleDay, got.CandleType)
		assert.Equal(t, entity.FeedbackNone, got.Feedback)
		assert.True(t, got.CreatedAt.Equal(baseTime))
		require.NotNil(t, got.Quote)
		assert.True(t, got.Quote.ChangeRate.Equal(decimal.RequireFromString("0.71")))
		assert.Equal(t, "0.71", got.Quote.ChangeRate.String())
		assert.Equal(t, int64(12345678), got.Quote.Volume)
	})

	t.Run("success: degraded analysis without quote", func(t *testing.T) {
		a := newAnalysis(1, baseTime)
		a.Degraded = true
		a.Result.KeyPoints = nil
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, 1, a.ID)
		require.NoError(t, err)
		assert.True(t, got.Degraded)
		assert.Nil(t, got.Quote)
		assert.Equal(t, []string{}, got.Result.KeyPoints)
	})

	t.Run("error: other user's analysis is not found", func(t *testing.T) {
		a := newAnalysis(1, baseTime)
		require.NoError(t, repo.Save(ctx, a))

		_, err := repo.FindByID(ctx, 2, a.ID)
		assert.ErrorIs(t, err, usecase.ErrAnalysisNotFound)
	})

	t.Run("error: unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 1, uuid.New())
		assert.ErrorIs(t, err, usecase.ErrAnalysisNotFound)
	})
}

func TestAnalysisRepository_ListByUser(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		a := newAnalysis(1, baseTime.Add(time.Duration(i)*time.Minute))
		a.Result.Pattern = []string{"first", "second", "third"}[i]
		require.NoError(t, repo.Save(ctx, a))
		ids = append(ids, a.ID)
	}
	require.NoError(t, repo.Save(ctx, newAnalysis(2, baseTime)))

	got, err := repo.ListByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{got[0].Result.Pattern, got[1].Result.Pattern, got[2].Result.Pattern})
	assert.Equal(t, ids[2], got[0].ID)

	got, err = repo.ListByUser(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListByUser(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnalysisRepository_UpdateFeedback(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	a := newAnalysis(1, baseTime)
	require.NoError(t, repo.Save(ctx, a))

	require.NoError(t, repo.UpdateFeedback(ctx, 1, a.ID, entity.FeedbackDislike))
	got, err := repo.FindByID(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FeedbackDislike, got.Feedback)

	assert.ErrorIs(t, repo.UpdateFeedback(ctx, 2, a.ID, entity.FeedbackLike), usecase.ErrAnalysisNotFound)
	assert.ErrorIs(t, repo.UpdateFeedback(ctx, 1, uuid.New(), entity.FeedbackLike), usecase.ErrAnalysisNotFound)
}
