// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/usecase"
)

// symbolRepository はSymbolRepositoryインターフェースのGORM実装です（PostgreSQL / SQLite）。
type symbolRepository struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolRepository)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolRepositoryの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolRepository {
	return &symbolRepository{db: db}
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *symbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Order("code ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// FindByCode は銘柄コードに一致するアクティブな銘柄を返します。
func (r *symbolRepository) FindByCode(ctx context.Context, code string) (*entity.Symbol, error) {
	var s entity.Symbol
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrSymbolNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertBatch は銘柄コードをキーに銘柄を挿入または更新します。
func (r *symbolRepository) UpsertBatch(ctx context.Context, symbols []entity.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "market", "is_active", "sort_key", "updated_at"}),
	}).Create(&symbols).Error
}
