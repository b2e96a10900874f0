// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yangmw7/TradeVision-sub001/internal/feature/symbollist/domain/entity"
	"github.com/yangmw7/TradeVision-sub001/internal/shared/market"
)

var (
	// ErrSymbolNotFound is returned when no active symbol has the requested code.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidSymbol is returned when an imported symbol fails validation.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// SymbolRepository abstracts the persistence layer for the symbol directory.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	// FindByCode returns ErrSymbolNotFound when no active symbol matches.
	FindByCode(ctx context.Context, code string) (*entity.Symbol, error)
	UpsertBatch(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// LookupName returns the display name of the stock with the given code.
func (u *SymbolUsecase) LookupName(ctx context.Context, code string) (string, error) {
	if !market.ValidStockCode(code) {
		return "", fmt.Errorf("%w: code %q", ErrSymbolNotFound, code)
	}
	s, err := u.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

// Import validates and upserts symbols as active, returning how many were written.
// Rows are rejected as a whole if any of them is invalid.
func (u *SymbolUsecase) Import(ctx context.Context, symbols []entity.Symbol) (int, error) {
	for i := range symbols {
		s := &symbols[i]
		s.Code = strings.TrimSpace(s.Code)
		s.Name = strings.TrimSpace(s.Name)
		s.Market = strings.ToUpper(strings.TrimSpace(s.Market))
		s.IsActive = true
		if !market.ValidStockCode(s.Code) {
			return 0, fmt.Errorf("%w: row %d: code %q is not 6 digits", ErrInvalidSymbol, i+1, s.Code)
		}
		if s.Name == "" {
			return 0, fmt.Errorf("%w: row %d: empty name", ErrInvalidSymbol, i+1)
		}
		if s.Market == "" {
			return 0, fmt.Errorf("%w: row %d: empty market", ErrInvalidSymbol, i+1)
		}
	}
	if len(symbols) == 0 {
		return 0, nil
	}
	if err := u.repo.UpsertBatch(ctx, symbols); err != nil {
		return 0, err
	}
	return len(symbols), nil
}
