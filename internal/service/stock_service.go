package service

import (
	"context"
	"fmt"

	"github.com/mariastapazzol/sanare/internal/model"
)

// StockRepository is the slice of the item repository the stock service needs.
type StockRepository interface {
	FindByID(ctx context.Context, profileID string, itemID uint) (*model.RecurringItem, error)
	AdjustStock(ctx context.Context, itemID uint, delta int) error
}

// StockService tracks medication stock against doses. It implements
// StockGuard for the checklist and adjusts stock after settled toggles.
type StockService struct {
	repo      StockRepository
	profileID string
}

func NewStockService(repo StockRepository, profileID string) *StockService {
	return &StockService{repo: repo, profileID: profileID}
}

// HasSufficientStock reports whether the remaining stock covers one dose.
// Items without a configured dose are never blocked.
func (s *StockService) HasSufficientStock(ctx context.Context, itemID uint) (bool, error) {
	item, err := s.repo.FindByID(ctx, s.profileID, itemID)
	if err != nil {
		return false, fmt.Errorf("load item for stock check: %w", err)
	}
	if item.Kind != model.KindMedication || item.DoseUnits <= 0 {
		return true, nil
	}
	return item.StockUnits >= item.DoseUnits, nil
}

// Consume deducts one dose after a medication slot is checked off.
func (s *StockService) Consume(ctx context.Context, itemID uint) error {
	return s.adjustByDose(ctx, itemID, -1)
}

// Restore returns one dose after a checked slot is undone.
func (s *StockService) Restore(ctx context.Context, itemID uint) error {
	return s.adjustByDose(ctx, itemID, 1)
}

func (s *StockService) adjustByDose(ctx context.Context, itemID uint, direction int) error {
	item, err := s.repo.FindByID(ctx, s.profileID, itemID)
	if err != nil {
		return fmt.Errorf("load item for stock adjust: %w", err)
	}
	if item.Kind != model.KindMedication || item.DoseUnits <= 0 {
		return nil
	}
	if err := s.repo.AdjustStock(ctx, itemID, direction*item.DoseUnits); err != nil {
		return err
	}
	return nil
}
