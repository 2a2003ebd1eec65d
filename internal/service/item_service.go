package service

import (
	"context"
	"fmt"
	"log"

	"github.com/mariastapazzol/sanare/internal/model"
)

// ItemStore is the slice of the item repository the item service needs.
type ItemStore interface {
	Create(ctx context.Context, item *model.RecurringItem) error
	FindByID(ctx context.Context, profileID string, itemID uint) (*model.RecurringItem, error)
	Delete(ctx context.Context, profileID string, itemID uint) error
	ListAll(ctx context.Context, profileID string) ([]model.RecurringItem, error)
}

// ItemInput represents data required to create a recurring item.
type ItemInput struct {
	Kind       model.ItemKind
	Name       string
	Times      []string
	Dates      []string
	StockUnits int
	DoseUnits  int
}

// ItemService wraps item create/delete so every schedule change resyncs the
// notifier and reprojects the checklist in the same pass.
type ItemService struct {
	repo          ItemStore
	notifications *NotificationService
	checklist     *ChecklistService
	profileID     string
}

func NewItemService(repo ItemStore, notifications *NotificationService, checklist *ChecklistService, profileID string) *ItemService {
	return &ItemService{
		repo:          repo,
		notifications: notifications,
		checklist:     checklist,
		profileID:     profileID,
	}
}

func (s *ItemService) List(ctx context.Context) ([]model.RecurringItem, error) {
	return s.repo.ListAll(ctx, s.profileID)
}

// CreateItem persists a new item, registers its notification slots and
// reprojects today's checklist. The resync runs synchronously: the item is
// never observable with a schedule its notifications don't match.
func (s *ItemService) CreateItem(ctx context.Context, input ItemInput) (*model.RecurringItem, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(input.Times) == 0 {
		return nil, fmt.Errorf("at least one time is required")
	}

	item := &model.RecurringItem{
		ProfileID:  s.profileID,
		Kind:       input.Kind,
		Name:       input.Name,
		Times:      input.Times,
		Dates:      input.Dates,
		StockUnits: input.StockUnits,
		DoseUnits:  input.DoseUnits,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	if err := s.notifications.Apply(ctx, item); err != nil {
		return nil, fmt.Errorf("register notifications: %w", err)
	}
	if err := s.checklist.Reload(ctx); err != nil {
		// The item is saved and scheduled; the next trigger reprojects it.
		log.Printf("[warn] reload after create: %v", err)
	}
	return item, nil
}

// DeleteItem removes an item, cancelling its notification slots first so
// nothing keeps firing for a schedule that no longer exists.
func (s *ItemService) DeleteItem(ctx context.Context, itemID uint) error {
	item, err := s.repo.FindByID(ctx, s.profileID, itemID)
	if err != nil {
		return fmt.Errorf("load item for delete: %w", err)
	}

	// An emptied schedule resyncs to zero slots: stale handles get cancelled
	// and nothing new is registered.
	cleared := *item
	cleared.Times = nil
	cleared.Dates = nil
	if _, err := s.notifications.Resync(ctx, &cleared); err != nil {
		log.Printf("[warn] cancel notifications for item %d: %v", itemID, err)
	}

	if err := s.repo.Delete(ctx, s.profileID, itemID); err != nil {
		return err
	}
	if err := s.checklist.Reload(ctx); err != nil {
		log.Printf("[warn] reload after delete: %v", err)
	}
	return nil
}
