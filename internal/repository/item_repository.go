package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mariastapazzol/sanare/internal/model"
)

// ItemRepository handles CRUD for recurring items (medications and reminders).
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create normalizes schedule fields and persists a new item.
func (r *ItemRepository) Create(ctx context.Context, item *model.RecurringItem) error {
	times, err := model.NormalizeTimes(item.Times)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	item.Times = times

	dates, err := model.NormalizeDates(item.Dates)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	item.Dates = dates

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) ListMedications(ctx context.Context, profileID string) ([]model.RecurringItem, error) {
	return r.listByKind(ctx, profileID, model.KindMedication)
}

func (r *ItemRepository) ListReminders(ctx context.Context, profileID string) ([]model.RecurringItem, error) {
	return r.listByKind(ctx, profileID, model.KindReminder)
}

func (r *ItemRepository) listByKind(ctx context.Context, profileID string, kind model.ItemKind) ([]model.RecurringItem, error) {
	var items []model.RecurringItem
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND kind = ?", profileID, kind).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %s items: %w", kind, err)
	}
	return items, nil
}

func (r *ItemRepository) ListAll(ctx context.Context, profileID string) ([]model.RecurringItem, error) {
	var items []model.RecurringItem
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, profileID string, itemID uint) (*model.RecurringItem, error) {
	var item model.RecurringItem
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND id = ?", profileID, itemID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateNotificationIDs replaces the stored notification handles wholesale.
func (r *ItemRepository) UpdateNotificationIDs(ctx context.Context, itemID uint, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := r.db.WithContext(ctx).
		Model(&model.RecurringItem{}).
		Where("id = ?", itemID).
		Update("notification_ids", ids).Error; err != nil {
		return fmt.Errorf("update notification ids: %w", err)
	}
	return nil
}

// AdjustStock shifts a medication's stock by delta units, clamped at zero.
func (r *ItemRepository) AdjustStock(ctx context.Context, itemID uint, delta int) error {
	if err := r.db.WithContext(ctx).
		Model(&model.RecurringItem{}).
		Where("id = ?", itemID).
		Update("stock_units", gorm.Expr("MAX(stock_units + ?, 0)", delta)).Error; err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	return nil
}

// Delete removes an item for the given profile.
func (r *ItemRepository) Delete(ctx context.Context, profileID string, itemID uint) error {
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND id = ?", profileID, itemID).
		Delete(&model.RecurringItem{}).Error; err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
