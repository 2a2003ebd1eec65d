package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariastapazzol/sanare/internal/model"
)

// StatusRepository persists per-day checklist flags. Rows are keyed by the
// natural composite (day, kind, item_id, scheduled_time); Upsert resolves
// conflicts on that key so toggles are idempotent and last-write-wins.
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) ListByDay(ctx context.Context, profileID, day string) ([]model.DailyStatus, error) {
	var statuses []model.DailyStatus
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND day = ?", profileID, day).
		Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("list statuses for %s: %w", day, err)
	}
	return statuses, nil
}

// Upsert inserts the status row or, when the natural key already exists,
// overwrites both flags and the update timestamp.
func (r *StatusRepository) Upsert(ctx context.Context, status *model.DailyStatus) error {
	status.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "day"},
			{Name: "kind"},
			{Name: "item_id"},
			{Name: "scheduled_time"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"checked", "inactive", "updated_at"}),
	}).Create(status).Error
	if err != nil {
		return fmt.Errorf("upsert status: %w", err)
	}
	return nil
}

// DeleteByDay clears every status row for the profile on the given day.
func (r *StatusRepository) DeleteByDay(ctx context.Context, profileID, day string) error {
	if err := r.db.WithContext(ctx).
		Where("profile_id = ? AND day = ?", profileID, day).
		Delete(&model.DailyStatus{}).Error; err != nil {
		return fmt.Errorf("delete statuses for %s: %w", day, err)
	}
	return nil
}
