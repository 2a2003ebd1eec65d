package model

import "time"

// DailyStatus is the durable flag row for one checklist slot on one day.
// (Day, Kind, ItemID, ScheduledTime) is the natural key: lookups and upsert
// conflict resolution both run against it. Rows appear on first toggle and
// are only ever removed by a whole-day reset.
type DailyStatus struct {
	ID            uint     `gorm:"primaryKey"`
	ProfileID     string   `gorm:"index"`
	Day           string   `gorm:"index:idx_day_slot,unique"`
	Kind          ItemKind `gorm:"index:idx_day_slot,unique"`
	ItemID        uint     `gorm:"index:idx_day_slot,unique"`
	ScheduledTime string   `gorm:"index:idx_day_slot,unique"`
	Checked       bool     `gorm:"default:false"`
	Inactive      bool     `gorm:"default:false"`
	UpdatedAt     time.Time
}
