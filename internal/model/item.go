package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Layouts shared across the engine. Day keys are zero-padded so lexicographic
// order matches chronological order.
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

// ItemKind distinguishes medications from free-form reminders.
type ItemKind string

const (
	KindMedication ItemKind = "medication"
	KindReminder   ItemKind = "reminder"
)

// RecurringItem is a medication or reminder definition for one care profile.
// The checklist engine treats each loaded row as an immutable snapshot and
// writes back only NotificationIDs (and stock, through the stock service).
type RecurringItem struct {
	ID        uint     `gorm:"primaryKey"`
	ProfileID string   `gorm:"index"`
	Kind      ItemKind `gorm:"index"`
	Name      string
	// Times holds the HH:MM slots the item repeats at, normalized on write.
	Times []string `gorm:"serializer:json"`
	// Dates, when non-empty, pins a reminder to explicit YYYY-MM-DD days
	// instead of repeating daily. Always empty for medications.
	Dates []string `gorm:"serializer:json"`
	// NotificationIDs are the platform-notifier handles registered for the
	// current schedule, replaced wholesale on every resync.
	NotificationIDs []string `gorm:"serializer:json"`
	StockUnits      int
	DoseUnits       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Dated reports whether a reminder fires on explicit calendar dates only.
func (i RecurringItem) Dated() bool {
	return i.Kind == KindReminder && len(i.Dates) > 0
}

// NormalizeTimes validates, dedups and sorts a list of HH:MM strings. It runs
// once at the repository boundary so consumers can trust the stored shape.
func NormalizeTimes(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if _, _, err := ParseClock(t); err != nil {
			return nil, err
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// NormalizeDates validates, dedups and sorts a list of YYYY-MM-DD strings.
func NormalizeDates(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		d = strings.TrimSpace(d)
		if _, err := time.Parse(DayLayout, d); err != nil {
			return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// ParseClock splits an HH:MM string into hour and minute.
func ParseClock(timeStr string) (hour, minute int, err error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	return hour, minute, nil
}
