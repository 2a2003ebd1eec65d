package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mariastapazzol/sanare/internal/clock"
	"github.com/mariastapazzol/sanare/internal/model"
)

var (
	// ErrEntryNotFound means the toggled slot is not part of today's checklist.
	ErrEntryNotFound = errors.New("checklist entry not found")
	// ErrInsufficientStock is the expected veto when stock cannot cover a dose.
	// Not a failure: callers offer a stock-adjustment flow instead.
	ErrInsufficientStock = errors.New("insufficient stock for dose")
)

// ItemSource supplies recurring-item snapshots for one care profile.
type ItemSource interface {
	ListMedications(ctx context.Context, profileID string) ([]model.RecurringItem, error)
	ListReminders(ctx context.Context, profileID string) ([]model.RecurringItem, error)
}

// StatusStore persists per-day checklist flags.
type StatusStore interface {
	ListByDay(ctx context.Context, profileID, day string) ([]model.DailyStatus, error)
	Upsert(ctx context.Context, status *model.DailyStatus) error
	DeleteByDay(ctx context.Context, profileID, day string) error
}

// StockGuard vetoes medication check-offs the remaining stock cannot cover.
// The check runs before the optimistic update so a veto leaves no trace.
type StockGuard interface {
	HasSufficientStock(ctx context.Context, itemID uint) (bool, error)
}

// ChecklistService owns the in-memory checklist for the current day. It is
// the sole mutator of the entry list; timer and bot callbacks all go through
// it. Durable truth lives in the status store, last-write-wins per slot.
type ChecklistService struct {
	items     ItemSource
	statuses  StatusStore
	resolver  *clock.Resolver
	guard     StockGuard
	profileID string

	mu      sync.Mutex
	dayKey  string
	entries []Entry
}

func NewChecklistService(items ItemSource, statuses StatusStore, resolver *clock.Resolver, guard StockGuard, profileID string) *ChecklistService {
	return &ChecklistService{
		items:     items,
		statuses:  statuses,
		resolver:  resolver,
		guard:     guard,
		profileID: profileID,
	}
}

// Reload resolves today's key, fetches items and statuses, and replaces the
// in-memory checklist with a fresh projection. Any fetch failure aborts the
// reload and keeps the previous state. Idempotent, so racing triggers from
// the midnight timer and foreground signal are harmless.
func (s *ChecklistService) Reload(ctx context.Context) error {
	day := s.resolver.TodayKey(ctx)

	meds, err := s.items.ListMedications(ctx, s.profileID)
	if err != nil {
		return fmt.Errorf("reload checklist: %w", err)
	}
	reminders, err := s.items.ListReminders(ctx, s.profileID)
	if err != nil {
		return fmt.Errorf("reload checklist: %w", err)
	}
	statuses, err := s.statuses.ListByDay(ctx, s.profileID, day)
	if err != nil {
		return fmt.Errorf("reload checklist: %w", err)
	}

	due := make([]model.RecurringItem, 0, len(meds)+len(reminders))
	due = append(due, meds...)
	for _, item := range reminders {
		if item.Dated() && !containsDay(item.Dates, day) {
			continue
		}
		due = append(due, item)
	}

	entries := Project(due, statuses)

	s.mu.Lock()
	s.dayKey = day
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// DayKey returns the day the current projection was built for.
func (s *ChecklistService) DayKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayKey
}

// Entries returns a copy of the current checklist.
func (s *ChecklistService) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry looks up one slot by its composite id.
func (s *ChecklistService) Entry(entryID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			return e, true
		}
	}
	return Entry{}, false
}

// SetChecked toggles the done flag for a slot. Checking a medication first
// consults the stock guard; a veto returns ErrInsufficientStock without
// touching memory or store.
func (s *ChecklistService) SetChecked(ctx context.Context, entryID string, value bool) error {
	return s.toggle(ctx, entryID, true, value)
}

// SetInactive toggles the skipped-for-today flag for a slot.
func (s *ChecklistService) SetInactive(ctx context.Context, entryID string, value bool) error {
	return s.toggle(ctx, entryID, false, value)
}

func (s *ChecklistService) toggle(ctx context.Context, entryID string, checkedFlag, value bool) error {
	s.mu.Lock()
	prev, ok := s.findLocked(entryID)
	day := s.dayKey
	s.mu.Unlock()
	if !ok {
		return ErrEntryNotFound
	}

	if checkedFlag && value && prev.Kind == model.KindMedication && s.guard != nil {
		enough, err := s.guard.HasSufficientStock(ctx, prev.ItemID)
		if err != nil {
			return fmt.Errorf("stock check: %w", err)
		}
		if !enough {
			return ErrInsufficientStock
		}
	}

	next := prev
	if checkedFlag {
		next.Checked = value
		if value {
			// Write-boundary mutual exclusion: a slot is done or skipped,
			// never both.
			next.Inactive = false
		}
	} else {
		next.Inactive = value
		if value {
			next.Checked = false
		}
	}

	// Optimistic: the list reflects the toggle before the store round-trip.
	s.replace(entryID, next)

	status := &model.DailyStatus{
		ProfileID:     s.profileID,
		Day:           day,
		Kind:          next.Kind,
		ItemID:        next.ItemID,
		ScheduledTime: next.Time,
		Checked:       next.Checked,
		Inactive:      next.Inactive,
	}
	if err := s.statuses.Upsert(ctx, status); err != nil {
		s.replace(entryID, prev)
		return fmt.Errorf("persist toggle: %w", err)
	}
	return nil
}

// ResetDay bulk-deletes today's status rows and reprojects a clean slate.
func (s *ChecklistService) ResetDay(ctx context.Context) error {
	s.mu.Lock()
	day := s.dayKey
	s.mu.Unlock()
	if day == "" {
		day = s.resolver.TodayKey(ctx)
	}

	if err := s.statuses.DeleteByDay(ctx, s.profileID, day); err != nil {
		return fmt.Errorf("reset day: %w", err)
	}
	return s.Reload(ctx)
}

func (s *ChecklistService) findLocked(entryID string) (Entry, bool) {
	for _, e := range s.entries {
		if e.ID == entryID {
			return e, true
		}
	}
	return Entry{}, false
}

// replace re-finds the slot by id under the lock: a concurrent reload may
// have swapped the slice since the toggle read it.
func (s *ChecklistService) replace(entryID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			s.entries[i] = e
			return
		}
	}
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
