package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mariastapazzol/sanare/internal/model"
	"github.com/mariastapazzol/sanare/internal/notify"
)

// ItemWriter is the slice of the item repository the synchronizer needs.
type ItemWriter interface {
	ListAll(ctx context.Context, profileID string) ([]model.RecurringItem, error)
	UpdateNotificationIDs(ctx context.Context, itemID uint, ids []string) error
}

// NotificationService keeps the platform notifier consistent with item
// schedules via cancel-then-reregister passes.
type NotificationService struct {
	notifier notify.Notifier
	items    ItemWriter
	loc      *time.Location
	now      func() time.Time
}

func NewNotificationService(notifier notify.Notifier, items ItemWriter, loc *time.Location) *NotificationService {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationService{notifier: notifier, items: items, loc: loc, now: time.Now}
}

// Resync replaces an item's notification slots: previously registered
// handles are cancelled first, then one fresh slot per scheduled time is
// registered in a single batch. Returns the new handles; the caller persists
// them wholesale. A disabled notifier yields an empty list, which is a valid
// result, not an error.
func (s *NotificationService) Resync(ctx context.Context, item *model.RecurringItem) ([]string, error) {
	if len(item.NotificationIDs) > 0 {
		if err := s.notifier.CancelBatch(ctx, item.NotificationIDs); err != nil {
			// Non-fatal: a stale slot is eventually overwritten, blocking
			// the whole resync would be worse.
			log.Printf("[warn] cancel stale notifications for item %d: %v", item.ID, err)
		}
	}

	if !s.notifier.Enabled() {
		return []string{}, nil
	}

	requests := s.buildRequests(item)
	if len(requests) > 0 {
		if err := s.notifier.ScheduleBatch(ctx, requests); err != nil {
			return nil, fmt.Errorf("schedule notifications for item %d: %w", item.ID, err)
		}
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ID)
	}
	return ids, nil
}

// Apply resyncs an item and persists the fresh handles onto its record. An
// empty list is persisted too: it clears stale handles after degradation.
func (s *NotificationService) Apply(ctx context.Context, item *model.RecurringItem) error {
	ids, err := s.Resync(ctx, item)
	if err != nil {
		return err
	}
	if err := s.items.UpdateNotificationIDs(ctx, item.ID, ids); err != nil {
		return err
	}
	item.NotificationIDs = ids
	return nil
}

// SweepProfile resyncs every item of a profile. Runs at trusted startup so
// the notifier matches current schedules even if a previous session crashed
// mid-update.
func (s *NotificationService) SweepProfile(ctx context.Context, profileID string) error {
	items, err := s.items.ListAll(ctx, profileID)
	if err != nil {
		return fmt.Errorf("notification sweep: %w", err)
	}
	for i := range items {
		if err := s.Apply(ctx, &items[i]); err != nil {
			return fmt.Errorf("notification sweep: %w", err)
		}
	}
	return nil
}

func (s *NotificationService) buildRequests(item *model.RecurringItem) []notify.Request {
	title, body := renderNotification(item)

	if !item.Dated() {
		requests := make([]notify.Request, 0, len(item.Times))
		for _, t := range item.Times {
			requests = append(requests, notify.Request{
				ID:    uuid.NewString(),
				Title: title,
				Body:  body,
				Time:  t,
			})
		}
		return requests
	}

	// Dated reminders become one-shot slots; instants already in the past
	// are skipped instead of firing immediately.
	now := s.now()
	var requests []notify.Request
	for _, d := range item.Dates {
		day, err := time.ParseInLocation(model.DayLayout, d, s.loc)
		if err != nil {
			log.Printf("[warn] item %d has invalid date %q, skipping", item.ID, d)
			continue
		}
		for _, t := range item.Times {
			hour, minute, err := model.ParseClock(t)
			if err != nil {
				log.Printf("[warn] item %d has invalid time %q, skipping", item.ID, t)
				continue
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.loc)
			if !at.After(now) {
				continue
			}
			requests = append(requests, notify.Request{
				ID:    uuid.NewString(),
				Title: title,
				Body:  body,
				At:    &at,
			})
		}
	}
	return requests
}

func renderNotification(item *model.RecurringItem) (title, body string) {
	if item.Kind == model.KindMedication {
		return "💊 " + item.Name, "Hora de tomar o medicamento."
	}
	return "⏰ " + item.Name, "Você tem um lembrete agendado."
}
