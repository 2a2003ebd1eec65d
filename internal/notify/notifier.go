// Package notify abstracts the platform that actually delivers reminders.
// The engine only decides what to schedule and what to cancel; delivery and
// timer mechanics live behind the Notifier interface.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mariastapazzol/sanare/internal/model"
)

// Request describes one notification slot. Time is set for daily-repeating
// slots; At is set for one-shot slots (dated reminders). Exactly one of the
// two is used.
type Request struct {
	ID    string
	Title string
	Body  string
	Time  string // HH:MM, fires every day
	At    *time.Time
}

// Repeats reports whether the request is a daily-repeating slot.
func (r Request) Repeats() bool {
	return r.At == nil
}

// Notifier is the platform notification store. In contexts that cannot
// deliver notifications implementations report Enabled() == false and behave
// as no-ops returning empty/zero values.
type Notifier interface {
	Enabled() bool
	ScheduleBatch(ctx context.Context, requests []Request) error
	CancelBatch(ctx context.Context, ids []string) error
	PendingCount() int
}

// Sender delivers one rendered notification to the user.
type Sender interface {
	Send(title, body string) error
}

// Noop is the degraded-mode notifier for contexts without a delivery channel.
type Noop struct{}

func (Noop) Enabled() bool { return false }

func (Noop) ScheduleBatch(context.Context, []Request) error { return nil }

func (Noop) CancelBatch(context.Context, []string) error { return nil }

func (Noop) PendingCount() int { return 0 }

// CronNotifier registers daily-repeating slots as cron entries and one-shot
// slots as timers, delivering through a Sender when they fire.
type CronNotifier struct {
	cron   *cron.Cron
	sender Sender
	loc    *time.Location

	mu      sync.Mutex
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
}

func NewCronNotifier(sender Sender, loc *time.Location) *CronNotifier {
	if loc == nil {
		loc = time.Local
	}
	return &CronNotifier{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		sender:  sender,
		loc:     loc,
		entries: make(map[string]cron.EntryID),
		timers:  make(map[string]*time.Timer),
	}
}

func (n *CronNotifier) Enabled() bool { return true }

func (n *CronNotifier) Start() {
	n.cron.Start()
}

// Stop halts the cron runner and drops all pending one-shot timers.
func (n *CronNotifier) Stop() {
	ctx := n.cron.Stop()
	<-ctx.Done()

	n.mu.Lock()
	defer n.mu.Unlock()
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
}

// ScheduleBatch registers the whole batch or nothing: on a mid-batch error
// the slots already registered are unwound before returning, since callers
// discard every id on failure and could never cancel the leftovers.
func (n *CronNotifier) ScheduleBatch(ctx context.Context, requests []Request) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	registered := make([]string, 0, len(requests))
	for _, req := range requests {
		if err := n.schedule(req); err != nil {
			n.removeLocked(registered)
			return err
		}
		registered = append(registered, req.ID)
	}
	return nil
}

func (n *CronNotifier) schedule(req Request) error {
	if req.Repeats() {
		spec, err := buildDailySpec(req.Time)
		if err != nil {
			return err
		}
		entryID, err := n.cron.AddFunc(spec, func() { n.deliver(req) })
		if err != nil {
			return fmt.Errorf("schedule %s: %w", req.ID, err)
		}
		n.entries[req.ID] = entryID
		return nil
	}

	delay := time.Until(*req.At)
	if delay <= 0 {
		// Already elapsed; nothing to arm.
		return nil
	}
	n.timers[req.ID] = time.AfterFunc(delay, func() {
		n.deliver(req)
		n.mu.Lock()
		delete(n.timers, req.ID)
		n.mu.Unlock()
	})
	return nil
}

// CancelBatch removes the given slots. Unknown ids are logged and skipped:
// a stale handle must never block the rest of a resync.
func (n *CronNotifier) CancelBatch(ctx context.Context, ids []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, id := range ids {
		if entryID, ok := n.entries[id]; ok {
			n.cron.Remove(entryID)
			delete(n.entries, id)
			continue
		}
		if timer, ok := n.timers[id]; ok {
			timer.Stop()
			delete(n.timers, id)
			continue
		}
		log.Printf("[warn] cancel: unknown notification id %s", id)
	}
	return nil
}

// removeLocked drops slots without logging; callers hold n.mu.
func (n *CronNotifier) removeLocked(ids []string) {
	for _, id := range ids {
		if entryID, ok := n.entries[id]; ok {
			n.cron.Remove(entryID)
			delete(n.entries, id)
			continue
		}
		if timer, ok := n.timers[id]; ok {
			timer.Stop()
			delete(n.timers, id)
		}
	}
}

func (n *CronNotifier) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries) + len(n.timers)
}

func (n *CronNotifier) deliver(req Request) {
	if err := n.sender.Send(req.Title, req.Body); err != nil {
		log.Printf("[warn] deliver notification %s: %v", req.ID, err)
	}
}

func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := model.ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
