package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mariastapazzol/sanare/internal/clock"
)

// ForegroundSource emits a signal whenever the application returns to the
// user's attention. The Telegram bot feeds this from its update stream;
// headless contexts plug in NoopForeground.
type ForegroundSource interface {
	// OnForeground registers fn and returns a cancel func detaching it.
	OnForeground(fn func()) (cancel func())
}

// NoopForeground never signals.
type NoopForeground struct{}

func (NoopForeground) OnForeground(func()) (cancel func()) { return func() {} }

// Reloader is the single action both reconciler triggers converge on.
type Reloader interface {
	Reload(ctx context.Context) error
	DayKey() string
}

// Reconciler re-runs the checklist projection when the calendar day changes:
// a self-rescheduling one-shot timer armed for the next local midnight, plus
// a foreground watcher that reloads when the day rolled over while idle.
type Reconciler struct {
	resolver   *clock.Resolver
	reloader   Reloader
	foreground ForegroundSource
	grace      time.Duration
	now        func() time.Time
	after      func(d time.Duration, fn func()) *time.Timer

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewReconciler(resolver *clock.Resolver, reloader Reloader, foreground ForegroundSource) *Reconciler {
	if foreground == nil {
		foreground = NoopForeground{}
	}
	return &Reconciler{
		resolver:   resolver,
		reloader:   reloader,
		foreground: foreground,
		// Fire a moment past the boundary so the reload resolves its day key
		// safely inside the new day.
		grace: 2 * time.Second,
		now:   time.Now,
		after: time.AfterFunc,
	}
}

// Start arms the midnight timer and subscribes to foreground signals. The
// returned stop func disarms the timer and detaches the listener; it must be
// called on teardown or repeated start/stop cycles leak timers.
func (r *Reconciler) Start(ctx context.Context) (stop func()) {
	r.arm(ctx)
	cancelForeground := r.foreground.OnForeground(func() { r.onForeground(ctx) })
	return func() {
		r.mu.Lock()
		r.stopped = true
		if r.timer != nil {
			r.timer.Stop()
			r.timer = nil
		}
		r.mu.Unlock()
		cancelForeground()
	}
}

// arm schedules a one-shot for the next midnight and re-arms after it fires.
// Recomputing the delay each time keeps the boundary correct across DST
// shifts, unlike a fixed 24h interval.
func (r *Reconciler) arm(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	delay := r.resolver.UntilNextMidnight(r.now()) + r.grace
	r.timer = r.after(delay, func() {
		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return
		}
		r.reload(ctx, "midnight")
		r.arm(ctx)
	})
}

// onForeground reloads only when the day key moved past the one last
// projected; waking up within the same day is a no-op.
func (r *Reconciler) onForeground(ctx context.Context) {
	if r.resolver.TodayKey(ctx) == r.reloader.DayKey() {
		return
	}
	r.reload(ctx, "foreground")
}

func (r *Reconciler) reload(ctx context.Context, trigger string) {
	if err := r.reloader.Reload(ctx); err != nil {
		// Previous in-memory state stays; the next trigger retries naturally.
		log.Printf("[warn] %s reload failed: %v", trigger, err)
	}
}
