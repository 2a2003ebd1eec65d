// Package clock resolves the canonical day key and midnight boundaries.
package clock

import (
	"context"
	"log"
	"time"

	"github.com/mariastapazzol/sanare/internal/model"
)

// Source supplies the authoritative wall-clock time. Implementations may fail
// (network time, server RPC); the resolver falls back to the device clock.
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// SystemSource reads the device clock and never fails.
type SystemSource struct{}

func (SystemSource) Now(context.Context) (time.Time, error) {
	return time.Now(), nil
}

// Resolver produces day keys in a fixed location.
type Resolver struct {
	source Source
	loc    *time.Location
}

func NewResolver(source Source, loc *time.Location) *Resolver {
	if source == nil {
		source = SystemSource{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{source: source, loc: loc}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// TodayKey returns today's YYYY-MM-DD key from the authoritative source,
// falling back to the local clock if the source errors. Never fails.
func (r *Resolver) TodayKey(ctx context.Context) string {
	now, err := r.source.Now(ctx)
	if err != nil {
		log.Printf("[warn] clock source unavailable, using local time: %v", err)
		now = time.Now()
	}
	return now.In(r.loc).Format(model.DayLayout)
}

// UntilNextMidnight returns the delta from now to the next local midnight.
// At exactly 00:00:00 the delta is a full day: that instant belongs to the day
// that just started. Negative deltas from clock skew are clamped to zero.
func (r *Resolver) UntilNextMidnight(now time.Time) time.Duration {
	now = now.In(r.loc)
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, r.loc)
	d := next.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
