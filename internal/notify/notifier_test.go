package notify

import (
	"context"
	"testing"
	"time"
)

type discardSender struct{}

func (discardSender) Send(string, string) error { return nil }

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "0 0 8 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := buildDailySpec(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("buildDailySpec(%q) accepted invalid input", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("buildDailySpec(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCronNotifierTracksPendingSlots(t *testing.T) {
	n := NewCronNotifier(discardSender{}, time.UTC)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	requests := []Request{
		{ID: "a", Title: "t", Body: "b", Time: "08:00"},
		{ID: "b", Title: "t", Body: "b", At: &future},
	}
	if err := n.ScheduleBatch(ctx, requests); err != nil {
		t.Fatalf("ScheduleBatch: %v", err)
	}
	if got := n.PendingCount(); got != 2 {
		t.Fatalf("PendingCount = %d, want 2", got)
	}

	// Unknown ids are skipped, known ones removed.
	if err := n.CancelBatch(ctx, []string{"a", "b", "ghost"}); err != nil {
		t.Fatalf("CancelBatch: %v", err)
	}
	if got := n.PendingCount(); got != 0 {
		t.Fatalf("PendingCount after cancel = %d, want 0", got)
	}
}

func TestScheduleBatchUnwindsOnError(t *testing.T) {
	n := NewCronNotifier(discardSender{}, time.UTC)

	future := time.Now().Add(time.Hour)
	err := n.ScheduleBatch(context.Background(), []Request{
		{ID: "a", Title: "t", Body: "b", Time: "08:00"},
		{ID: "b", Title: "t", Body: "b", At: &future},
		{ID: "broken", Title: "t", Body: "b", Time: "25:00"},
	})
	if err == nil {
		t.Fatal("ScheduleBatch accepted an invalid slot")
	}
	if got := n.PendingCount(); got != 0 {
		t.Fatalf("PendingCount = %d after failed batch, want 0 (all-or-nothing)", got)
	}
}

func TestCronNotifierSkipsElapsedOneShot(t *testing.T) {
	n := NewCronNotifier(discardSender{}, time.UTC)

	past := time.Now().Add(-time.Minute)
	err := n.ScheduleBatch(context.Background(), []Request{
		{ID: "late", Title: "t", Body: "b", At: &past},
	})
	if err != nil {
		t.Fatalf("ScheduleBatch: %v", err)
	}
	if got := n.PendingCount(); got != 0 {
		t.Fatalf("PendingCount = %d, want 0 for an elapsed instant", got)
	}
}

func TestNoopIsDisabledAndEmpty(t *testing.T) {
	var n Notifier = Noop{}
	if n.Enabled() {
		t.Fatal("Noop reports enabled")
	}
	if err := n.ScheduleBatch(context.Background(), []Request{{ID: "x"}}); err != nil {
		t.Fatalf("ScheduleBatch: %v", err)
	}
	if err := n.CancelBatch(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("CancelBatch: %v", err)
	}
	if n.PendingCount() != 0 {
		t.Fatal("Noop pending count not zero")
	}
}
