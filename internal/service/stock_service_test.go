package service

import (
	"context"
	"testing"

	"github.com/mariastapazzol/sanare/internal/model"
)

type fakeStockRepo struct {
	item  model.RecurringItem
	delta int
}

func (f *fakeStockRepo) FindByID(context.Context, string, uint) (*model.RecurringItem, error) {
	item := f.item
	return &item, nil
}

func (f *fakeStockRepo) AdjustStock(_ context.Context, _ uint, delta int) error {
	f.delta += delta
	return nil
}

func TestHasSufficientStock(t *testing.T) {
	tests := []struct {
		name string
		item model.RecurringItem
		want bool
	}{
		{"enough", model.RecurringItem{Kind: model.KindMedication, StockUnits: 2, DoseUnits: 2}, true},
		{"short", model.RecurringItem{Kind: model.KindMedication, StockUnits: 1, DoseUnits: 2}, false},
		{"no dose configured", model.RecurringItem{Kind: model.KindMedication, StockUnits: 0}, true},
		{"reminder never blocked", model.RecurringItem{Kind: model.KindReminder}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewStockService(&fakeStockRepo{item: tt.item}, "p1")
			got, err := svc.HasSufficientStock(context.Background(), 1)
			if err != nil {
				t.Fatalf("HasSufficientStock: %v", err)
			}
			if got != tt.want {
				t.Fatalf("HasSufficientStock = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsumeAndRestoreMoveOneDose(t *testing.T) {
	repo := &fakeStockRepo{item: model.RecurringItem{Kind: model.KindMedication, StockUnits: 10, DoseUnits: 2}}
	svc := NewStockService(repo, "p1")
	ctx := context.Background()

	if err := svc.Consume(ctx, 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if repo.delta != -2 {
		t.Fatalf("delta after consume = %d, want -2", repo.delta)
	}
	if err := svc.Restore(ctx, 1); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if repo.delta != 0 {
		t.Fatalf("delta after restore = %d, want 0", repo.delta)
	}
}

func TestConsumeNoopWithoutDose(t *testing.T) {
	repo := &fakeStockRepo{item: model.RecurringItem{Kind: model.KindReminder}}
	svc := NewStockService(repo, "p1")
	if err := svc.Consume(context.Background(), 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if repo.delta != 0 {
		t.Fatalf("reminder consume adjusted stock by %d", repo.delta)
	}
}
