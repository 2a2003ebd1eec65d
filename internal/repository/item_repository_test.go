package repository

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mariastapazzol/sanare/internal/model"
)

func openItemRepo(t *testing.T) *ItemRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewItemRepository(db)
}

func TestCreateNormalizesSchedule(t *testing.T) {
	ctx := context.Background()
	repo := openItemRepo(t)

	item := &model.RecurringItem{
		ProfileID: "p1",
		Kind:      model.KindReminder,
		Name:      "Consulta",
		Times:     []string{"14:00", "08:00", "08:00"},
		Dates:     []string{"2024-03-12", "2024-03-11"},
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored, err := repo.FindByID(ctx, "p1", item.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !reflect.DeepEqual(stored.Times, []string{"08:00", "14:00"}) {
		t.Fatalf("Times = %v, want sorted deduped", stored.Times)
	}
	if !reflect.DeepEqual(stored.Dates, []string{"2024-03-11", "2024-03-12"}) {
		t.Fatalf("Dates = %v, want sorted", stored.Dates)
	}
}

func TestCreateRejectsInvalidTimes(t *testing.T) {
	repo := openItemRepo(t)
	item := &model.RecurringItem{
		ProfileID: "p1",
		Kind:      model.KindMedication,
		Name:      "Paracetamol",
		Times:     []string{"25:00"},
	}
	if err := repo.Create(context.Background(), item); err == nil {
		t.Fatal("Create accepted an invalid time")
	}
}

func TestUpdateNotificationIDsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openItemRepo(t)

	item := &model.RecurringItem{
		ProfileID: "p1",
		Kind:      model.KindMedication,
		Name:      "Paracetamol",
		Times:     []string{"08:00"},
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateNotificationIDs(ctx, item.ID, []string{"n-1", "n-2"}); err != nil {
		t.Fatalf("UpdateNotificationIDs: %v", err)
	}
	stored, err := repo.FindByID(ctx, "p1", item.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !reflect.DeepEqual(stored.NotificationIDs, []string{"n-1", "n-2"}) {
		t.Fatalf("NotificationIDs = %v", stored.NotificationIDs)
	}

	// Replacing with the empty list clears stale handles.
	if err := repo.UpdateNotificationIDs(ctx, item.ID, nil); err != nil {
		t.Fatalf("UpdateNotificationIDs(nil): %v", err)
	}
	stored, err = repo.FindByID(ctx, "p1", item.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(stored.NotificationIDs) != 0 {
		t.Fatalf("NotificationIDs = %v, want empty", stored.NotificationIDs)
	}
}

func TestDeleteScopedToProfile(t *testing.T) {
	ctx := context.Background()
	repo := openItemRepo(t)

	mine := &model.RecurringItem{ProfileID: "p1", Kind: model.KindMedication, Name: "Paracetamol", Times: []string{"08:00"}}
	theirs := &model.RecurringItem{ProfileID: "p2", Kind: model.KindMedication, Name: "Ibuprofeno", Times: []string{"08:00"}}
	for _, item := range []*model.RecurringItem{mine, theirs} {
		if err := repo.Create(ctx, item); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// Deleting with the wrong profile must not touch the row.
	if err := repo.Delete(ctx, "p2", mine.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, "p1", mine.ID); err != nil {
		t.Fatalf("item vanished on foreign-profile delete: %v", err)
	}

	if err := repo.Delete(ctx, "p1", mine.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, "p1", mine.ID); err == nil {
		t.Fatal("item still present after delete")
	}

	others, err := repo.ListMedications(ctx, "p2")
	if err != nil {
		t.Fatalf("ListMedications: %v", err)
	}
	if len(others) != 1 {
		t.Fatalf("p2 has %d medications, want 1", len(others))
	}
}
