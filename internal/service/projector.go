package service

import (
	"fmt"
	"sort"

	"github.com/mariastapazzol/sanare/internal/model"
)

// Entry is one projected checklist slot: a (recurring item, scheduled time)
// pair for the current day. Entries are rebuilt from scratch on every
// projection; only their flags live in the status store.
type Entry struct {
	ID       string
	ItemID   uint
	Kind     model.ItemKind
	Name     string
	Time     string
	Checked  bool
	Inactive bool
}

// Pending reports whether the slot still needs user action.
func (e Entry) Pending() bool {
	return !e.Checked && !e.Inactive
}

// EntryID builds the deterministic composite id for a slot. The same tuple
// always produces the same id, so projections are stable across runs.
func EntryID(kind model.ItemKind, itemID uint, timeStr string) string {
	return fmt.Sprintf("%s-%d-%s", kind, itemID, timeStr)
}

// Project expands every item into one pending entry per scheduled time,
// merges persisted flags matched on the natural key, and returns the list
// sorted ascending by time. Pure: no I/O, callers fetch both inputs first.
func Project(items []model.RecurringItem, statuses []model.DailyStatus) []Entry {
	byKey := make(map[string]model.DailyStatus, len(statuses))
	for _, st := range statuses {
		byKey[EntryID(st.Kind, st.ItemID, st.ScheduledTime)] = st
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		for _, t := range item.Times {
			entry := Entry{
				ID:     EntryID(item.Kind, item.ID, t),
				ItemID: item.ID,
				Kind:   item.Kind,
				Name:   item.Name,
				Time:   t,
			}
			if st, ok := byKey[entry.ID]; ok {
				entry.Checked = st.Checked
				entry.Inactive = st.Inactive
			}
			entries = append(entries, entry)
		}
	}

	// Zero-padded HH:MM sorts correctly as a string; ties break on name so
	// identical inputs always yield identical order.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time < entries[j].Time
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
