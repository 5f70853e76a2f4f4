package assignment

import (
	"context"
	"testing"
	"time"

	"glp/internal/adapters/storage/storagetest"
	domain "glp/internal/domain/assignment"
)

// TestList_OrderAndFilter verifies due-date ordering with undated rows last.
func TestList_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	storagetest.SeedUser(t, db, "m1", "mentor")
	storagetest.SeedUser(t, db, "p1", "participant")
	s := NewSQLiteStore(db)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Assignment{
		{ID: "a1", AssignedBy: "m1", AssignedTo: "p1", Title: "Undated", Status: domain.StatusPending, CreatedAt: created},
		{ID: "a2", AssignedBy: "m1", AssignedTo: "p1", Title: "Later", Status: domain.StatusPending, DueDate: created.AddDate(0, 2, 0), CreatedAt: created},
		{ID: "a3", AssignedBy: "m1", AssignedTo: "m1", Title: "Sooner", Status: domain.StatusInProgress, DueDate: created.AddDate(0, 1, 0), CreatedAt: created},
	}
	for _, a := range rows {
		if err := s.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Errorf("unexpected order %+v", all)
	}
	mine, _ := s.List(ctx, ListFilter{AssignedTo: "p1"})
	if len(mine) != 2 || mine[0].AssigneeName != "Firstp1 Lastp1" {
		t.Errorf("unexpected rows %+v", mine)
	}
}
