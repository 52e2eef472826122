// Package storetest holds the behaviour every repository.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("create week", func(t *testing.T) { testCreateWeek(t, newStore(t)) })
	t.Run("planning records", func(t *testing.T) { testPlanning(t, newStore(t)) })
	t.Run("non-conformity reports", func(t *testing.T) { testNonConformity(t, newStore(t)) })
	t.Run("atomic rollback", func(t *testing.T) { testAtomicRollback(t, newStore(t)) })
	t.Run("delete week cascades", func(t *testing.T) { testDeleteWeek(t, newStore(t)) })
}

var keyA = models.PlanningKey{Week: "semaine47", Day: models.Monday, Line: "L1", Reference: "REF-A"}

func seedWeek(t *testing.T, s repository.Store) []models.PlanningRecord {
	t.Helper()
	week := &models.Week{
		Name:      "semaine47",
		StartDate: time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 11, 21, 0, 0, 0, 0, time.UTC),
		CreatedBy: "u-1",
	}
	records := []models.PlanningRecord{
		{Day: models.Monday, Line: "L1", Reference: "REF-A", PlannedQty: 100},
		{Day: models.Monday, Line: "L1", Reference: "REF-B", PlannedQty: 50},
		{Day: models.Tuesday, Line: "L2", Reference: "REF-A", PlannedQty: 10},
	}
	if err := s.CreateWeek(context.Background(), week, records); err != nil {
		t.Fatalf("CreateWeek: %v", err)
	}
	return records
}

func wantKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("err = %v, want kind %s", err, kind)
	}
}

func testCreateWeek(t *testing.T, s repository.Store) {
	ctx := context.Background()
	records := seedWeek(t, s)

	week, err := s.FindWeek(ctx, "semaine47")
	if err != nil {
		t.Fatalf("FindWeek: %v", err)
	}
	for _, rec := range records {
		if rec.ID == 0 || rec.WeekID != week.ID || rec.WeekName != "semaine47" {
			t.Fatalf("record not linked to week: %+v", rec)
		}
	}

	err = s.CreateWeek(ctx, &models.Week{Name: "semaine47", StartDate: week.StartDate, EndDate: week.EndDate}, nil)
	wantKind(t, err, apperror.KindConflict)

	dup := []models.PlanningRecord{
		{Day: models.Monday, Line: "L1", Reference: "REF-A"},
		{Day: models.Monday, Line: "L1", Reference: "REF-A"},
	}
	err = s.CreateWeek(ctx, &models.Week{Name: "semaine48", StartDate: week.StartDate.AddDate(0, 0, 7), EndDate: week.EndDate.AddDate(0, 0, 7)}, dup)
	wantKind(t, err, apperror.KindConflict)
	_, err = s.FindWeek(ctx, "semaine48")
	wantKind(t, err, apperror.KindNotFound)
	if left, _ := s.ListPlanning(ctx, models.PlanningFilter{Week: "semaine48"}); len(left) != 0 {
		t.Fatalf("%d records kept from a rejected week", len(left))
	}

	weeks, err := s.ListWeeks(ctx)
	if err != nil || len(weeks) != 1 {
		t.Fatalf("ListWeeks = %v, %v", weeks, err)
	}

	_, err = s.FindWeek(ctx, "semaine48")
	wantKind(t, err, apperror.KindNotFound)
}

func testPlanning(t *testing.T, s repository.Store) {
	ctx := context.Background()
	seedWeek(t, s)

	rec, err := s.FindPlanning(ctx, keyA)
	if err != nil {
		t.Fatalf("FindPlanning: %v", err)
	}
	rec.DeclaredProduction = 90
	rec.Delta = -10
	if err := s.SavePlanning(ctx, rec); err != nil {
		t.Fatalf("SavePlanning: %v", err)
	}
	got, err := s.FindPlanningForUpdate(ctx, keyA)
	if err != nil || got.DeclaredProduction != 90 || got.Delta != -10 {
		t.Fatalf("after save = %+v, %v", got, err)
	}

	lineOne, err := s.ListPlanning(ctx, models.PlanningFilter{Week: "semaine47", Line: "L1"})
	if err != nil || len(lineOne) != 2 {
		t.Fatalf("ListPlanning(L1) = %d records, %v", len(lineOne), err)
	}
	refA, err := s.ListPlanning(ctx, models.PlanningFilter{Reference: "REF-A"})
	if err != nil || len(refA) != 2 || refA[0].ID > refA[1].ID {
		t.Fatalf("ListPlanning(REF-A) = %+v, %v", refA, err)
	}

	dup := &models.PlanningRecord{WeekName: "semaine47", Day: models.Monday, Line: "L1", Reference: "REF-A"}
	wantKind(t, s.CreatePlanning(ctx, dup), apperror.KindConflict)

	orphan := &models.PlanningRecord{WeekName: "semaine50", Day: models.Monday, Line: "L1", Reference: "REF-A"}
	wantKind(t, s.CreatePlanning(ctx, orphan), apperror.KindNotFound)

	if err := s.DeletePlanning(ctx, keyA); err != nil {
		t.Fatalf("DeletePlanning: %v", err)
	}
	_, err = s.FindPlanning(ctx, keyA)
	wantKind(t, err, apperror.KindNotFound)
	wantKind(t, s.DeletePlanning(ctx, keyA), apperror.KindNotFound)
}

func testNonConformity(t *testing.T, s repository.Store) {
	ctx := context.Background()
	records := seedWeek(t, s)
	id := records[0].ID

	_, err := s.FindNonConformity(ctx, id)
	wantKind(t, err, apperror.KindNotFound)

	comment := "press down"
	report := &models.NonConformity{PlanningID: id, Causes: models.Causes{Absence: 10}, Total: 10, Comment: &comment}
	if err := s.SaveNonConformity(ctx, report); err != nil {
		t.Fatalf("create report: %v", err)
	}
	if report.ID == 0 {
		t.Fatal("report id not assigned")
	}

	second := &models.NonConformity{PlanningID: id, Total: 1}
	wantKind(t, s.SaveNonConformity(ctx, second), apperror.KindConflict)

	report.Causes.Quality = 5
	report.Total = 15
	if err := s.SaveNonConformity(ctx, report); err != nil {
		t.Fatalf("update report: %v", err)
	}

	got, err := s.FindNonConformity(ctx, id)
	if err != nil || got.Total != 15 || got.Quality != 5 || got.Comment == nil || *got.Comment != comment {
		t.Fatalf("FindNonConformity = %+v, %v", got, err)
	}

	byPlanning, err := s.NonConformitiesByPlanning(ctx, []uint{id, records[1].ID})
	if err != nil || len(byPlanning) != 1 || byPlanning[id].Total != 15 {
		t.Fatalf("NonConformitiesByPlanning = %+v, %v", byPlanning, err)
	}
	empty, err := s.NonConformitiesByPlanning(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("NonConformitiesByPlanning(nil) = %+v, %v", empty, err)
	}

	if err := s.DeleteNonConformity(ctx, id); err != nil {
		t.Fatalf("DeleteNonConformity: %v", err)
	}
	wantKind(t, s.DeleteNonConformity(ctx, id), apperror.KindNotFound)
}

func testAtomicRollback(t *testing.T, s repository.Store) {
	ctx := context.Background()
	records := seedWeek(t, s)
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx repository.Store) error {
		rec, err := tx.FindPlanningForUpdate(ctx, keyA)
		if err != nil {
			return err
		}
		rec.DeclaredProduction = 1
		if err := tx.SavePlanning(ctx, rec); err != nil {
			return err
		}
		if err := tx.SaveNonConformity(ctx, &models.NonConformity{PlanningID: rec.ID, Total: 99}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic err = %v", err)
	}

	rec, err := s.FindPlanning(ctx, keyA)
	if err != nil || rec.DeclaredProduction != 0 {
		t.Fatalf("planning after rollback = %+v, %v", rec, err)
	}
	_, err = s.FindNonConformity(ctx, records[0].ID)
	wantKind(t, err, apperror.KindNotFound)

	err = s.Atomic(ctx, func(tx repository.Store) error {
		return tx.SaveNonConformity(ctx, &models.NonConformity{PlanningID: records[0].ID, Total: 3})
	})
	if err != nil {
		t.Fatalf("Atomic commit: %v", err)
	}
	if got, err := s.FindNonConformity(ctx, records[0].ID); err != nil || got.Total != 3 {
		t.Fatalf("report after commit = %+v, %v", got, err)
	}
}

func testDeleteWeek(t *testing.T, s repository.Store) {
	ctx := context.Background()
	records := seedWeek(t, s)
	if err := s.SaveNonConformity(ctx, &models.NonConformity{PlanningID: records[0].ID, Total: 4}); err != nil {
		t.Fatalf("create report: %v", err)
	}

	if err := s.DeleteWeek(ctx, "semaine47"); err != nil {
		t.Fatalf("DeleteWeek: %v", err)
	}

	remaining, err := s.ListPlanning(ctx, models.PlanningFilter{})
	if err != nil || len(remaining) != 0 {
		t.Fatalf("planning after delete = %+v, %v", remaining, err)
	}
	reports, err := s.NonConformitiesByPlanning(ctx, []uint{records[0].ID})
	if err != nil || len(reports) != 0 {
		t.Fatalf("reports after delete = %+v, %v", reports, err)
	}
	wantKind(t, s.DeleteWeek(ctx, "semaine47"), apperror.KindNotFound)
}
