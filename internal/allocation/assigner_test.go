package allocation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/store"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	hour := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"identical windows", hour(0), hour(1), hour(0), hour(1), true},
		{"partial overlap", hour(0), hour(2), hour(1), hour(3), true},
		{"contained window", hour(0), hour(3), hour(1), hour(2), true},
		{"back to back", hour(0), hour(1), hour(1), hour(2), false},
		{"back to back reversed", hour(1), hour(2), hour(0), hour(1), false},
		{"disjoint", hour(0), hour(1), hour(2), hour(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignCourtPicksLowestFreeNumber(t *testing.T) {
	_, database, club := setupEngineTest(t, 3, "UTC")
	ctx := context.Background()
	st := database.Store

	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}

	// Court 1 hosts a confirmed class over the window.
	taken := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	if err := st.AssignSlotCourt(ctx, taken.ID, courts[0].ID); err != nil {
		t.Fatalf("assign court: %v", err)
	}

	court, err := AssignCourt(ctx, st, club.ID, testSlotStart, testSlotStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if court.Number != 2 {
		t.Errorf("assigned court %d, want 2", court.Number)
	}

	// A back-to-back window does not collide with the confirmed class.
	court, err = AssignCourt(ctx, st, club.ID, testSlotStart.Add(time.Hour), testSlotStart.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("assign adjacent: %v", err)
	}
	if court.Number != 1 {
		t.Errorf("adjacent window assigned court %d, want 1", court.Number)
	}
}

func TestAssignCourtHonorsScheduleBlocks(t *testing.T) {
	_, database, club := setupEngineTest(t, 2, "UTC")
	ctx := context.Background()
	st := database.Store

	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}

	// Court 1 is under maintenance over the window.
	if _, err := st.CreateScheduleBlock(ctx, store.CreateScheduleBlockParams{
		CourtID:   courts[0].ID,
		StartTime: testSlotStart.Add(-time.Hour),
		EndTime:   testSlotStart.Add(30 * time.Minute),
		Reason:    "maintenance",
	}); err != nil {
		t.Fatalf("create schedule block: %v", err)
	}

	court, err := AssignCourt(ctx, st, club.ID, testSlotStart, testSlotStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if court.Number != 2 {
		t.Errorf("assigned court %d, want 2", court.Number)
	}
}

func TestAssignCourtSkipsInactiveCourts(t *testing.T) {
	_, database, club := setupEngineTest(t, 2, "UTC")
	ctx := context.Background()
	st := database.Store

	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}
	if err := st.SetCourtActive(ctx, courts[0].ID, false); err != nil {
		t.Fatalf("deactivate court: %v", err)
	}

	court, err := AssignCourt(ctx, st, club.ID, testSlotStart, testSlotStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if court.Number != 2 {
		t.Errorf("assigned court %d, want 2", court.Number)
	}
}

func TestAssignCourtNoneAvailable(t *testing.T) {
	_, database, club := setupEngineTest(t, 1, "UTC")
	ctx := context.Background()
	st := database.Store

	taken := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}
	if err := st.AssignSlotCourt(ctx, taken.ID, courts[0].ID); err != nil {
		t.Fatalf("assign court: %v", err)
	}

	_, err = AssignCourt(ctx, st, club.ID, testSlotStart.Add(30*time.Minute), testSlotStart.Add(90*time.Minute))
	if !errors.Is(err, ErrNoCourtAvailable) {
		t.Fatalf("expected ErrNoCourtAvailable, got %v", err)
	}
}

func TestReleaseCourtClearsAssignmentAndBlocks(t *testing.T) {
	_, database, club := setupEngineTest(t, 1, "UTC")
	ctx := context.Background()
	st := database.Store

	slot := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	court, err := AssignCourt(ctx, st, club.ID, slot.StartTime, slot.EndTime)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := attachCourt(ctx, st, slot, court); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !mustSlot(t, database, slot.ID).Confirmed() {
		t.Fatal("slot should be confirmed after attach")
	}

	if err := ReleaseCourt(ctx, st, slot.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	after := mustSlot(t, database, slot.ID)
	if after.Confirmed() {
		t.Error("court assignment should be cleared")
	}
	if after.CourtID != (sql.NullInt64{}) {
		t.Errorf("court_id should be null, got %+v", after.CourtID)
	}
	blocked, err := st.ListBlockedCourtIDs(ctx, club.ID, slot.StartTime, slot.EndTime)
	if err != nil {
		t.Fatalf("list blocked courts: %v", err)
	}
	if len(blocked) != 0 {
		t.Errorf("schedule entries should be deleted, got %v", blocked)
	}
}
