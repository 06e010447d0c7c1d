package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtsidehq/courtside/internal/store"
)

func TestCheckDailyConflictUsesClubLocalDay(t *testing.T) {
	engine, database, club := setupEngineTest(t, 1, "Europe/Madrid")
	ctx := context.Background()
	st := database.Store

	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 22:30 UTC on Aug 31 is already Sep 1 in Madrid.
	lateStart := time.Date(2026, 8, 31, 22, 30, 0, 0, time.UTC)
	slot := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: lateStart})
	ana := addPlayer(t, database, club.ID, "Ana", 10000, 0)

	booking, err := engine.Join(ctx, slot.ID, ana.ID, 1, "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if booking.Status != store.BookingStatusConfirmed {
		t.Fatalf("booking status %s, want CONFIRMED", booking.Status)
	}

	// Sep 1 noon UTC is the same Madrid day: conflict.
	noon := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	err = CheckDailyConflict(ctx, st, ana.ID, noon, madrid, 0)
	if !errors.Is(err, ErrDuplicateDailyBooking) {
		t.Errorf("expected ErrDuplicateDailyBooking on the Madrid day, got %v", err)
	}

	// Under UTC both bookings fall on different days; the club day decides.
	err = CheckDailyConflict(ctx, st, ana.ID, noon, time.UTC, 0)
	if err != nil {
		t.Errorf("UTC days differ, expected no conflict, got %v", err)
	}

	// The slot never conflicts with itself.
	err = CheckDailyConflict(ctx, st, ana.ID, lateStart, madrid, slot.ID)
	if err != nil {
		t.Errorf("excluded slot should not conflict, got %v", err)
	}
}

func TestAuditOverlapsReleasesLaterCreatedClass(t *testing.T) {
	_, database, club := setupEngineTest(t, 1, "UTC")
	ctx := context.Background()
	st := database.Store

	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}
	ana := addPlayer(t, database, club.ID, "Ana", 0, 0)

	// Force the invariant violation the assigner normally prevents: two
	// confirmed classes with overlapping windows on the same court.
	first := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	second := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart.Add(30 * time.Minute)})
	for _, slot := range []store.ClassSlot{first, second} {
		if err := st.AssignSlotCourt(ctx, slot.ID, courts[0].ID); err != nil {
			t.Fatalf("assign court: %v", err)
		}
		if _, err := st.CreateBooking(ctx, store.CreateBookingParams{
			ID:          uuid.NewString(),
			SlotID:      slot.ID,
			PlayerID:    ana.ID,
			GroupSize:   1,
			Status:      store.BookingStatusConfirmed,
			AmountCents: 2500,
		}); err != nil {
			t.Fatalf("create booking: %v", err)
		}
	}

	guard, err := NewGuard(database)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	repairs, err := guard.AuditOverlaps(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if repairs != 1 {
		t.Fatalf("repairs = %d, want 1", repairs)
	}
	if !mustSlot(t, database, first.ID).Confirmed() {
		t.Error("earlier-created class should keep its court")
	}
	if mustSlot(t, database, second.ID).Confirmed() {
		t.Error("later-created class should be released")
	}
}

func TestAuditOverlapsReleasesOrphanedClasses(t *testing.T) {
	_, database, club := setupEngineTest(t, 1, "UTC")
	ctx := context.Background()
	st := database.Store

	courts, err := st.ListActiveCourts(ctx, club.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}

	// Confirmed class, zero active bookings: should not exist.
	orphan := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	if err := st.AssignSlotCourt(ctx, orphan.ID, courts[0].ID); err != nil {
		t.Fatalf("assign court: %v", err)
	}

	guard, err := NewGuard(database)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	repairs, err := guard.AuditOverlaps(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if repairs != 1 {
		t.Fatalf("repairs = %d, want 1", repairs)
	}
	if mustSlot(t, database, orphan.ID).Confirmed() {
		t.Error("orphaned class should be released")
	}
}

func TestAuditOverlapsCleanState(t *testing.T) {
	engine, database, club := setupEngineTest(t, 1, "UTC")
	ctx := context.Background()

	// A properly confirmed class is left alone.
	slot := addSlot(t, database, store.CreateClassSlotParams{ClubID: club.ID, StartTime: testSlotStart})
	ana := addPlayer(t, database, club.ID, "Ana", 10000, 0)
	if _, err := engine.Join(ctx, slot.ID, ana.ID, 1, ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	guard, err := NewGuard(database)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	repairs, err := guard.AuditOverlaps(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if repairs != 0 {
		t.Errorf("repairs = %d, want 0", repairs)
	}
	if !mustSlot(t, database, slot.ID).Confirmed() {
		t.Error("healthy class should keep its court")
	}
}
