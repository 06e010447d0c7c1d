package readmodel

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func TestBuildSlotView(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	st := database.Store

	club, err := st.CreateClub(ctx, "Test Club", "test-club", "UTC")
	if err != nil {
		t.Fatalf("create club: %v", err)
	}
	court, err := st.CreateCourt(ctx, club.ID, 3)
	if err != nil {
		t.Fatalf("create court: %v", err)
	}

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot, err := st.CreateClassSlot(ctx, store.CreateClassSlotParams{
		ClubID:       club.ID,
		InstructorID: 1,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		MaxPlayers:   4,
		Level:        sql.NullString{String: "intermediate", Valid: true},
		Prices:       store.ModalityPrices{2500, 1250, 834, 625},
		CreditsSlots: store.NewModalitySet(4),
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if err := st.AssignSlotCourt(ctx, slot.ID, court.ID); err != nil {
		t.Fatalf("assign court: %v", err)
	}

	ana, err := st.CreatePlayer(ctx, store.CreatePlayerParams{ClubID: club.ID, Name: "Ana"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	berta, err := st.CreatePlayer(ctx, store.CreatePlayerParams{ClubID: club.ID, Name: "Berta"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	for _, playerID := range []int64{ana.ID, berta.ID} {
		if _, err := st.CreateBooking(ctx, store.CreateBookingParams{
			ID:          uuid.NewString(),
			SlotID:      slot.ID,
			PlayerID:    playerID,
			GroupSize:   2,
			Status:      store.BookingStatusConfirmed,
			AmountCents: 1250,
		}); err != nil {
			t.Fatalf("create booking: %v", err)
		}
	}

	view, err := BuildSlotView(ctx, st, slot.ID)
	if err != nil {
		t.Fatalf("build view: %v", err)
	}

	if !view.Confirmed {
		t.Error("view should be confirmed")
	}
	if view.CourtNumber == nil || *view.CourtNumber != 3 {
		t.Errorf("court number %v, want 3", view.CourtNumber)
	}
	if view.Level == nil || *view.Level != "intermediate" {
		t.Errorf("level %v, want intermediate", view.Level)
	}
	if len(view.Modalities) != 4 {
		t.Fatalf("expected 4 modality views, got %d", len(view.Modalities))
	}
	mod2 := view.Modalities[1]
	if mod2.Occupied != 2 || mod2.Required != 2 || mod2.PriceCents != 1250 {
		t.Errorf("modality 2 view: %+v", mod2)
	}
	mod4 := view.Modalities[3]
	if !mod4.PointsFunded {
		t.Error("modality 4 should be points funded")
	}
	if len(view.Bookings) != 2 {
		t.Fatalf("expected 2 booking views, got %d", len(view.Bookings))
	}
	if view.Bookings[0].PlayerName != "Ana" || view.Bookings[1].PlayerName != "Berta" {
		t.Errorf("booking names %s/%s, want Ana/Berta", view.Bookings[0].PlayerName, view.Bookings[1].PlayerName)
	}
}

func TestBuildClubDay(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	st := database.Store

	club, err := st.CreateClub(ctx, "Test Club", "test-club", "UTC")
	if err != nil {
		t.Fatalf("create club: %v", err)
	}

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for _, hour := range []int{18, 9} {
		start := day.Add(time.Duration(hour) * time.Hour)
		if _, err := st.CreateClassSlot(ctx, store.CreateClassSlotParams{
			ClubID:       club.ID,
			InstructorID: 1,
			StartTime:    start,
			EndTime:      start.Add(time.Hour),
			MaxPlayers:   4,
			Prices:       store.ModalityPrices{2500, 1250, 834, 625},
		}); err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}
	// Next-day slot stays outside the window.
	if _, err := st.CreateClassSlot(ctx, store.CreateClassSlotParams{
		ClubID:       club.ID,
		InstructorID: 1,
		StartTime:    day.AddDate(0, 0, 1),
		EndTime:      day.AddDate(0, 0, 1).Add(time.Hour),
		MaxPlayers:   4,
		Prices:       store.ModalityPrices{2500, 1250, 834, 625},
	}); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	views, err := BuildClubDay(ctx, st, club.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("build club day: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if !views[0].StartTime.Before(views[1].StartTime) {
		t.Errorf("views out of start-time order: %v then %v", views[0].StartTime, views[1].StartTime)
	}
}
