package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func setupStoreTest(t *testing.T) (*store.Store, store.Club) {
	t.Helper()

	database := testutil.NewTestDB(t)
	club, err := database.Store.CreateClub(context.Background(), "Test Club", "test-club", "UTC")
	if err != nil {
		t.Fatalf("create club: %v", err)
	}
	return database.Store, club
}

func createSlot(t *testing.T, st *store.Store, clubID int64, start time.Time) store.ClassSlot {
	t.Helper()

	slot, err := st.CreateClassSlot(context.Background(), store.CreateClassSlotParams{
		ClubID:       clubID,
		InstructorID: 1,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		MaxPlayers:   4,
		Prices:       store.ModalityPrices{2500, 1250, 834, 625},
	})
	if err != nil {
		t.Fatalf("create class slot: %v", err)
	}
	return slot
}

func createPlayer(t *testing.T, st *store.Store, clubID int64, name string) store.Player {
	t.Helper()

	player, err := st.CreatePlayer(context.Background(), store.CreatePlayerParams{
		ClubID: clubID,
		Name:   name,
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	return player
}

func TestActiveBookingsKeepCreationOrder(t *testing.T) {
	st, club := setupStoreTest(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := createSlot(t, st, club.ID, start)
	p1 := createPlayer(t, st, club.ID, "Ana")
	p2 := createPlayer(t, st, club.ID, "Berta")
	p3 := createPlayer(t, st, club.ID, "Carla")

	var seqs []int64
	for _, playerID := range []int64{p2.ID, p1.ID, p3.ID} {
		b, err := st.CreateBooking(ctx, store.CreateBookingParams{
			ID:          uuid.NewString(),
			SlotID:      slot.ID,
			PlayerID:    playerID,
			GroupSize:   4,
			Status:      store.BookingStatusPending,
			AmountCents: 625,
		})
		if err != nil {
			t.Fatalf("create booking: %v", err)
		}
		seqs = append(seqs, b.Seq)
	}
	// Cancelled bookings leave the active list but keep their seq.
	cancelled, err := st.CreateBooking(ctx, store.CreateBookingParams{
		ID:        uuid.NewString(),
		SlotID:    slot.ID,
		PlayerID:  p1.ID,
		GroupSize: 2,
		Status:    store.BookingStatusCancelled,
	})
	if err != nil {
		t.Fatalf("create cancelled booking: %v", err)
	}

	active, err := st.ListActiveBookingsBySlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("list active bookings: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 active bookings, got %d", len(active))
	}
	for i, b := range active {
		if b.Seq != seqs[i] {
			t.Errorf("position %d: seq %d, want %d", i, b.Seq, seqs[i])
		}
		if b.ID == cancelled.ID {
			t.Errorf("cancelled booking %s listed as active", b.ID)
		}
	}
	if active[0].Seq >= active[1].Seq || active[1].Seq >= active[2].Seq {
		t.Errorf("active bookings out of creation order: %d %d %d", active[0].Seq, active[1].Seq, active[2].Seq)
	}
}

func TestConfirmedSlotsOverlapHalfOpen(t *testing.T) {
	st, club := setupStoreTest(t)
	ctx := context.Background()

	court, err := st.CreateCourt(ctx, club.ID, 1)
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := createSlot(t, st, club.ID, start)
	if err := st.AssignSlotCourt(ctx, slot.ID, court.ID); err != nil {
		t.Fatalf("assign court: %v", err)
	}

	overlapping, err := st.ListConfirmedSlotsOverlapping(ctx, club.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("list overlapping: %v", err)
	}
	if len(overlapping) != 1 || overlapping[0].ID != slot.ID {
		t.Fatalf("expected the confirmed slot to overlap, got %+v", overlapping)
	}

	// Back-to-back windows share a boundary instant but do not overlap.
	adjacent, err := st.ListConfirmedSlotsOverlapping(ctx, club.ID, start.Add(time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("list adjacent: %v", err)
	}
	if len(adjacent) != 0 {
		t.Errorf("back-to-back window should not overlap, got %d slots", len(adjacent))
	}
}

func TestSumPendingHoldsByPlayer(t *testing.T) {
	st, club := setupStoreTest(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slotA := createSlot(t, st, club.ID, start)
	slotB := createSlot(t, st, club.ID, start.Add(24*time.Hour))
	player := createPlayer(t, st, club.ID, "Ana")

	mk := func(slotID int64, status string, cents, points int64) {
		t.Helper()
		_, err := st.CreateBooking(ctx, store.CreateBookingParams{
			ID:             uuid.NewString(),
			SlotID:         slotID,
			PlayerID:       player.ID,
			GroupSize:      2,
			Status:         status,
			AmountCents:    cents,
			PointsUsed:     points,
			PaidWithPoints: points > 0,
		})
		if err != nil {
			t.Fatalf("create booking: %v", err)
		}
	}
	mk(slotA.ID, store.BookingStatusPending, 1250, 0)
	mk(slotB.ID, store.BookingStatusPending, 0, 625)
	mk(slotB.ID, store.BookingStatusConfirmed, 1250, 0)
	mk(slotA.ID, store.BookingStatusCancelled, 1250, 0)

	cents, points, err := st.SumPendingHoldsByPlayer(ctx, player.ID)
	if err != nil {
		t.Fatalf("sum pending holds: %v", err)
	}
	if cents != 1250 {
		t.Errorf("pending credit holds = %d, want 1250", cents)
	}
	if points != 625 {
		t.Errorf("pending point holds = %d, want 625", points)
	}
}
