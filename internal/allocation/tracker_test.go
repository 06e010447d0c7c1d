package allocation

import (
	"errors"
	"testing"

	"github.com/courtsidehq/courtside/internal/store"
)

func activeBookings(modalities ...int64) []store.Booking {
	bookings := make([]store.Booking, 0, len(modalities))
	for i, m := range modalities {
		bookings = append(bookings, store.Booking{
			Seq:       int64(i + 1),
			GroupSize: m,
			Status:    store.BookingStatusPending,
		})
	}
	return bookings
}

func TestEvaluateFillNoWinner(t *testing.T) {
	result := EvaluateFill(activeBookings(4, 4, 2))
	if result.Winner != 0 {
		t.Fatalf("expected no winner, got modality %d", result.Winner)
	}
	if result.TotalSeats != 3 {
		t.Errorf("expected 3 total seats, got %d", result.TotalSeats)
	}
	if result.SeatCounts != [4]int64{0, 1, 0, 2} {
		t.Errorf("unexpected seat counts: %v", result.SeatCounts)
	}
}

func TestEvaluateFillModalityCompletes(t *testing.T) {
	result := EvaluateFill(activeBookings(4, 4, 4, 4))
	if result.Winner != 4 {
		t.Fatalf("expected modality 4 to win, got %d", result.Winner)
	}
	if result.WinningSeq != 4 {
		t.Errorf("expected winning seq 4, got %d", result.WinningSeq)
	}
}

func TestEvaluateFillFirstToCompleteWins(t *testing.T) {
	// Modality 2 completes at seq 4 while modality 4 still needs two more
	// bookings. Creation order decides, not modality size.
	result := EvaluateFill(activeBookings(4, 2, 4, 2))
	if result.Winner != 2 {
		t.Fatalf("expected modality 2 to win, got %d", result.Winner)
	}
	if result.WinningSeq != 4 {
		t.Errorf("expected winning seq 4, got %d", result.WinningSeq)
	}
}

func TestEvaluateFillEarlierCompletionBeatsLaterBooking(t *testing.T) {
	// Modality 2 already completed at seq 2; later modality 4 bookings must
	// not displace it.
	result := EvaluateFill(activeBookings(2, 2, 4, 4))
	if result.Winner != 2 {
		t.Fatalf("expected modality 2 to win, got %d", result.Winner)
	}
	if result.WinningSeq != 2 {
		t.Errorf("expected winning seq 2, got %d", result.WinningSeq)
	}
}

func TestEvaluateFillSoloWinsOnlyWhenAlone(t *testing.T) {
	result := EvaluateFill(activeBookings(1))
	if result.Winner != 1 {
		t.Fatalf("lone private booking should win, got modality %d", result.Winner)
	}

	result = EvaluateFill(activeBookings(2, 1))
	if result.Winner != 0 {
		t.Fatalf("private booking sharing the slot must not win, got modality %d", result.Winner)
	}

	result = EvaluateFill(activeBookings(2, 1, 2))
	if result.Winner != 2 {
		t.Fatalf("expected modality 2 to win over the private booking, got %d", result.Winner)
	}
}

func TestFillResultWinnersLosers(t *testing.T) {
	bookings := activeBookings(2, 1, 2)
	result := EvaluateFill(bookings)

	winners := result.Winners(bookings)
	if len(winners) != 2 || winners[0].Seq != 1 || winners[1].Seq != 3 {
		t.Errorf("unexpected winners: %+v", winners)
	}
	losers := result.Losers(bookings)
	if len(losers) != 1 || losers[0].GroupSize != 1 {
		t.Errorf("unexpected losers: %+v", losers)
	}
}

func TestCanJoin(t *testing.T) {
	tests := []struct {
		name       string
		modalities []int64
		modality   int64
		maxPlayers int64
		want       error
	}{
		{"empty slot", nil, 4, 4, nil},
		{"modality zero", nil, 0, 4, ErrInvalidModality},
		{"modality five", nil, 5, 4, ErrInvalidModality},
		{"modality above max players", nil, 3, 2, ErrInvalidModality},
		{"room left in modality", []int64{4, 4}, 4, 4, nil},
		{"private seat taken", []int64{2, 1}, 1, 4, ErrModalityFull},
		{"all seats taken", []int64{2, 1, 3, 3}, 4, 4, ErrSlotFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluateFill(activeBookings(tt.modalities...))
			err := CanJoin(result, tt.modality, tt.maxPlayers)
			if !errors.Is(err, tt.want) {
				t.Errorf("CanJoin(%v, %d, %d) = %v, want %v", tt.modalities, tt.modality, tt.maxPlayers, err, tt.want)
			}
		})
	}
}
