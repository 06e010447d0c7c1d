package allocation

import (
	"github.com/courtsidehq/courtside/internal/store"
)

// FillResult is the outcome of replaying a slot's active bookings in
// creation order.
type FillResult struct {
	// Winner is the modality whose required player count filled first, or 0
	// when no modality has filled yet.
	Winner int64
	// WinningSeq is the creation sequence of the booking that completed the
	// winning modality.
	WinningSeq int64
	// SeatCounts holds active bookings per modality, indexed by modality
	// minus one.
	SeatCounts [4]int64
	// TotalSeats is the number of active bookings across all modalities;
	// each booking occupies exactly one seat of its modality.
	TotalSeats int64
}

// Winners returns the active bookings belonging to the winning modality, and
// Losers everything else. Both preserve creation order.
func (r FillResult) Winners(bookings []store.Booking) []store.Booking {
	if r.Winner == 0 {
		return nil
	}
	var winners []store.Booking
	for _, b := range bookings {
		if b.GroupSize == r.Winner {
			winners = append(winners, b)
		}
	}
	return winners
}

func (r FillResult) Losers(bookings []store.Booking) []store.Booking {
	if r.Winner == 0 {
		return nil
	}
	var losers []store.Booking
	for _, b := range bookings {
		if b.GroupSize != r.Winner {
			losers = append(losers, b)
		}
	}
	return losers
}

// EvaluateFill replays active (non-cancelled) bookings in creation order and
// picks the first modality to reach its own size. Creation order is the sole
// tie-break: the modality completed by the earliest completing booking wins,
// never the larger or smaller size by preference.
//
// The solo modality is special: a private class only confirms when its
// booking is alone on the proposal. A solo booking sharing the proposal with
// group bookings is competing in the race like everyone else, and loses if
// a group modality fills first.
//
// Bookings must already be ordered by seq ascending, as
// ListActiveBookingsBySlot returns them.
func EvaluateFill(bookings []store.Booking) FillResult {
	var result FillResult
	for _, b := range bookings {
		if b.GroupSize < 1 || b.GroupSize > 4 {
			continue
		}
		result.SeatCounts[b.GroupSize-1]++
		result.TotalSeats++
		if result.Winner != 0 || result.SeatCounts[b.GroupSize-1] != b.GroupSize {
			continue
		}
		if b.GroupSize == 1 && len(bookings) > 1 {
			continue
		}
		result.Winner = b.GroupSize
		result.WinningSeq = b.Seq
	}
	return result
}

// CanJoin reports whether a new booking for the given modality fits: the
// modality must not already be full and total occupied seats must stay
// within the slot's max players.
func CanJoin(result FillResult, modality, maxPlayers int64) error {
	if modality < 1 || modality > 4 || modality > maxPlayers {
		return ErrInvalidModality
	}
	if result.SeatCounts[modality-1] >= modality {
		return ErrModalityFull
	}
	if result.TotalSeats >= maxPlayers {
		return ErrSlotFull
	}
	return nil
}
