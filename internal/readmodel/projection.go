// Package readmodel builds the display projection of a class slot. It is a
// lock-free snapshot for the UI layer, not authoritative state.
package readmodel

import (
	"context"
	"fmt"

	"time"

	"github.com/courtsidehq/courtside/internal/allocation"
	"github.com/courtsidehq/courtside/internal/store"
)

type ModalityView struct {
	Modality     int64 `json:"modality"`
	PriceCents   int64 `json:"price_cents"`
	PointsFunded bool  `json:"points_funded"`
	Occupied     int64 `json:"occupied"`
	Required     int64 `json:"required"`
}

type BookingView struct {
	ID         string `json:"id"`
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Modality   int64  `json:"modality"`
	Status     string `json:"status"`
	Recycled   bool   `json:"recycled"`
}

type SlotView struct {
	ID           int64         `json:"id"`
	ClubID       int64         `json:"club_id"`
	InstructorID int64         `json:"instructor_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	MaxPlayers   int64         `json:"max_players"`
	Level        *string       `json:"level,omitempty"`
	Gender       *string       `json:"gender,omitempty"`
	Confirmed    bool          `json:"confirmed"`
	CourtNumber  *int64        `json:"court_number,omitempty"`
	Modalities   []ModalityView `json:"modalities"`
	Bookings     []BookingView  `json:"bookings"`
}

// BuildSlotView assembles the per-slot projection: occupied seats per
// modality, court number when assigned, per-modality price, and the active
// bookings with player display names.
func BuildSlotView(ctx context.Context, st *store.Store, slotID int64) (SlotView, error) {
	slot, err := st.GetClassSlot(ctx, slotID)
	if err != nil {
		return SlotView{}, fmt.Errorf("load class slot %d: %w", slotID, err)
	}
	active, err := st.ListActiveBookingsBySlot(ctx, slotID)
	if err != nil {
		return SlotView{}, err
	}

	view := SlotView{
		ID:           slot.ID,
		ClubID:       slot.ClubID,
		InstructorID: slot.InstructorID,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		MaxPlayers:   slot.MaxPlayers,
		Confirmed:    slot.Confirmed(),
	}
	if slot.Level.Valid {
		view.Level = &slot.Level.String
	}
	if slot.Gender.Valid {
		view.Gender = &slot.Gender.String
	}
	if slot.CourtID.Valid {
		court, err := st.GetCourt(ctx, slot.CourtID.Int64)
		if err != nil {
			return SlotView{}, fmt.Errorf("load court %d: %w", slot.CourtID.Int64, err)
		}
		view.CourtNumber = &court.Number
	}

	result := allocation.EvaluateFill(active)
	for k := int64(1); k <= slot.MaxPlayers && k <= 4; k++ {
		view.Modalities = append(view.Modalities, ModalityView{
			Modality:     k,
			PriceCents:   slot.Prices.For(k),
			PointsFunded: slot.CreditsSlots.Has(k),
			Occupied:     result.SeatCounts[k-1],
			Required:     k,
		})
	}

	playerIDs := make([]int64, 0, len(active))
	for _, b := range active {
		playerIDs = append(playerIDs, b.PlayerID)
	}
	players, err := st.ListPlayersByIDs(ctx, playerIDs)
	if err != nil {
		return SlotView{}, err
	}
	for _, b := range active {
		view.Bookings = append(view.Bookings, BookingView{
			ID:         b.ID,
			PlayerID:   b.PlayerID,
			PlayerName: players[b.PlayerID].Name,
			Modality:   b.GroupSize,
			Status:     b.Status,
			Recycled:   b.Recycled,
		})
	}
	return view, nil
}

// BuildClubDay lists the projections of every slot of the club starting
// within [from, to).
func BuildClubDay(ctx context.Context, st *store.Store, clubID int64, from, to time.Time) ([]SlotView, error) {
	slots, err := st.ListClassSlotsByClubBetween(ctx, clubID, from, to)
	if err != nil {
		return nil, err
	}
	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		view, err := BuildSlotView(ctx, st, slot.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
