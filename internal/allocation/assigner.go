package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/store"
)

// Overlaps applies the half-open interval test: [aStart, aEnd) and
// [bStart, bEnd) overlap iff aStart < bEnd and aEnd > bStart. Back-to-back
// windows with matching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// AssignCourt finds the club's first free court for [start, end), walking
// active courts in ascending court-number order. A court is taken when a
// confirmed class or a blocking schedule entry overlaps the window.
func AssignCourt(ctx context.Context, st *store.Store, clubID int64, start, end time.Time) (store.Court, error) {
	courts, err := st.ListActiveCourts(ctx, clubID)
	if err != nil {
		return store.Court{}, err
	}

	occupied := make(map[int64]struct{})
	confirmed, err := st.ListConfirmedSlotsOverlapping(ctx, clubID, start, end)
	if err != nil {
		return store.Court{}, err
	}
	for _, slot := range confirmed {
		if slot.CourtID.Valid {
			occupied[slot.CourtID.Int64] = struct{}{}
		}
	}
	blocked, err := st.ListBlockedCourtIDs(ctx, clubID, start, end)
	if err != nil {
		return store.Court{}, err
	}
	for _, id := range blocked {
		occupied[id] = struct{}{}
	}

	for _, court := range courts {
		if _, taken := occupied[court.ID]; taken {
			continue
		}
		return court, nil
	}
	return store.Court{}, ErrNoCourtAvailable
}

// attachCourt marks the slot confirmed on the court and writes the dependent
// schedule entry that blocks the court for the window.
func attachCourt(ctx context.Context, st *store.Store, slot store.ClassSlot, court store.Court) error {
	if err := st.AssignSlotCourt(ctx, slot.ID, court.ID); err != nil {
		return err
	}
	_, err := st.CreateScheduleBlock(ctx, store.CreateScheduleBlockParams{
		CourtID:   court.ID,
		SlotID:    sql.NullInt64{Int64: slot.ID, Valid: true},
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Reason:    fmt.Sprintf("class slot %d", slot.ID),
	})
	return err
}

// ReleaseCourt reverts a confirmed class to an unassigned proposal: the
// court assignment is cleared and the dependent schedule entries deleted.
func ReleaseCourt(ctx context.Context, st *store.Store, slotID int64) error {
	if err := st.DeleteScheduleBlocksBySlot(ctx, slotID); err != nil {
		return err
	}
	if err := st.ClearSlotCourt(ctx, slotID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("component", "court_assigner").
		Int64("slot_id", slotID).
		Msg("Released court assignment")
	return nil
}
