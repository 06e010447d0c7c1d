package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/store"
)

// localDay renders the calendar date of t in the club's location. Daily
// uniqueness is judged on the club's local day, never UTC midnight.
func localDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// CheckDailyConflict returns ErrDuplicateDailyBooking when the player
// already holds a confirmed booking whose class starts on the same club-local
// calendar day as start. Bookings on excludeSlotID are ignored so a slot does
// not conflict with itself during fill evaluation.
func CheckDailyConflict(ctx context.Context, st *store.Store, playerID int64, start time.Time, loc *time.Location, excludeSlotID int64) error {
	windows, err := st.ListConfirmedBookingWindowsByPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	day := localDay(start, loc)
	for _, w := range windows {
		if w.SlotID == excludeSlotID {
			continue
		}
		if localDay(w.StartTime, loc) == day {
			return fmt.Errorf("%w: booking %s on %s", ErrDuplicateDailyBooking, w.BookingID, day)
		}
	}
	return nil
}

// Guard runs the periodic consistency audits. Violations mean a bug in a
// transactional boundary somewhere, so they are logged loudly before being
// repaired.
type Guard struct {
	db *db.DB
}

func NewGuard(database *db.DB) (*Guard, error) {
	if database == nil {
		return nil, fmt.Errorf("guard requires a database")
	}
	return &Guard{db: database}, nil
}

// AuditOverlaps walks every court with confirmed classes, verifies no two
// windows overlap under the half-open rule, and releases the later-created
// class of any overlapping pair. It also releases orphaned confirmed slots
// (court assigned, zero active bookings). Returns the number of repairs.
func (g *Guard) AuditOverlaps(ctx context.Context) (int, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "conflict_guard").
		Logger()

	repairs := 0
	err := g.db.RunInTx(ctx, func(txdb *db.DB) error {
		courtIDs, err := txdb.Store.ListAssignedCourtIDs(ctx)
		if err != nil {
			return err
		}
		for _, courtID := range courtIDs {
			slots, err := txdb.Store.ListConfirmedSlotsByCourt(ctx, courtID)
			if err != nil {
				return err
			}
			for i := 1; i < len(slots); i++ {
				prev, cur := slots[i-1], slots[i]
				if !Overlaps(prev.StartTime, prev.EndTime, cur.StartTime, cur.EndTime) {
					continue
				}
				victim := laterCreated(prev, cur)
				logger.Error().
					Int64("court_id", courtID).
					Int64("slot_id", victim.ID).
					Int64("other_slot_id", prev.ID+cur.ID-victim.ID).
					Time("start_time", victim.StartTime).
					Msg("Overlapping court assignment detected, releasing later-created class")
				if err := ReleaseCourt(ctx, txdb.Store, victim.ID); err != nil {
					return err
				}
				repairs++
			}
		}

		orphans, err := txdb.Store.ListOrphanedConfirmedSlots(ctx)
		if err != nil {
			return err
		}
		for _, slot := range orphans {
			logger.Error().
				Int64("slot_id", slot.ID).
				Int64("court_id", slot.CourtID.Int64).
				Msg("Confirmed class with zero active bookings, releasing court")
			if err := ReleaseCourt(ctx, txdb.Store, slot.ID); err != nil {
				return err
			}
			repairs++
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Overlap audit failed")
		return repairs, err
	}
	if repairs > 0 {
		logger.Info().Int("repairs", repairs).Msg("Overlap audit repaired inconsistencies")
	}
	return repairs, nil
}

func laterCreated(a, b store.ClassSlot) store.ClassSlot {
	if b.CreatedAt.After(a.CreatedAt) {
		return b
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return a
	}
	if b.ID > a.ID {
		return b
	}
	return a
}
