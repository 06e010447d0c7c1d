package allocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/wallet"
)

const (
	conceptBookingHold   = "class booking hold"
	conceptBookingCharge = "class booking"
	conceptLostRace      = "lost modality race"
	conceptPlayerCancel  = "booking cancelled"
	conceptCancelPolicy  = "confirmed cancellation converted to points"
	conceptNoCourt       = "no court available"
	conceptRecycledSeat  = "recycled seat"
	conceptDailyConflict = "daily booking conflict"
)

// Engine drives the per-player booking lifecycle: joins, cancellations and
// the fill evaluation that confirms a class once a modality wins its race.
type Engine struct {
	db  *db.DB
	cfg config.BookingConfig

	// Concurrent joins against the same slot are linearized here; the fill
	// evaluation must never observe a half-updated modality count. Different
	// slots proceed in parallel.
	mu        sync.Mutex
	slotLocks map[int64]*sync.Mutex
}

func NewEngine(database *db.DB, cfg config.BookingConfig) (*Engine, error) {
	if database == nil {
		return nil, errors.New("allocation engine requires a database")
	}
	return &Engine{
		db:        database,
		cfg:       cfg,
		slotLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// lockSlot acquires the slot's serialization lock and returns its unlock.
func (e *Engine) lockSlot(slotID int64) func() {
	e.mu.Lock()
	lock, ok := e.slotLocks[slotID]
	if !ok {
		lock = &sync.Mutex{}
		e.slotLocks[slotID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Join books a seat on the slot's given modality for the player, blocking
// funds and creating a PENDING booking; if the join completes a modality,
// the class is confirmed and a court assigned in the same transaction.
// currency may be empty, in which case it follows the slot's credits-slots
// flag for the modality.
//
// Any validation failure leaves wallet and booking state untouched. A
// NoCourtAvailable outcome is different: the would-be winners, this booking
// included, are rolled back to CANCELLED with their holds released, and
// ErrNoCourtAvailable is returned.
func (e *Engine) Join(ctx context.Context, slotID, playerID, modality int64, currency string) (store.Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "allocation_engine").
		Int64("slot_id", slotID).
		Int64("player_id", playerID).
		Int64("modality", modality).
		Logger()

	unlock := e.lockSlot(slotID)
	defer unlock()

	var created store.Booking
	var noCourt bool
	err := e.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		slot, err := st.GetClassSlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("load class slot %d: %w", slotID, err)
		}
		club, err := st.GetClub(ctx, slot.ClubID)
		if err != nil {
			return fmt.Errorf("load club %d: %w", slot.ClubID, err)
		}
		loc := clubLocation(ctx, club)
		player, err := st.GetPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("load player %d: %w", playerID, err)
		}

		if err := checkRestrictions(slot, player); err != nil {
			return err
		}
		already, err := st.PlayerHasActiveBooking(ctx, slot.ID, playerID)
		if err != nil {
			return err
		}
		if already {
			// One seat per human. A second booking on the same slot would let
			// one player fill a modality alone.
			return fmt.Errorf("%w: player %d on slot %d", ErrAlreadyBooked, playerID, slot.ID)
		}
		if err := CheckDailyConflict(ctx, st, playerID, slot.StartTime, loc, slot.ID); err != nil {
			return err
		}

		if slot.Confirmed() {
			created, err = e.joinRecycled(ctx, st, slot, player, modality, currency)
			return err
		}

		active, err := st.ListActiveBookingsBySlot(ctx, slot.ID)
		if err != nil {
			return err
		}
		if err := CanJoin(EvaluateFill(active), modality, slot.MaxPlayers); err != nil {
			return err
		}

		payWithPoints := slot.CreditsSlots.Has(modality)
		if err := validateCurrency(currency, payWithPoints); err != nil {
			return err
		}

		priceCents := slot.Prices.For(modality)
		params := store.CreateBookingParams{
			ID:        uuid.NewString(),
			SlotID:    slot.ID,
			PlayerID:  playerID,
			GroupSize: modality,
			Status:    store.BookingStatusPending,
		}
		holdCurrency := store.CurrencyCredits
		holdAmount := priceCents
		if payWithPoints {
			holdCurrency = store.CurrencyPoints
			holdAmount = priceCents * e.cfg.PointsPerCent
			params.PointsUsed = holdAmount
			params.PaidWithPoints = true
		} else {
			params.AmountCents = priceCents
		}

		created, err = st.CreateBooking(ctx, params)
		if err != nil {
			return err
		}
		if err := wallet.Block(ctx, st, playerID, holdCurrency, holdAmount, conceptBookingHold, created.ID); err != nil {
			return err
		}

		active, err = st.ListActiveBookingsBySlot(ctx, slot.ID)
		if err != nil {
			return err
		}
		result := EvaluateFill(active)
		if result.Winner == 0 {
			logger.Info().
				Int64("total_seats", result.TotalSeats).
				Str("decision", "pending").
				Msg("Booking created, no modality filled yet")
			return nil
		}

		if err := e.settleFill(ctx, st, slot, active, result, loc); err != nil {
			if errors.Is(err, ErrNoCourtAvailable) {
				// Rollback already happened inside settleFill; commit it.
				noCourt = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return store.Booking{}, err
	}

	refreshed, rerr := e.db.Store.GetBooking(ctx, created.ID)
	if rerr == nil {
		created = refreshed
	}
	if noCourt {
		return created, ErrNoCourtAvailable
	}
	return created, nil
}

// settleFill runs once a modality has won: assign a court, confirm and
// charge the winners, cancel and unblock the losers. On ErrNoCourtAvailable
// the winners are rolled back instead and the error returned for the caller
// to surface after committing the rollback.
func (e *Engine) settleFill(ctx context.Context, st *store.Store, slot store.ClassSlot, active []store.Booking, result FillResult, loc *time.Location) error {
	logger := log.Ctx(ctx).With().
		Str("component", "allocation_engine").
		Int64("slot_id", slot.ID).
		Int64("winning_modality", result.Winner).
		Int64("winning_seq", result.WinningSeq).
		Logger()

	winners := result.Winners(active)
	losers := result.Losers(active)

	court, err := AssignCourt(ctx, st, slot.ClubID, slot.StartTime, slot.EndTime)
	if err != nil {
		if !errors.Is(err, ErrNoCourtAvailable) {
			return err
		}
		// Capacity problem, not a user error. Roll the winners back rather
		// than leaving a confirmed-but-courtless class.
		logger.Error().
			Time("start_time", slot.StartTime).
			Int("winning_bookings", len(winners)).
			Msg("No court available for winning modality, rolling back winners")
		for _, b := range winners {
			if err := e.cancelWithUnblock(ctx, st, b, conceptNoCourt); err != nil {
				return err
			}
		}
		return ErrNoCourtAvailable
	}

	if err := attachCourt(ctx, st, slot, court); err != nil {
		return err
	}

	confirmed := 0
	for _, b := range winners {
		// Re-check the daily rule at confirmation time: a player racing two
		// proposals on the same day keeps only the earliest-confirmed one.
		if err := CheckDailyConflict(ctx, st, b.PlayerID, slot.StartTime, loc, slot.ID); err != nil {
			if !errors.Is(err, ErrDuplicateDailyBooking) {
				return err
			}
			logger.Error().
				Str("booking_id", b.ID).
				Int64("player_id", b.PlayerID).
				Msg("Winner violates daily booking rule, cancelling instead of confirming")
			if err := e.cancelWithUnblock(ctx, st, b, conceptDailyConflict); err != nil {
				return err
			}
			// The seat this player would have taken is free again; mark it
			// recycled so a later join can claim it.
			if err := st.MarkBookingRecycled(ctx, b.ID); err != nil {
				return err
			}
			continue
		}
		currency, amount := holdOf(b)
		if err := wallet.Charge(ctx, st, b.PlayerID, currency, amount, conceptBookingCharge, b.ID); err != nil {
			return err
		}
		if err := st.UpdateBookingStatus(ctx, b.ID, store.BookingStatusConfirmed); err != nil {
			return err
		}
		confirmed++
	}

	for _, b := range losers {
		if err := e.cancelWithUnblock(ctx, st, b, conceptLostRace); err != nil {
			return err
		}
	}

	if confirmed == 0 {
		logger.Error().Msg("Every winner was cancelled during confirmation, releasing court")
		return ReleaseCourt(ctx, st, slot.ID)
	}

	logger.Info().
		Int64("court_number", court.Number).
		Int("confirmed", confirmed).
		Int("cancelled_losers", len(losers)).
		Str("decision", "confirmed").
		Msg("Class confirmed and court assigned")
	return nil
}

// joinRecycled claims a freed seat on an already-confirmed class. The seat
// belongs to the winning modality, is points-only at the recycled price and
// confirms immediately; asking for a different modality or paying credits is
// rejected rather than silently coerced.
func (e *Engine) joinRecycled(ctx context.Context, st *store.Store, slot store.ClassSlot, player store.Player, modality int64, currency string) (store.Booking, error) {
	all, err := st.ListBookingsBySlot(ctx, slot.ID)
	if err != nil {
		return store.Booking{}, err
	}
	var active []store.Booking
	freedSeat := false
	for _, b := range all {
		if b.Status == store.BookingStatusCancelled {
			if b.Recycled {
				freedSeat = true
			}
			continue
		}
		active = append(active, b)
	}
	if len(active) == 0 {
		// Orphaned confirmed slot; the guard repairs these, never a join.
		log.Ctx(ctx).Error().
			Str("component", "allocation_engine").
			Int64("slot_id", slot.ID).
			Msg("Join against confirmed class with zero active bookings")
		return store.Booking{}, ErrSlotFull
	}
	winner := active[0].GroupSize
	if modality != winner {
		return store.Booking{}, fmt.Errorf("%w: class confirmed for modality %d", ErrModalityFull, winner)
	}
	if err := validateCurrency(currency, true); err != nil {
		return store.Booking{}, err
	}
	if !freedSeat || int64(len(active)) >= winner {
		return store.Booking{}, ErrSlotFull
	}

	price := slot.Prices.For(winner) * e.cfg.PointsPerCent * e.cfg.RecycledPricePercent / 100
	booking, err := st.CreateBooking(ctx, store.CreateBookingParams{
		ID:             uuid.NewString(),
		SlotID:         slot.ID,
		PlayerID:       player.ID,
		GroupSize:      winner,
		Status:         store.BookingStatusConfirmed,
		PointsUsed:     price,
		PaidWithPoints: true,
		Recycled:       true,
	})
	if err != nil {
		return store.Booking{}, err
	}
	if price > 0 {
		if err := wallet.Block(ctx, st, player.ID, store.CurrencyPoints, price, conceptRecycledSeat, booking.ID); err != nil {
			return store.Booking{}, err
		}
		if err := wallet.Charge(ctx, st, player.ID, store.CurrencyPoints, price, conceptRecycledSeat, booking.ID); err != nil {
			return store.Booking{}, err
		}
	}

	log.Ctx(ctx).Info().
		Str("component", "allocation_engine").
		Int64("slot_id", slot.ID).
		Int64("player_id", player.ID).
		Str("booking_id", booking.ID).
		Int64("points", price).
		Msg("Recycled seat claimed")
	return booking, nil
}

// Cancel cancels a booking. Cancelling an already-cancelled booking is a
// no-op success. A pending booking gets its hold released; a confirmed one
// follows the no-cash-refund policy: the charged amount comes back as
// loyalty points and the seat is marked recycled. When the last active
// booking of a confirmed class goes, the court is released and the class
// reverts to an unassigned proposal.
func (e *Engine) Cancel(ctx context.Context, bookingID, actor string) error {
	logger := log.Ctx(ctx).With().
		Str("component", "allocation_engine").
		Str("booking_id", bookingID).
		Str("actor", actor).
		Logger()

	booking, err := e.db.Store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		return fmt.Errorf("load booking %s: %w", bookingID, err)
	}

	unlock := e.lockSlot(booking.SlotID)
	defer unlock()

	return e.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store
		b, err := st.GetBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("load booking %s: %w", bookingID, err)
		}
		if b.Status == store.BookingStatusCancelled {
			logger.Info().Msg("Booking already cancelled")
			return nil
		}
		slot, err := st.GetClassSlot(ctx, b.SlotID)
		if err != nil {
			return fmt.Errorf("load class slot %d: %w", b.SlotID, err)
		}

		switch b.Status {
		case store.BookingStatusPending:
			if err := e.cancelWithUnblock(ctx, st, b, conceptPlayerCancel); err != nil {
				return err
			}

		case store.BookingStatusConfirmed:
			points := b.AmountCents * e.cfg.PointsPerCent
			if b.PaidWithPoints {
				points = b.PointsUsed
			}
			if points > 0 {
				if err := wallet.Refund(ctx, st, b.PlayerID, store.CurrencyPoints, points, conceptCancelPolicy, b.ID); err != nil {
					return err
				}
			}
			if err := st.MarkBookingRecycled(ctx, b.ID); err != nil {
				return err
			}
			if err := st.UpdateBookingStatus(ctx, b.ID, store.BookingStatusCancelled); err != nil {
				return err
			}
		}

		active, err := st.ListActiveBookingsBySlot(ctx, slot.ID)
		if err != nil {
			return err
		}
		if slot.Confirmed() && len(active) == 0 {
			if err := ReleaseCourt(ctx, st, slot.ID); err != nil {
				return err
			}
		}

		logger.Info().
			Str("previous_status", b.Status).
			Int("remaining_active", len(active)).
			Msg("Booking cancelled")
		return nil
	})
}

// cancelWithUnblock flips a pending booking to CANCELLED and releases its
// hold, both inside the caller's transaction.
func (e *Engine) cancelWithUnblock(ctx context.Context, st *store.Store, b store.Booking, concept string) error {
	currency, amount := holdOf(b)
	if amount > 0 {
		if err := wallet.Unblock(ctx, st, b.PlayerID, currency, amount, concept, b.ID); err != nil {
			return err
		}
	}
	return st.UpdateBookingStatus(ctx, b.ID, store.BookingStatusCancelled)
}

func holdOf(b store.Booking) (currency string, amount int64) {
	if b.PaidWithPoints {
		return store.CurrencyPoints, b.PointsUsed
	}
	return store.CurrencyCredits, b.AmountCents
}

func validateCurrency(currency string, payWithPoints bool) error {
	switch currency {
	case "":
		return nil
	case store.CurrencyPoints:
		if !payWithPoints {
			return ErrCurrencyMismatch
		}
	case store.CurrencyCredits:
		if payWithPoints {
			return ErrCurrencyMismatch
		}
	default:
		return fmt.Errorf("%w: %s", wallet.ErrUnknownCurrency, currency)
	}
	return nil
}

// checkRestrictions validates the slot's level and gender tags; null tags
// mean the proposal is open.
func checkRestrictions(slot store.ClassSlot, player store.Player) error {
	if slot.Level.Valid {
		if !player.Level.Valid || player.Level.String != slot.Level.String {
			return fmt.Errorf("%w: class level %q", ErrLevelMismatch, slot.Level.String)
		}
	}
	if slot.Gender.Valid {
		if !player.Gender.Valid || player.Gender.String != slot.Gender.String {
			return fmt.Errorf("%w: class category %q", ErrLevelMismatch, slot.Gender.String)
		}
	}
	return nil
}

// clubLocation resolves the club's IANA timezone, falling back to UTC when
// the stored name is bad.
func clubLocation(ctx context.Context, club store.Club) *time.Location {
	loc, err := time.LoadLocation(club.Timezone)
	if err != nil {
		log.Ctx(ctx).Warn().
			Int64("club_id", club.ID).
			Str("timezone", club.Timezone).
			Msg("Invalid club timezone, using UTC")
		return time.UTC
	}
	return loc
}
