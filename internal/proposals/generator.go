// Package proposals batch-creates unassigned class slots ahead of time.
// Instructors offer windows; courts are only attached later, when a modality
// wins its fill race.
package proposals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/store"
)

// Pricing is the class price split: instructor fee plus court rental. The
// per-player price of a modality is the ceiling share of the total, so the
// club never undercollects on uneven splits.
type Pricing struct {
	InstructorFeeCents int64
	CourtFeeCents      int64
}

func (p Pricing) TotalCents() int64 {
	return p.InstructorFeeCents + p.CourtFeeCents
}

// ModalityPrices spreads the total over each group size.
func (p Pricing) ModalityPrices() store.ModalityPrices {
	total := p.TotalCents()
	var prices store.ModalityPrices
	for k := int64(1); k <= 4; k++ {
		prices[k-1] = (total + k - 1) / k
	}
	return prices
}

type GenerateParams struct {
	ClubID       int64
	InstructorID int64
	// From and To bound the generated days, inclusive, in the club's local
	// calendar.
	From time.Time
	To   time.Time
	// StartHours are the club-local hours a class starts at, e.g. 9..21.
	StartHours []int
	MaxPlayers int64
	Level      sql.NullString
	Gender     sql.NullString
	Pricing    Pricing
	// CreditsSlots marks the modalities funded by loyalty points instead of
	// money.
	CreditsSlots store.ModalitySet
}

type Generator struct {
	db  *db.DB
	cfg config.BookingConfig

	// now is swappable so horizon math is testable.
	now func() time.Time
}

func NewGenerator(database *db.DB, cfg config.BookingConfig) (*Generator, error) {
	if database == nil {
		return nil, errors.New("proposal generator requires a database")
	}
	return &Generator{db: database, cfg: cfg, now: time.Now}, nil
}

// Generate creates one unassigned slot per day and start hour over the date
// range, skipping any instructor/start-time pair that already exists, so the
// nightly job can re-run over an overlapping horizon. Returns the number of
// slots created.
func (g *Generator) Generate(ctx context.Context, params GenerateParams) (int, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "proposal_generator").
		Int64("club_id", params.ClubID).
		Int64("instructor_id", params.InstructorID).
		Logger()

	if params.MaxPlayers <= 0 {
		params.MaxPlayers = 4
	}
	if len(params.StartHours) == 0 {
		return 0, errors.New("at least one start hour is required")
	}
	if params.To.Before(params.From) {
		return 0, fmt.Errorf("invalid date range: %s after %s", params.From, params.To)
	}

	club, err := g.db.Store.GetClub(ctx, params.ClubID)
	if err != nil {
		return 0, fmt.Errorf("load club %d: %w", params.ClubID, err)
	}
	loc, err := time.LoadLocation(club.Timezone)
	if err != nil {
		logger.Warn().Str("timezone", club.Timezone).Msg("Invalid club timezone, using UTC")
		loc = time.UTC
	}

	prices := params.Pricing.ModalityPrices()
	created := 0
	err = g.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store
		from := params.From.In(loc)
		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
		for !day.After(params.To.In(loc)) {
			for _, hour := range params.StartHours {
				start := day.Add(time.Duration(hour) * time.Hour).UTC()
				exists, err := st.ClassSlotExists(ctx, params.ClubID, params.InstructorID, start)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				_, err = st.CreateClassSlot(ctx, store.CreateClassSlotParams{
					ClubID:       params.ClubID,
					InstructorID: params.InstructorID,
					StartTime:    start,
					EndTime:      start.Add(g.cfg.ClassDuration),
					MaxPlayers:   params.MaxPlayers,
					Level:        params.Level,
					Gender:       params.Gender,
					Prices:       prices,
					CreditsSlots: params.CreditsSlots,
				})
				if err != nil {
					return err
				}
				created++
			}
			day = day.AddDate(0, 0, 1)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Proposal generation failed")
		return created, err
	}

	logger.Info().
		Int("created", created).
		Time("from", params.From).
		Time("to", params.To).
		Msg("Generated class proposals")
	return created, nil
}

// RollForward extends every instructor's schedule out to the configured
// horizon. The instructor's most recent generated day serves as the
// recurring template: its start hours, restrictions, prices and
// credits-slots are replicated onto each missing day. The nightly job calls
// this so admin-created patterns never run out of proposals.
func (g *Generator) RollForward(ctx context.Context) (int, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "proposal_generator").
		Logger()

	pairs, err := g.db.Store.ListClubInstructorPairs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, pair := range pairs {
		created, err := g.rollInstructor(ctx, pair.ClubID, pair.InstructorID)
		if err != nil {
			logger.Error().Err(err).
				Int64("club_id", pair.ClubID).
				Int64("instructor_id", pair.InstructorID).
				Msg("Horizon roll failed for instructor")
			return total, err
		}
		total += created
	}
	if total > 0 {
		logger.Info().Int("created", total).Msg("Rolled proposal horizon forward")
	}
	return total, nil
}

func (g *Generator) rollInstructor(ctx context.Context, clubID, instructorID int64) (int, error) {
	club, err := g.db.Store.GetClub(ctx, clubID)
	if err != nil {
		return 0, fmt.Errorf("load club %d: %w", clubID, err)
	}
	loc, err := time.LoadLocation(club.Timezone)
	if err != nil {
		loc = time.UTC
	}

	latest, err := g.db.Store.LatestSlotStartByInstructor(ctx, clubID, instructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}

	local := latest.In(loc)
	templateDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	template, err := g.db.Store.ListInstructorSlotsBetween(ctx, clubID, instructorID,
		templateDay.UTC(), templateDay.AddDate(0, 0, 1).UTC())
	if err != nil {
		return 0, err
	}
	if len(template) == 0 {
		return 0, nil
	}

	horizon := g.now().In(loc)
	last := time.Date(horizon.Year(), horizon.Month(), horizon.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, g.cfg.GenerationHorizonDays)

	created := 0
	err = g.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store
		for day := templateDay.AddDate(0, 0, 1); !day.After(last); day = day.AddDate(0, 0, 1) {
			for _, slot := range template {
				start := day.Add(time.Duration(slot.StartTime.In(loc).Hour()) * time.Hour).UTC()
				exists, err := st.ClassSlotExists(ctx, clubID, instructorID, start)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				if _, err := st.CreateClassSlot(ctx, store.CreateClassSlotParams{
					ClubID:       clubID,
					InstructorID: instructorID,
					StartTime:    start,
					EndTime:      start.Add(slot.EndTime.Sub(slot.StartTime)),
					MaxPlayers:   slot.MaxPlayers,
					Level:        slot.Level,
					Gender:       slot.Gender,
					Prices:       slot.Prices,
					CreditsSlots: slot.CreditsSlots,
				}); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	return created, err
}
