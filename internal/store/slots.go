package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CreateClassSlotParams struct {
	ClubID       int64
	InstructorID int64
	StartTime    time.Time
	EndTime      time.Time
	MaxPlayers   int64
	Level        sql.NullString
	Gender       sql.NullString
	Prices       ModalityPrices
	CreditsSlots ModalitySet
}

func (s *Store) CreateClassSlot(ctx context.Context, params CreateClassSlotParams) (ClassSlot, error) {
	creditsSlots, err := encodeModalitySet(params.CreditsSlots)
	if err != nil {
		return ClassSlot{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO class_slots (
			club_id, instructor_id, start_time, end_time, max_players,
			level, gender,
			price_mod1_cents, price_mod2_cents, price_mod3_cents, price_mod4_cents,
			credits_slots
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ClubID, params.InstructorID, params.StartTime, params.EndTime, params.MaxPlayers,
		params.Level, params.Gender,
		params.Prices[0], params.Prices[1], params.Prices[2], params.Prices[3],
		creditsSlots,
	)
	if err != nil {
		return ClassSlot{}, fmt.Errorf("insert class slot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ClassSlot{}, fmt.Errorf("class slot id: %w", err)
	}
	return s.GetClassSlot(ctx, id)
}

const classSlotColumns = `id, club_id, instructor_id, start_time, end_time, max_players,
	level, gender,
	price_mod1_cents, price_mod2_cents, price_mod3_cents, price_mod4_cents,
	credits_slots, court_id, created_at, updated_at`

func scanClassSlot(row interface{ Scan(...any) error }) (ClassSlot, error) {
	var slot ClassSlot
	var creditsSlots string
	err := row.Scan(
		&slot.ID, &slot.ClubID, &slot.InstructorID, &slot.StartTime, &slot.EndTime, &slot.MaxPlayers,
		&slot.Level, &slot.Gender,
		&slot.Prices[0], &slot.Prices[1], &slot.Prices[2], &slot.Prices[3],
		&creditsSlots, &slot.CourtID, &slot.CreatedAt, &slot.UpdatedAt,
	)
	if err != nil {
		return ClassSlot{}, err
	}
	slot.CreditsSlots, err = decodeModalitySet(creditsSlots)
	if err != nil {
		return ClassSlot{}, fmt.Errorf("decode credits slots for slot %d: %w", slot.ID, err)
	}
	return slot, nil
}

func (s *Store) GetClassSlot(ctx context.Context, id int64) (ClassSlot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+classSlotColumns+` FROM class_slots WHERE id = ?`, id,
	)
	return scanClassSlot(row)
}

func (s *Store) listClassSlots(ctx context.Context, query string, args ...any) ([]ClassSlot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []ClassSlot
	for rows.Next() {
		slot, err := scanClassSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *Store) ListClassSlotsByClubBetween(ctx context.Context, clubID int64, from, to time.Time) ([]ClassSlot, error) {
	return s.listClassSlots(ctx,
		`SELECT `+classSlotColumns+`
		 FROM class_slots
		 WHERE club_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC, id ASC`,
		clubID, from, to,
	)
}

func (s *Store) ListInstructorSlotsBetween(ctx context.Context, clubID, instructorID int64, from, to time.Time) ([]ClassSlot, error) {
	return s.listClassSlots(ctx,
		`SELECT `+classSlotColumns+`
		 FROM class_slots
		 WHERE club_id = ? AND instructor_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC, id ASC`,
		clubID, instructorID, from, to,
	)
}

// ClubInstructor identifies an instructor's offering at a club.
type ClubInstructor struct {
	ClubID       int64
	InstructorID int64
}

// ListClubInstructorPairs returns every club/instructor pair that has at
// least one class slot, for the horizon roll.
func (s *Store) ListClubInstructorPairs(ctx context.Context) ([]ClubInstructor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT club_id, instructor_id
		 FROM class_slots
		 ORDER BY club_id ASC, instructor_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []ClubInstructor
	for rows.Next() {
		var p ClubInstructor
		if err := rows.Scan(&p.ClubID, &p.InstructorID); err != nil {
			return nil, fmt.Errorf("scan club instructor pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// LatestSlotStartByInstructor returns the start time of the instructor's
// most recent slot at the club; sql.ErrNoRows when they have none.
func (s *Store) LatestSlotStartByInstructor(ctx context.Context, clubID, instructorID int64) (time.Time, error) {
	var start time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT start_time FROM class_slots
		 WHERE club_id = ? AND instructor_id = ?
		 ORDER BY start_time DESC LIMIT 1`,
		clubID, instructorID,
	).Scan(&start)
	if err != nil {
		return time.Time{}, err
	}
	return start, nil
}

// ListConfirmedSlotsOverlapping returns the club's confirmed classes whose
// window overlaps [start, end) under the half-open interval rule.
func (s *Store) ListConfirmedSlotsOverlapping(ctx context.Context, clubID int64, start, end time.Time) ([]ClassSlot, error) {
	return s.listClassSlots(ctx,
		`SELECT `+classSlotColumns+`
		 FROM class_slots
		 WHERE club_id = ? AND court_id IS NOT NULL
		   AND start_time < ? AND end_time > ?
		 ORDER BY id ASC`,
		clubID, end, start,
	)
}

// ListConfirmedSlotsByCourt returns the court's confirmed classes ordered by
// start time, for the overlap audit.
func (s *Store) ListConfirmedSlotsByCourt(ctx context.Context, courtID int64) ([]ClassSlot, error) {
	return s.listClassSlots(ctx,
		`SELECT `+classSlotColumns+`
		 FROM class_slots
		 WHERE court_id = ?
		 ORDER BY start_time ASC, id ASC`,
		courtID,
	)
}

// ListOrphanedConfirmedSlots returns confirmed classes with zero active
// bookings. These should not exist; the guard releases them.
func (s *Store) ListOrphanedConfirmedSlots(ctx context.Context) ([]ClassSlot, error) {
	return s.listClassSlots(ctx,
		`SELECT `+classSlotColumns+`
		 FROM class_slots cs
		 WHERE cs.court_id IS NOT NULL
		   AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.slot_id = cs.id AND b.status != 'CANCELLED'
		 )
		 ORDER BY cs.id ASC`,
	)
}

// ListAssignedCourtIDs returns every court id that currently has at least
// one confirmed class, for the overlap audit sweep.
func (s *Store) ListAssignedCourtIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT court_id FROM class_slots WHERE court_id IS NOT NULL ORDER BY court_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list assigned court ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan court id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AssignSlotCourt(ctx context.Context, slotID, courtID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE class_slots SET court_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		courtID, slotID,
	)
	if err != nil {
		return fmt.Errorf("assign slot court: %w", err)
	}
	return nil
}

func (s *Store) ClearSlotCourt(ctx context.Context, slotID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE class_slots SET court_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		slotID,
	)
	if err != nil {
		return fmt.Errorf("clear slot court: %w", err)
	}
	return nil
}

// ClassSlotExists reports whether the club already has a slot for this
// instructor at this start time; the generator uses it to stay idempotent.
func (s *Store) ClassSlotExists(ctx context.Context, clubID, instructorID int64, start time.Time) (bool, error) {
	var one int64
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM class_slots WHERE club_id = ? AND instructor_id = ? AND start_time = ?`,
		clubID, instructorID, start,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("class slot exists: %w", err)
	}
	return true, nil
}
