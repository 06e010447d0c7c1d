package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type CreateBookingParams struct {
	ID             string
	SlotID         int64
	PlayerID       int64
	GroupSize      int64
	Status         string
	AmountCents    int64
	PointsUsed     int64
	PaidWithPoints bool
	Recycled       bool
}

func (s *Store) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (
			id, slot_id, player_id, group_size, status,
			amount_cents, points_used, paid_with_points, recycled
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.SlotID, params.PlayerID, params.GroupSize, params.Status,
		params.AmountCents, params.PointsUsed, params.PaidWithPoints, params.Recycled,
	)
	if err != nil {
		return Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return Booking{}, fmt.Errorf("booking seq: %w", err)
	}
	return s.getBookingBySeq(ctx, seq)
}

const bookingColumns = `seq, id, slot_id, player_id, group_size, status,
	amount_cents, points_used, paid_with_points, recycled, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.Seq, &b.ID, &b.SlotID, &b.PlayerID, &b.GroupSize, &b.Status,
		&b.AmountCents, &b.PointsUsed, &b.PaidWithPoints, &b.Recycled, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (s *Store) getBookingBySeq(ctx context.Context, seq int64) (Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE seq = ?`, seq,
	)
	return scanBooking(row)
}

func (s *Store) GetBooking(ctx context.Context, id string) (Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id,
	)
	return scanBooking(row)
}

func (s *Store) listBookings(ctx context.Context, query string, args ...any) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListActiveBookingsBySlot returns the slot's non-cancelled bookings in
// creation order; seq is the sole ordering authority for race resolution.
func (s *Store) ListActiveBookingsBySlot(ctx context.Context, slotID int64) ([]Booking, error) {
	return s.listBookings(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE slot_id = ? AND status != 'CANCELLED'
		 ORDER BY seq ASC`,
		slotID,
	)
}

// PlayerHasActiveBooking reports whether the player holds a pending or
// confirmed booking on the slot.
func (s *Store) PlayerHasActiveBooking(ctx context.Context, slotID, playerID int64) (bool, error) {
	var one int64
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM bookings
		 WHERE slot_id = ? AND player_id = ? AND status != 'CANCELLED'
		 LIMIT 1`,
		slotID, playerID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check active booking: %w", err)
	}
	return true, nil
}

func (s *Store) ListBookingsBySlot(ctx context.Context, slotID int64) ([]Booking, error) {
	return s.listBookings(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE slot_id = ?
		 ORDER BY seq ASC`,
		slotID,
	)
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

func (s *Store) MarkBookingRecycled(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET recycled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark booking recycled: %w", err)
	}
	return nil
}

// PlayerBookingWindow is a confirmed booking joined with its class window,
// for the daily-conflict guard.
type PlayerBookingWindow struct {
	BookingID string
	Seq       int64
	SlotID    int64
	ClubID    int64
	StartTime time.Time
	EndTime   time.Time
}

func (s *Store) ListConfirmedBookingWindowsByPlayer(ctx context.Context, playerID int64) ([]PlayerBookingWindow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.seq, b.slot_id, cs.club_id, cs.start_time, cs.end_time
		 FROM bookings b
		 JOIN class_slots cs ON cs.id = b.slot_id
		 WHERE b.player_id = ? AND b.status = 'CONFIRMED'
		 ORDER BY b.seq ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed booking windows: %w", err)
	}
	defer rows.Close()

	var windows []PlayerBookingWindow
	for rows.Next() {
		var w PlayerBookingWindow
		if err := rows.Scan(&w.BookingID, &w.Seq, &w.SlotID, &w.ClubID, &w.StartTime, &w.EndTime); err != nil {
			return nil, fmt.Errorf("scan booking window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// SumPendingHoldsByPlayer recomputes what a player's blocked balances should
// be from their still-pending bookings. Used by wallet reconciliation.
func (s *Store) SumPendingHoldsByPlayer(ctx context.Context, playerID int64) (cents int64, points int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN paid_with_points = 0 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN paid_with_points = 1 THEN points_used ELSE 0 END), 0)
		 FROM bookings
		 WHERE player_id = ? AND status = 'PENDING'`,
		playerID,
	).Scan(&cents, &points)
	if err != nil {
		return 0, 0, fmt.Errorf("sum pending holds: %w", err)
	}
	return cents, points, nil
}

// ListPlayerIDsWithBookings returns the distinct players that have ever
// booked, for the reconciliation sweep.
func (s *Store) ListPlayerIDsWithBookings(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT player_id FROM bookings ORDER BY player_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list players with bookings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
