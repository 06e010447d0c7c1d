package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CreateScheduleBlockParams struct {
	CourtID   int64
	SlotID    sql.NullInt64
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

func (s *Store) CreateScheduleBlock(ctx context.Context, params CreateScheduleBlockParams) (ScheduleBlock, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_blocks (court_id, slot_id, start_time, end_time, reason)
		 VALUES (?, ?, ?, ?, ?)`,
		params.CourtID, params.SlotID, params.StartTime, params.EndTime, params.Reason,
	)
	if err != nil {
		return ScheduleBlock{}, fmt.Errorf("insert schedule block: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ScheduleBlock{}, fmt.Errorf("schedule block id: %w", err)
	}
	return ScheduleBlock{
		ID:        id,
		CourtID:   params.CourtID,
		SlotID:    params.SlotID,
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
		Reason:    params.Reason,
	}, nil
}

// DeleteScheduleBlocksBySlot removes the dependent schedule rows of a class
// whose court is being released.
func (s *Store) DeleteScheduleBlocksBySlot(ctx context.Context, slotID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM schedule_blocks WHERE slot_id = ?`, slotID,
	)
	if err != nil {
		return fmt.Errorf("delete schedule blocks: %w", err)
	}
	return nil
}

// ListBlockedCourtIDs returns the club's court ids with any schedule entry
// overlapping [start, end).
func (s *Store) ListBlockedCourtIDs(ctx context.Context, clubID int64, start, end time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT sb.court_id
		 FROM schedule_blocks sb
		 JOIN courts c ON c.id = sb.court_id
		 WHERE c.club_id = ? AND sb.start_time < ? AND sb.end_time > ?`,
		clubID, end, start,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocked courts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan blocked court id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
