package store

import (
	"context"
	"fmt"
)

func (s *Store) CreateClub(ctx context.Context, name, slug, timezone string) (Club, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO clubs (name, slug, timezone) VALUES (?, ?, ?)`,
		name, slug, timezone,
	)
	if err != nil {
		return Club{}, fmt.Errorf("insert club: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Club{}, fmt.Errorf("club id: %w", err)
	}
	return Club{ID: id, Name: name, Slug: slug, Timezone: timezone}, nil
}

func (s *Store) GetClub(ctx context.Context, id int64) (Club, error) {
	var club Club
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, timezone FROM clubs WHERE id = ?`, id,
	).Scan(&club.ID, &club.Name, &club.Slug, &club.Timezone)
	if err != nil {
		return Club{}, err
	}
	return club, nil
}

func (s *Store) CreateCourt(ctx context.Context, clubID, number int64) (Court, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO courts (club_id, number, active) VALUES (?, ?, 1)`,
		clubID, number,
	)
	if err != nil {
		return Court{}, fmt.Errorf("insert court: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Court{}, fmt.Errorf("court id: %w", err)
	}
	return Court{ID: id, ClubID: clubID, Number: number, Active: true}, nil
}

func (s *Store) GetCourt(ctx context.Context, id int64) (Court, error) {
	var court Court
	err := s.db.QueryRowContext(ctx,
		`SELECT id, club_id, number, active FROM courts WHERE id = ?`, id,
	).Scan(&court.ID, &court.ClubID, &court.Number, &court.Active)
	if err != nil {
		return Court{}, err
	}
	return court, nil
}

func (s *Store) SetCourtActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courts SET active = ? WHERE id = ?`, active, id,
	)
	if err != nil {
		return fmt.Errorf("set court active: %w", err)
	}
	return nil
}

// ListActiveCourts returns a club's active courts ordered by court number,
// the deterministic order the assigner walks.
func (s *Store) ListActiveCourts(ctx context.Context, clubID int64) ([]Court, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, club_id, number, active
		 FROM courts
		 WHERE club_id = ? AND active = 1
		 ORDER BY number ASC`, clubID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active courts: %w", err)
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var court Court
		if err := rows.Scan(&court.ID, &court.ClubID, &court.Number, &court.Active); err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}
