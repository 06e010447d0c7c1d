package store

import (
	"context"
	"database/sql"
	"fmt"
)

type CreatePlayerParams struct {
	ClubID int64
	Name   string
	Level  sql.NullString
	Gender sql.NullString
}

func (s *Store) CreatePlayer(ctx context.Context, params CreatePlayerParams) (Player, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (club_id, name, level, gender) VALUES (?, ?, ?, ?)`,
		params.ClubID, params.Name, params.Level, params.Gender,
	)
	if err != nil {
		return Player{}, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Player{}, fmt.Errorf("player id: %w", err)
	}
	return s.GetPlayer(ctx, id)
}

const playerColumns = `id, club_id, name, level, gender,
	credits_cents, blocked_credits_cents, points, blocked_points`

func (s *Store) GetPlayer(ctx context.Context, id int64) (Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.ClubID, &p.Name, &p.Level, &p.Gender,
		&p.CreditsCents, &p.BlockedCreditsCents, &p.Points, &p.BlockedPoints,
	)
	if err != nil {
		return Player{}, err
	}
	return p, nil
}

// UpdatePlayerWallet writes all four balance columns at once. Only the
// wallet ledger calls this; every call runs inside the ledger's transaction,
// paired with an audit row.
func (s *Store) UpdatePlayerWallet(ctx context.Context, playerID, creditsCents, blockedCreditsCents, points, blockedPoints int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE players
		 SET credits_cents = ?, blocked_credits_cents = ?, points = ?, blocked_points = ?
		 WHERE id = ?`,
		creditsCents, blockedCreditsCents, points, blockedPoints, playerID,
	)
	if err != nil {
		return fmt.Errorf("update player wallet: %w", err)
	}
	return nil
}

func (s *Store) ListPlayersByIDs(ctx context.Context, ids []int64) (map[int64]Player, error) {
	players := make(map[int64]Player, len(ids))
	for _, id := range ids {
		if _, ok := players[id]; ok {
			continue
		}
		p, err := s.GetPlayer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get player %d: %w", id, err)
		}
		players[id] = p
	}
	return players, nil
}
