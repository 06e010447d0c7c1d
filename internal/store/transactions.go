package store

import (
	"context"
	"database/sql"
	"fmt"
)

type AppendWalletTransactionParams struct {
	ID           string
	PlayerID     int64
	Currency     string
	Action       string
	Amount       int64
	BalanceAfter int64
	Concept      string
	BookingID    sql.NullString
}

// AppendWalletTransaction writes one audit row. The table is append-only;
// there is deliberately no update or delete query for it.
func (s *Store) AppendWalletTransaction(ctx context.Context, params AppendWalletTransactionParams) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallet_transactions (
			id, player_id, currency, action, amount, balance_after, concept, booking_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.PlayerID, params.Currency, params.Action,
		params.Amount, params.BalanceAfter, params.Concept, params.BookingID,
	)
	if err != nil {
		return fmt.Errorf("append wallet transaction: %w", err)
	}
	return nil
}

func (s *Store) ListWalletTransactionsByPlayer(ctx context.Context, playerID int64) ([]WalletTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, player_id, currency, action, amount, balance_after, concept, booking_id, created_at
		 FROM wallet_transactions
		 WHERE player_id = ?
		 ORDER BY seq ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txs []WalletTransaction
	for rows.Next() {
		var tx WalletTransaction
		if err := rows.Scan(
			&tx.Seq, &tx.ID, &tx.PlayerID, &tx.Currency, &tx.Action,
			&tx.Amount, &tx.BalanceAfter, &tx.Concept, &tx.BookingID, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
