package wallet

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/db"
)

// ReconcileAll sweeps every player that has ever booked and repairs drifted
// blocked balances, one transaction per player so a bad row does not wedge
// the whole run. Returns the number of wallets corrected.
func ReconcileAll(ctx context.Context, database *db.DB) (int, error) {
	playerIDs, err := database.Store.ListPlayerIDsWithBookings(ctx)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, playerID := range playerIDs {
		err := database.RunInTx(ctx, func(txdb *db.DB) error {
			fixed, err := RecomputeBlocked(ctx, txdb.Store, playerID)
			if err != nil {
				return err
			}
			if fixed {
				corrected++
			}
			return nil
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("component", "wallet_ledger").
				Int64("player_id", playerID).
				Msg("Wallet reconciliation failed for player")
			return corrected, err
		}
	}

	if corrected > 0 {
		log.Ctx(ctx).Info().
			Str("component", "wallet_ledger").
			Int("corrected", corrected).
			Msg("Wallet reconciliation corrected drifted balances")
	}
	return corrected, nil
}
