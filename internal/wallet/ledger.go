// Package wallet is the sole mutator of player balances. Every mutation runs
// against the caller's transaction-bound store and appends exactly one audit
// row; balances are never written anywhere else in the codebase.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/store"
)

var (
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInsufficientBlockedFunds = errors.New("insufficient blocked funds")
	ErrUnknownCurrency          = errors.New("unknown currency")
	ErrNonPositiveAmount        = errors.New("amount must be positive")
)

// balances is one currency's view of a player wallet.
type balances struct {
	total   int64
	blocked int64
}

func read(p store.Player, currency string) (balances, error) {
	switch currency {
	case store.CurrencyCredits:
		return balances{total: p.CreditsCents, blocked: p.BlockedCreditsCents}, nil
	case store.CurrencyPoints:
		return balances{total: p.Points, blocked: p.BlockedPoints}, nil
	default:
		return balances{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
}

func write(ctx context.Context, st *store.Store, p store.Player, currency string, b balances) error {
	switch currency {
	case store.CurrencyCredits:
		return st.UpdatePlayerWallet(ctx, p.ID, b.total, b.blocked, p.Points, p.BlockedPoints)
	case store.CurrencyPoints:
		return st.UpdatePlayerWallet(ctx, p.ID, p.CreditsCents, p.BlockedCreditsCents, b.total, b.blocked)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
}

func audit(ctx context.Context, st *store.Store, playerID int64, currency, action string, amount, balanceAfter int64, concept, bookingID string) error {
	ref := sql.NullString{}
	if bookingID != "" {
		ref = sql.NullString{String: bookingID, Valid: true}
	}
	return st.AppendWalletTransaction(ctx, store.AppendWalletTransactionParams{
		ID:           uuid.NewString(),
		PlayerID:     playerID,
		Currency:     currency,
		Action:       action,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Concept:      concept,
		BookingID:    ref,
	})
}

// checkIntegrity logs loudly when a wallet is already desynced. The caller's
// operation still proceeds; reconciliation repairs the drift.
func checkIntegrity(ctx context.Context, playerID int64, currency string, b balances) {
	if b.blocked < 0 || b.blocked > b.total {
		log.Ctx(ctx).Error().
			Str("component", "wallet_ledger").
			Int64("player_id", playerID).
			Str("currency", currency).
			Int64("total", b.total).
			Int64("blocked", b.blocked).
			Msg("Wallet integrity violation: blocked balance out of range")
	}
}

// Block holds amount against a pending booking. Fails when the spendable
// balance (total minus already blocked) does not cover it.
func Block(ctx context.Context, st *store.Store, playerID int64, currency string, amount int64, concept, bookingID string) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", playerID, err)
	}
	b, err := read(player, currency)
	if err != nil {
		return err
	}
	checkIntegrity(ctx, playerID, currency, b)
	if amount > b.total-b.blocked {
		return fmt.Errorf("%w: need %d %s, have %d spendable", ErrInsufficientFunds, amount, currency, b.total-b.blocked)
	}
	b.blocked += amount
	if err := write(ctx, st, player, currency, b); err != nil {
		return err
	}
	return audit(ctx, st, playerID, currency, store.TxActionBlock, amount, b.blocked, concept, bookingID)
}

// Unblock releases a hold, floored at zero. Used when a booking cancels
// before being charged.
func Unblock(ctx context.Context, st *store.Store, playerID int64, currency string, amount int64, concept, bookingID string) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", playerID, err)
	}
	b, err := read(player, currency)
	if err != nil {
		return err
	}
	checkIntegrity(ctx, playerID, currency, b)
	if amount > b.blocked {
		log.Ctx(ctx).Error().
			Str("component", "wallet_ledger").
			Int64("player_id", playerID).
			Str("currency", currency).
			Int64("blocked", b.blocked).
			Int64("amount", amount).
			Msg("Unblock exceeds blocked balance, flooring at zero")
		amount = b.blocked
	}
	b.blocked -= amount
	if err := write(ctx, st, player, currency, b); err != nil {
		return err
	}
	return audit(ctx, st, playerID, currency, store.TxActionUnblock, amount, b.blocked, concept, bookingID)
}

// Charge finalizes a previously blocked hold into a spend: total and blocked
// both decrease.
func Charge(ctx context.Context, st *store.Store, playerID int64, currency string, amount int64, concept, bookingID string) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", playerID, err)
	}
	b, err := read(player, currency)
	if err != nil {
		return err
	}
	checkIntegrity(ctx, playerID, currency, b)
	if b.blocked < amount {
		return fmt.Errorf("%w: need %d %s blocked, have %d", ErrInsufficientBlockedFunds, amount, currency, b.blocked)
	}
	b.total -= amount
	b.blocked -= amount
	if err := write(ctx, st, player, currency, b); err != nil {
		return err
	}
	return audit(ctx, st, playerID, currency, store.TxActionCharge, amount, b.total, concept, bookingID)
}

// Refund credits amount back to the total balance. The confirmed-cancel
// policy uses it to grant points in place of a cash refund.
func Refund(ctx context.Context, st *store.Store, playerID int64, currency string, amount int64, concept, bookingID string) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", playerID, err)
	}
	b, err := read(player, currency)
	if err != nil {
		return err
	}
	b.total += amount
	if err := write(ctx, st, player, currency, b); err != nil {
		return err
	}
	return audit(ctx, st, playerID, currency, store.TxActionRefund, amount, b.total, concept, bookingID)
}

// Add deposits into the total balance (credit pack purchase, points grant).
func Add(ctx context.Context, st *store.Store, playerID int64, currency string, amount int64, concept string) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player %d: %w", playerID, err)
	}
	b, err := read(player, currency)
	if err != nil {
		return err
	}
	b.total += amount
	if err := write(ctx, st, player, currency, b); err != nil {
		return err
	}
	return audit(ctx, st, playerID, currency, store.TxActionAdd, amount, b.total, concept, "")
}

// RecomputeBlocked recalculates both blocked balances from the player's
// still-pending bookings and repairs any drift, writing adjustment audit
// rows. Returns true when a correction was made.
func RecomputeBlocked(ctx context.Context, st *store.Store, playerID int64) (bool, error) {
	player, err := st.GetPlayer(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("load player %d: %w", playerID, err)
	}
	wantCents, wantPoints, err := st.SumPendingHoldsByPlayer(ctx, playerID)
	if err != nil {
		return false, err
	}
	if player.BlockedCreditsCents == wantCents && player.BlockedPoints == wantPoints {
		return false, nil
	}

	log.Ctx(ctx).Error().
		Str("component", "wallet_ledger").
		Int64("player_id", playerID).
		Int64("blocked_credits", player.BlockedCreditsCents).
		Int64("want_blocked_credits", wantCents).
		Int64("blocked_points", player.BlockedPoints).
		Int64("want_blocked_points", wantPoints).
		Msg("Wallet blocked balances drifted, reconciling")

	if err := st.UpdatePlayerWallet(ctx, playerID, player.CreditsCents, wantCents, player.Points, wantPoints); err != nil {
		return false, err
	}
	if err := auditDrift(ctx, st, playerID, store.CurrencyCredits, player.BlockedCreditsCents, wantCents); err != nil {
		return false, err
	}
	if err := auditDrift(ctx, st, playerID, store.CurrencyPoints, player.BlockedPoints, wantPoints); err != nil {
		return false, err
	}
	return true, nil
}

func auditDrift(ctx context.Context, st *store.Store, playerID int64, currency string, have, want int64) error {
	if have == want {
		return nil
	}
	action := store.TxActionUnblock
	amount := have - want
	if want > have {
		action = store.TxActionBlock
		amount = want - have
	}
	return audit(ctx, st, playerID, currency, action, amount, want, "blocked balance reconciliation", "")
}
