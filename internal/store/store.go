// Package store is the only place SQL lives outside the migrations. Queries
// are bound to a DBTX so the same methods run against the pooled connection
// or the transaction handed out by db.RunInTx.
package store

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// Booking lifecycle. CANCELLED is terminal.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

const (
	CurrencyCredits = "credits"
	CurrencyPoints  = "points"
)

const (
	TxActionAdd     = "add"
	TxActionCharge  = "charge"
	TxActionBlock   = "block"
	TxActionUnblock = "unblock"
	TxActionRefund  = "refund"
)

type Club struct {
	ID       int64
	Name     string
	Slug     string
	Timezone string
}

type Court struct {
	ID     int64
	ClubID int64
	Number int64
	Active bool
}

type Player struct {
	ID                  int64
	ClubID              int64
	Name                string
	Level               sql.NullString
	Gender              sql.NullString
	CreditsCents        int64
	BlockedCreditsCents int64
	Points              int64
	BlockedPoints       int64
}

// ModalityPrices holds the per-player money price of each group-size
// modality, indexed by modality minus one.
type ModalityPrices [4]int64

// For returns the per-player price of the given modality (1..4).
func (p ModalityPrices) For(modality int64) int64 {
	if modality < 1 || modality > 4 {
		return 0
	}
	return p[modality-1]
}

type ClassSlot struct {
	ID           int64
	ClubID       int64
	InstructorID int64
	StartTime    time.Time
	EndTime      time.Time
	MaxPlayers   int64
	Level        sql.NullString
	Gender       sql.NullString
	Prices       ModalityPrices
	CreditsSlots ModalitySet
	CourtID      sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Confirmed reports whether the slot has a court assigned.
func (s ClassSlot) Confirmed() bool {
	return s.CourtID.Valid
}

type Booking struct {
	Seq            int64
	ID             string
	SlotID         int64
	PlayerID       int64
	GroupSize      int64
	Status         string
	AmountCents    int64
	PointsUsed     int64
	PaidWithPoints bool
	Recycled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type WalletTransaction struct {
	Seq          int64
	ID           string
	PlayerID     int64
	Currency     string
	Action       string
	Amount       int64
	BalanceAfter int64
	Concept      string
	BookingID    sql.NullString
	CreatedAt    time.Time
}

type ScheduleBlock struct {
	ID        int64
	CourtID   int64
	SlotID    sql.NullInt64
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}
