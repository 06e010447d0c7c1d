package allocation

import "errors"

var (
	// ErrLevelMismatch rejects a join whose player does not satisfy the
	// slot's level or gender restriction.
	ErrLevelMismatch = errors.New("player does not match slot restrictions")
	// ErrDuplicateDailyBooking rejects a second confirmed booking for the
	// same player on the same club-local calendar day.
	ErrDuplicateDailyBooking = errors.New("player already has a confirmed booking that day")
	// ErrNoCourtAvailable means no physical court is free for the winning
	// window; the would-be winners are rolled back.
	ErrNoCourtAvailable = errors.New("no court available")
	// ErrAlreadyBooked rejects a join by a player who already holds a
	// pending or confirmed booking on the same slot.
	ErrAlreadyBooked = errors.New("player already booked on this slot")
	// ErrModalityFull rejects a join against a modality that already has its
	// required player count.
	ErrModalityFull = errors.New("modality already full")
	// ErrSlotFull rejects a join that would push occupied seats past the
	// slot's max players, or a recycled join with no freed seat.
	ErrSlotFull = errors.New("class slot is full")
	// ErrCurrencyMismatch rejects a join paying with the wrong currency for
	// the modality (points-funded modalities take points only).
	ErrCurrencyMismatch = errors.New("currency not accepted for this modality")
	// ErrInvalidModality rejects group sizes outside 1..4 or above the
	// slot's max players.
	ErrInvalidModality = errors.New("invalid modality")
	// ErrBookingNotFound means the booking id does not exist.
	ErrBookingNotFound = errors.New("booking not found")
)
