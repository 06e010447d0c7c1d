// internal/api/bookings/handlers.go
package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/allocation"
	"github.com/courtsidehq/courtside/internal/wallet"
)

var (
	engine     *allocation.Engine
	engineOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *allocation.Engine) {
	if e == nil {
		return
	}
	engineOnce.Do(func() {
		engine = e
	})
}

type joinRequest struct {
	SlotID   int64  `json:"slot_id"`
	PlayerID int64  `json:"player_id"`
	Modality int64  `json:"modality"`
	Currency string `json:"currency,omitempty"`
}

type joinResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type cancelRequest struct {
	BookingID string `json:"booking_id"`
	PlayerID  int64  `json:"player_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// POST /api/v1/bookings/join
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if engine == nil {
		log.Ctx(r.Context()).Error().Msg("Allocation engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := engine.Join(r.Context(), req.SlotID, req.PlayerID, req.Modality, req.Currency)
	if err != nil {
		writeJoinError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, joinResponse{BookingID: booking.ID, Status: booking.Status})
}

// POST /api/v1/bookings/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if engine == nil {
		log.Ctx(r.Context()).Error().Msg("Allocation engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := engine.Cancel(r.Context(), req.BookingID, "player"); err != nil {
		if errors.Is(err, allocation.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("booking_id", req.BookingID).Msg("Cancel failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// writeJoinError maps the error taxonomy onto responses: validation failures
// become user-facing rejections; capacity and integrity problems are logged
// server-side and surfaced as a generic failure.
func writeJoinError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, allocation.ErrLevelMismatch),
		errors.Is(err, allocation.ErrDuplicateDailyBooking),
		errors.Is(err, allocation.ErrAlreadyBooked),
		errors.Is(err, allocation.ErrModalityFull),
		errors.Is(err, allocation.ErrSlotFull),
		errors.Is(err, allocation.ErrInvalidModality),
		errors.Is(err, allocation.ErrCurrencyMismatch),
		errors.Is(err, wallet.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, allocation.ErrNoCourtAvailable):
		log.Ctx(r.Context()).Error().Err(err).Msg("Join failed: no court available")
		writeError(w, http.StatusServiceUnavailable, "class could not be scheduled")
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Join failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
