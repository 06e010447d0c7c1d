// internal/api/slots/handlers.go
package slots

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/readmodel"
	"github.com/courtsidehq/courtside/internal/store"
)

var (
	queries     *store.Store
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(st *store.Store) {
	if st == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = st
	})
}

// GET /api/v1/slots?slot_id=N
func HandleSlotView(w http.ResponseWriter, r *http.Request) {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slotID, err := strconv.ParseInt(r.URL.Query().Get("slot_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid slot_id", http.StatusBadRequest)
		return
	}

	view, err := readmodel.BuildSlotView(r.Context(), queries, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "slot not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("slot_id", slotID).Msg("Failed to build slot view")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

// GET /api/v1/slots/day?club_id=N&date=2026-01-15
func HandleClubDay(w http.ResponseWriter, r *http.Request) {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Store not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	clubID, err := strconv.ParseInt(r.URL.Query().Get("club_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid club_id", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	views, err := readmodel.BuildClubDay(r.Context(), queries, clubID, day, day.AddDate(0, 0, 1))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("club_id", clubID).Msg("Failed to build club day")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}
