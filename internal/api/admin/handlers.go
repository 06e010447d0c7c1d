// internal/api/admin/handlers.go
package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/proposals"
	"github.com/courtsidehq/courtside/internal/store"
)

var (
	generator     *proposals.Generator
	generatorOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(g *proposals.Generator) {
	if g == nil {
		return
	}
	generatorOnce.Do(func() {
		generator = g
	})
}

type generateRequest struct {
	ClubID             int64   `json:"club_id"`
	InstructorID       int64   `json:"instructor_id"`
	From               string  `json:"from"` // YYYY-MM-DD
	To                 string  `json:"to"`
	StartHours         []int   `json:"start_hours"`
	MaxPlayers         int64   `json:"max_players,omitempty"`
	Level              *string `json:"level,omitempty"`
	Gender             *string `json:"gender,omitempty"`
	InstructorFeeCents int64   `json:"instructor_fee_cents"`
	CourtFeeCents      int64   `json:"court_fee_cents"`
	CreditsSlots       []int64 `json:"credits_slots,omitempty"`
}

// POST /api/v1/admin/slots/generate
func HandleGenerateSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if generator == nil {
		log.Ctx(r.Context()).Error().Msg("Proposal generator not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		http.Error(w, "invalid from date", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		http.Error(w, "invalid to date", http.StatusBadRequest)
		return
	}

	params := proposals.GenerateParams{
		ClubID:       req.ClubID,
		InstructorID: req.InstructorID,
		From:         from,
		To:           to,
		StartHours:   req.StartHours,
		MaxPlayers:   req.MaxPlayers,
		Pricing: proposals.Pricing{
			InstructorFeeCents: req.InstructorFeeCents,
			CourtFeeCents:      req.CourtFeeCents,
		},
		CreditsSlots: store.NewModalitySet(req.CreditsSlots...),
	}
	if req.Level != nil {
		params.Level = sql.NullString{String: *req.Level, Valid: true}
	}
	if req.Gender != nil {
		params.Gender = sql.NullString{String: *req.Gender, Valid: true}
	}

	created, err := generator.Generate(r.Context(), params)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("club_id", req.ClubID).Msg("Slot generation failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"created": created})
}
