// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/courtsidehq/courtside/internal/allocation"
	"github.com/courtsidehq/courtside/internal/api"
	"github.com/courtsidehq/courtside/internal/api/admin"
	"github.com/courtsidehq/courtside/internal/api/bookings"
	"github.com/courtsidehq/courtside/internal/api/slots"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/proposals"
)

func newServer(cfg *config.Config, database *db.DB, engine *allocation.Engine, generator *proposals.Generator) *http.Server {
	bookings.InitHandlers(engine)
	slots.InitHandlers(database.Store)
	admin.InitHandlers(generator)

	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Booking routes
	mux.HandleFunc("/api/v1/bookings/join", bookings.HandleJoin)
	mux.HandleFunc("/api/v1/bookings/cancel", bookings.HandleCancel)

	// Slot read model
	mux.HandleFunc("/api/v1/slots", slots.HandleSlotView)
	mux.HandleFunc("/api/v1/slots/day", slots.HandleClubDay)

	// Admin routes (proposal generation batch)
	mux.HandleFunc("/api/v1/admin/slots/generate", admin.HandleGenerateSlots)
}
