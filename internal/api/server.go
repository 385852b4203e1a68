// Package api is the HTTP surface of the booking calendar service. It
// fronts the upstream booking API for the web client: conflict checks,
// month calendars, day availability and utilization exports.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"meetroom/internal/bookingapi"
	"meetroom/internal/events"
	"meetroom/internal/model"
	"meetroom/internal/session"
	"meetroom/internal/slots"
	"meetroom/internal/store"
)

// BookingSource is the slice of the upstream client the handlers use.
type BookingSource interface {
	FetchBookings(ctx context.Context, roomID string, date model.Date) ([]model.BookingInterval, []bookingapi.RecordError, error)
	FetchBookingsRange(ctx context.Context, roomID string, from, to model.Date) ([]model.BookingInterval, []bookingapi.RecordError, error)
	ListRooms(ctx context.Context) ([]bookingapi.Room, error)
}

// HTTPServer serves the booking calendar API.
type HTTPServer struct {
	server    *http.Server
	client    BookingSource
	snapshots *store.DB
	sessions  *session.Store
	fetcher   *session.Fetcher
	slotsCfg  slots.Config
	apiKey    string
	logger    zerolog.Logger

	// now is replaceable in tests; "today" derives from it.
	now func() time.Time
}

// NewHTTPServer wires the handlers. snapshots may be nil, which disables
// the stale-calendar fallback. apiKey empty disables auth.
func NewHTTPServer(port int, client BookingSource, snapshots *store.DB, sessions *session.Store, bus *events.Bus, slotsCfg slots.Config, apiKey string, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		client:    client,
		snapshots: snapshots,
		sessions:  sessions,
		fetcher:   session.NewFetcher(client, bus, logger),
		slotsCfg:  slotsCfg,
		apiKey:    apiKey,
		logger:    logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms", s.requireKey(s.handleRooms))
	mux.HandleFunc("/api/conflict-check", s.requireKey(s.handleConflictCheck))
	mux.HandleFunc("/api/calendar", s.requireKey(s.handleCalendar))
	mux.HandleFunc("/api/day", s.requireKey(s.handleDay))
	mux.HandleFunc("/api/report", s.requireKey(s.handleReport))
	mux.HandleFunc("/api/session", s.requireKey(s.handleSession))
	mux.HandleFunc("/api/session/candidate", s.requireKey(s.handleSessionCandidate))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("api server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}

func (s *HTTPServer) today() model.Date {
	return model.DateOf(s.now())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
