package api

import (
	"context"
	"net/http"
	"time"

	"meetroom/internal/calendar"
	"meetroom/internal/metrics"
	"meetroom/internal/model"
	"meetroom/internal/slots"
	"meetroom/internal/store"
)

// CalendarResponse is the response for GET /api/calendar.
type CalendarResponse struct {
	RoomID string          `json:"room_id"`
	Month  string          `json:"month"` // Format: YYYY-MM
	Today  string          `json:"today"`
	Cells  []calendar.Cell `json:"cells"`
	// Stale is set when the upstream fetch failed and the grid was
	// rendered from the last stored snapshot instead.
	Stale     bool   `json:"stale,omitempty"`
	FetchedAt string `json:"fetched_at,omitempty"`
}

// DayResponse is the response for GET /api/day.
type DayResponse struct {
	RoomID    string                  `json:"room_id"`
	Day       slots.DayAvailability   `json:"day"`
	Bookings  []model.BookingInterval `json:"bookings"`
	Stale     bool                    `json:"stale,omitempty"`
	FetchedAt string                  `json:"fetched_at,omitempty"`
}

// handleCalendar renders the month grid for one room.
// GET /api/calendar?room_id=...&month=YYYY-MM
func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	month, err := parseMonth(r.URL.Query().Get("month"), s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	first := model.Date{Year: month.Year, Month: month.Month, Day: 1}
	last := model.Date{Year: month.Year, Month: month.Month, Day: calendar.DaysIn(month.Month, month.Year)}

	resp := CalendarResponse{RoomID: roomID, Month: month.String(), Today: s.today().String()}

	bookings, _, err := s.client.FetchBookingsRange(r.Context(), roomID, first, last)
	switch {
	case err == nil:
		s.saveSnapshot(r.Context(), store.ScopeMonth, roomID, first, bookings)
	default:
		snap := s.loadSnapshot(r.Context(), store.ScopeMonth, roomID, first)
		if snap == nil {
			s.logger.Warn().Err(err).Str("room_id", roomID).Str("month", month.String()).Msg("calendar fetch failed, no snapshot")
			writeError(w, http.StatusBadGateway, "availability could not be checked, please retry")
			return
		}
		metrics.IncSnapshotFallback()
		s.logger.Warn().Err(err).Str("room_id", roomID).Str("month", month.String()).
			Time("fetched_at", snap.FetchedAt).Msg("calendar fetch failed, serving stored snapshot")
		bookings = snap.Bookings
		resp.Stale = true
		resp.FetchedAt = snap.FetchedAt.Format(time.RFC3339)
	}

	byDay := calendar.GroupByDay(month, bookings)
	resp.Cells = calendar.ProjectMonth(s.slotsCfg, month, s.today(), func(day int) []model.BookingInterval {
		return byDay[day]
	})
	writeJSON(w, http.StatusOK, resp)
}

// handleDay returns the hourly availability of one room and date.
// GET /api/day?room_id=...&date=YYYY-MM-DD
func (s *HTTPServer) handleDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("day")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	date, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	resp := DayResponse{RoomID: roomID}

	bookings, _, err := s.client.FetchBookings(r.Context(), roomID, date)
	switch {
	case err == nil:
		s.saveSnapshot(r.Context(), store.ScopeDay, roomID, date, bookings)
	default:
		snap := s.loadSnapshot(r.Context(), store.ScopeDay, roomID, date)
		if snap == nil {
			s.logger.Warn().Err(err).Str("room_id", roomID).Str("date", date.String()).Msg("day fetch failed, no snapshot")
			writeError(w, http.StatusBadGateway, "availability could not be checked, please retry")
			return
		}
		metrics.IncSnapshotFallback()
		bookings = snap.Bookings
		resp.Stale = true
		resp.FetchedAt = snap.FetchedAt.Format(time.RFC3339)
	}

	resp.Day = slots.AggregateDay(s.slotsCfg, date, s.today(), bookings)
	resp.Bookings = bookings
	writeJSON(w, http.StatusOK, resp)
}

// handleRooms proxies the upstream room list.
// GET /api/rooms
func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rooms, err := s.client.ListRooms(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("room list fetch failed")
		writeError(w, http.StatusBadGateway, "room list unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) saveSnapshot(ctx context.Context, scope, roomID string, date model.Date, bookings []model.BookingInterval) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, scope, roomID, date, bookings); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot save failed")
	}
}

func (s *HTTPServer) loadSnapshot(ctx context.Context, scope, roomID string, date model.Date) *store.Snapshot {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.GetSnapshot(ctx, scope, roomID, date)
	if err != nil {
		return nil
	}
	return snap
}

// parseMonth parses YYYY-MM, defaulting to today's month when empty.
func parseMonth(s string, today model.Date) (calendar.Month, error) {
	if s == "" {
		return calendar.Month{Year: today.Year, Month: today.Month}, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return calendar.Month{}, err
	}
	return calendar.Month{Year: t.Year(), Month: t.Month()}, nil
}
