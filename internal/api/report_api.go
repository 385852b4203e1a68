package api

import (
	"fmt"
	"net/http"

	"meetroom/internal/calendar"
	"meetroom/internal/metrics"
	"meetroom/internal/model"
	"meetroom/internal/report"
)

// handleReport streams a month utilization workbook for one room.
// GET /api/report?room_id=...&month=YYYY-MM
func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("report")
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

	bookings, _, err := s.client.FetchBookingsRange(r.Context(), roomID, first, last)
	if err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Str("month", month.String()).Msg("report fetch failed")
		writeError(w, http.StatusBadGateway, "availability could not be checked, please retry")
		return
	}

	roomName, roomNumber := s.roomLabels(r, roomID)
	byDay := calendar.GroupByDay(month, bookings)
	cells := calendar.ProjectMonth(s.slotsCfg, month, s.today(), func(day int) []model.BookingInterval {
		return byDay[day]
	})

	filename := report.Filename(roomNumber, month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	err = report.Write(w, report.MonthReport{
		RoomName: roomName,
		Month:    month,
		Cells:    cells,
		Hours:    s.slotsCfg.Hours,
	})
	if err != nil {
		// Headers are already out; all that is left is logging.
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("report write failed")
	}
}

// roomLabels resolves a display name and number for the room, falling
// back to the raw ID when the room list is unavailable.
func (s *HTTPServer) roomLabels(r *http.Request, roomID string) (name, number string) {
	rooms, err := s.client.ListRooms(r.Context())
	if err != nil {
		return roomID, roomID
	}
	for _, room := range rooms {
		if room.ID == roomID {
			return room.RoomName, room.RoomNumber
		}
	}
	return roomID, roomID
}
