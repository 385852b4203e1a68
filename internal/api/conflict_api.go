package api

import (
	"encoding/json"
	"net/http"

	"meetroom/internal/conflict"
	"meetroom/internal/metrics"
	"meetroom/internal/model"
)

// ConflictCheckRequest is the request body for POST /api/conflict-check.
type ConflictCheckRequest struct {
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`       // Format: YYYY-MM-DD
	StartTime string `json:"start_time"` // Format: HH:MM
	EndTime   string `json:"end_time"`   // Format: HH:MM
	// ExcludeID names the booking being edited, so its own prior
	// version is not reported as a conflict.
	ExcludeID string `json:"exclude_id,omitempty"`
}

// ConflictResponse is the response for POST /api/conflict-check.
type ConflictResponse struct {
	Result    string             `json:"result"`
	CanSubmit bool               `json:"can_submit"`
	Message   string             `json:"message,omitempty"`
	Conflicts []ConflictInterval `json:"conflicts,omitempty"`
}

// ConflictInterval is one overlapping booking in a conflict response.
type ConflictInterval struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	TimeRange string `json:"time_range"`
}

// handleConflictCheck validates a candidate booking against the live
// booking set of its room and date.
// POST /api/conflict-check
func (s *HTTPServer) handleConflictCheck(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("conflict_check")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConflictCheckRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.RoomID == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "room_id and date are required")
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	// A failed fetch means availability is unknown. That blocks the
	// check outright; it is never reported as "no conflicts".
	existing, _, err := s.client.FetchBookings(r.Context(), req.RoomID, date)
	if err != nil {
		s.logger.Warn().Err(err).Str("room_id", req.RoomID).Str("date", req.Date).Msg("conflict check fetch failed")
		writeError(w, http.StatusBadGateway, "availability could not be checked, please retry")
		return
	}

	result := conflict.Check(conflict.Candidate{
		RoomID:    req.RoomID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}, existing, conflict.Options{
		Hours:     s.slotsCfg.Hours,
		ExcludeID: req.ExcludeID,
	})
	metrics.IncConflictCheck(string(result.Kind))

	resp := ConflictResponse{
		Result:    string(result.Kind),
		CanSubmit: result.OK(),
		Message:   result.Message,
	}
	for _, b := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictInterval{
			ID:        b.ID,
			StartTime: b.Start.String(),
			EndTime:   b.End.String(),
			TimeRange: b.TimeRange(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
