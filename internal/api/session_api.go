package api

import (
	"context"
	"encoding/json"
	"net/http"

	"meetroom/internal/conflict"
	"meetroom/internal/metrics"
	"meetroom/internal/model"
	"meetroom/internal/session"
)

// CandidateRequest is the request body for POST /api/session/candidate.
// The web client posts it on every edit of the booking form.
type CandidateRequest struct {
	UserID    string `json:"user_id"`
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`       // Format: YYYY-MM-DD
	StartTime string `json:"start_time"` // Format: HH:MM
	EndTime   string `json:"end_time"`   // Format: HH:MM
	ExcludeID string `json:"exclude_id,omitempty"`
}

// SessionStateResponse is the response for the session endpoints.
type SessionStateResponse struct {
	FetchState  string           `json:"fetch_state"`
	CanSubmit   bool             `json:"can_submit"`
	BlockReason string           `json:"block_reason,omitempty"`
	Result      ConflictResponse `json:"result"`
	Seq         uint64           `json:"seq"`
}

// handleSessionCandidate records a form edit and kicks off the
// availability re-check for it. The response reflects the structural
// validation immediately; the overlap verdict lands once the background
// fetch resolves and is read back via GET /api/session.
// POST /api/session/candidate
func (s *HTTPServer) handleSessionCandidate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("session_candidate")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CandidateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var date model.Date
	if req.Date != "" {
		var err error
		if date, err = model.ParseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}

	sess := s.sessions.GetOrCreate(req.UserID)
	sess.SetExcludeID(req.ExcludeID)

	// The fetch must outlive this request: the client polls for the
	// verdict afterwards. Only a newer edit supersedes it.
	s.fetcher.Recheck(context.Background(), sess, conflict.Candidate{
		RoomID:    req.RoomID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})

	writeJSON(w, http.StatusOK, sessionState(sess))
}

// handleSession reads or discards a form session.
// GET /api/session?user_id=...  DELETE /api/session?user_id=...
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("session")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sessionState(s.sessions.GetOrCreate(userID)))
	case http.MethodDelete:
		s.sessions.Delete(userID)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func sessionState(sess *session.Session) SessionStateResponse {
	result := sess.Result()
	resp := SessionStateResponse{
		FetchState:  string(sess.State()),
		CanSubmit:   sess.CanSubmit(),
		BlockReason: sess.BlockReason(),
		Seq:         sess.Seq(),
		Result: ConflictResponse{
			Result:    string(result.Kind),
			CanSubmit: result.OK(),
			Message:   result.Message,
		},
	}
	for _, b := range result.Conflicts {
		resp.Result.Conflicts = append(resp.Result.Conflicts, ConflictInterval{
			ID:        b.ID,
			StartTime: b.Start.String(),
			EndTime:   b.End.String(),
			TimeRange: b.TimeRange(),
		})
	}
	return resp
}
