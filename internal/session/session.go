// Package session tracks a booking form in progress: the candidate
// interval as the user edits it, the booking snapshot fetched for its
// room and date, and the conflict result that gates submission.
package session

import (
	"sync"
	"time"

	"meetroom/internal/conflict"
	"meetroom/internal/metrics"
	"meetroom/internal/model"
)

// FetchState says how trustworthy the session's booking snapshot is.
type FetchState string

const (
	// FetchPending means no response has arrived for the current
	// candidate yet. Submission stays blocked.
	FetchPending FetchState = "pending"
	// FetchFresh means the snapshot matches the current candidate.
	FetchFresh FetchState = "fresh"
	// FetchFailed means the fetch errored; availability is unknown and
	// submission stays blocked with a retry prompt. A failed fetch is
	// never treated as "no conflicts".
	FetchFailed FetchState = "failed"
)

// Session is one user's booking form session.
type Session struct {
	UserID    string
	StartedAt time.Time

	mu        sync.Mutex
	hours     model.BusinessHours
	candidate conflict.Candidate
	excludeID string
	seq       uint64
	snapshot  []model.BookingInterval
	state     FetchState
	fetchErr  error
	result    conflict.Result
	updatedAt time.Time
}

// NewSession creates a session validating against the given hours.
func NewSession(userID string, hours model.BusinessHours) *Session {
	now := time.Now()
	return &Session{
		UserID:    userID,
		StartedAt: now,
		hours:     hours,
		state:     FetchPending,
		updatedAt: now,
	}
}

// SetCandidate replaces the candidate being edited and returns the new
// fetch sequence number. Every change to room, date, start or end comes
// through here; the conflict result is recomputed synchronously and the
// snapshot is considered pending until a fetch for this sequence lands.
func (s *Session) SetCandidate(c conflict.Candidate) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidate = c
	s.seq++
	s.state = FetchPending
	s.fetchErr = nil
	s.updatedAt = time.Now()
	s.recomputeLocked()
	return s.seq
}

// SetExcludeID marks the booking being edited so its own prior version
// never conflicts with the candidate.
func (s *Session) SetExcludeID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excludeID = id
	s.recomputeLocked()
}

// Candidate returns the candidate currently being edited.
func (s *Session) Candidate() conflict.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate
}

// Seq returns the current fetch sequence number.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// CurrentFetch returns the candidate together with the sequence a fetch
// for it must carry. One lock hold: reading them separately could pair
// an older candidate with a newer sequence and smuggle the wrong
// snapshot past the staleness guard.
func (s *Session) CurrentFetch() (conflict.Candidate, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate, s.seq
}

// ApplyBookings installs a fetched snapshot and recomputes the conflict
// result. Last request wins: a response for anything but the newest
// sequence is discarded and the call reports false.
func (s *Session) ApplyBookings(seq uint64, bookings []model.BookingInterval) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		metrics.IncStaleResponse()
		return false
	}
	s.snapshot = bookings
	s.state = FetchFresh
	s.fetchErr = nil
	s.updatedAt = time.Now()
	s.recomputeLocked()
	return true
}

// ApplyFetchFailure records a failed fetch for the given sequence.
// Stale failures are discarded like stale successes.
func (s *Session) ApplyFetchFailure(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		metrics.IncStaleResponse()
		return false
	}
	s.state = FetchFailed
	s.fetchErr = err
	s.updatedAt = time.Now()
	return true
}

func (s *Session) recomputeLocked() {
	if s.candidate.RoomID == "" || s.candidate.Date.IsZero() {
		s.result = conflict.Result{}
		return
	}
	s.result = conflict.Check(s.candidate, s.snapshot, conflict.Options{
		Hours:     s.hours,
		ExcludeID: s.excludeID,
	})
	metrics.IncConflictCheck(string(s.result.Kind))
}

// Result returns the latest conflict result.
func (s *Session) Result() conflict.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// State returns the snapshot fetch state.
func (s *Session) State() FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanSubmit reports whether the booking may be submitted: the candidate
// must be valid and checked against a snapshot that is current for it.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == FetchFresh && s.result.OK()
}

// BlockReason explains why submission is blocked; empty when it is not.
func (s *Session) BlockReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate.RoomID == "" || s.candidate.Date.IsZero() {
		return "select a room and date"
	}
	if !s.result.OK() {
		return s.result.Message
	}
	switch s.state {
	case FetchFailed:
		return "availability could not be checked, please retry"
	case FetchPending:
		return "checking availability"
	}
	return ""
}

// IsExpired checks if the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.updatedAt) > timeout
}

// Store manages booking form sessions per user.
type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
	hours    model.BusinessHours
}

// NewStore creates a session store.
func NewStore(hours model.BusinessHours, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		hours:    hours,
	}
}

// GetOrCreate returns an existing live session or creates a new one.
func (st *Store) GetOrCreate(userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[userID]
	if ok && !sess.IsExpired(st.timeout) {
		return sess
	}

	sess = NewSession(userID, st.hours)
	st.sessions[userID] = sess
	return sess
}

// Delete removes a session.
func (st *Store) Delete(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for userID, sess := range st.sessions {
		if sess.IsExpired(st.timeout) {
			delete(st.sessions, userID)
			removed++
		}
	}
	return removed
}
