package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meetroom/internal/bookingapi"
	"meetroom/internal/conflict"
	"meetroom/internal/events"
	"meetroom/internal/model"
)

// BookingClient fetches the bookings of one room and date.
type BookingClient interface {
	FetchBookings(ctx context.Context, roomID string, date model.Date) ([]model.BookingInterval, []bookingapi.RecordError, error)
}

// Fetcher runs the asynchronous snapshot fetches behind a session. Each
// fetch is tagged with the session's sequence number at launch time, so
// the session can discard responses that a newer candidate superseded.
type Fetcher struct {
	client BookingClient
	bus    *events.Bus
	logger zerolog.Logger
}

// NewFetcher creates a fetcher. The bus may be nil.
func NewFetcher(client BookingClient, bus *events.Bus, logger zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, bus: bus, logger: logger}
}

// Refresh launches a fetch for the session's current candidate and
// returns the sequence it was tagged with. The response is applied on
// arrival; cancelling ctx (navigating away) discards it entirely.
func (f *Fetcher) Refresh(ctx context.Context, sess *Session) uint64 {
	c, seq := sess.CurrentFetch()
	return f.launch(ctx, sess, c, seq)
}

// launch starts the background fetch for one candidate+sequence pair.
// The pair travels together: the sequence is the one SetCandidate
// assigned to exactly this candidate.
func (f *Fetcher) launch(ctx context.Context, sess *Session, c conflict.Candidate, seq uint64) uint64 {
	if c.RoomID == "" || c.Date.IsZero() {
		return seq
	}

	requestID := uuid.New().String()
	logger := f.logger.With().
		Str("request_id", requestID).
		Str("room_id", c.RoomID).
		Str("date", c.Date.String()).
		Uint64("seq", seq).
		Logger()

	go func() {
		bookings, bad, err := f.client.FetchBookings(ctx, c.RoomID, c.Date)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Debug().Msg("fetch canceled, result discarded")
				return
			}
			logger.Warn().Err(err).Msg("booking fetch failed")
			if sess.ApplyFetchFailure(seq, err) {
				f.publish(events.TypeFetchFailed, c)
			}
			return
		}

		if len(bad) > 0 {
			logger.Warn().Int("records", len(bad)).Msg("snapshot contains malformed booking records")
		}
		if !sess.ApplyBookings(seq, bookings) {
			logger.Debug().Msg("stale fetch response discarded")
			return
		}
		f.publish(events.TypeSnapshotReplaced, c)
	}()
	return seq
}

// Recheck updates the session candidate and launches the fetch for it
// in one step: the synchronous conflict recompute happens inside
// SetCandidate, the snapshot refresh happens in the background.
func (f *Fetcher) Recheck(ctx context.Context, sess *Session, c conflict.Candidate) uint64 {
	seq := sess.SetCandidate(c)
	f.publish(events.TypeCandidateChanged, c)
	return f.launch(ctx, sess, c, seq)
}

func (f *Fetcher) publish(eventType string, c conflict.Candidate) {
	if f.bus == nil {
		return
	}
	f.bus.Publish(events.Event{Type: eventType, RoomID: c.RoomID, Date: c.Date})
}
