package bookingapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetroom/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second, zerolog.Nop())
}

func TestFetchBookings_BareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "room-1", r.URL.Query().Get("roomId"))
		assert.Equal(t, "2024-05-10", r.URL.Query().Get("date"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"b1","roomId":"room-1","bookingDate":"2024-05-10","startTime":"09:00","endTime":"10:00","fullName":"Ann Chai","status":"approved"},
			{"id":"b2","roomId":"room-1","bookingDate":"2024-05-10","startTime":"13:00","endTime":"15:00"}
		]`))
	})

	intervals, bad, err := client.FetchBookings(context.Background(), "room-1", model.Date{Year: 2024, Month: time.May, Day: 10})
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, intervals, 2)
	assert.Equal(t, "b1", intervals[0].ID)
	assert.Equal(t, "09:00", intervals[0].Start.String())
	assert.Equal(t, "15:00", intervals[1].End.String())
}

func TestFetchBookings_Envelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"bookings":[
			{"id":"b1","roomId":"room-1","bookingDate":"2024-05-10","startTime":"09:00","endTime":"10:00"}
		]}`))
	})

	intervals, bad, err := client.FetchBookings(context.Background(), "room-1", model.Date{Year: 2024, Month: time.May, Day: 10})
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, intervals, 1)
}

func TestFetchBookings_MalformedRecordsSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"good","roomId":"room-1","bookingDate":"2024-05-10","startTime":"09:00","endTime":"10:00"},
			{"id":"bad-time","roomId":"room-1","bookingDate":"2024-05-10","startTime":"9am","endTime":"10:00"},
			{"id":"bad-date","roomId":"room-1","bookingDate":"10.05.2024","startTime":"09:00","endTime":"10:00"},
			{"id":"inverted","roomId":"room-1","bookingDate":"2024-05-10","startTime":"11:00","endTime":"10:00"}
		]`))
	})

	intervals, bad, err := client.FetchBookings(context.Background(), "room-1", model.Date{Year: 2024, Month: time.May, Day: 10})
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, "good", intervals[0].ID)

	require.Len(t, bad, 3)
	ids := []string{bad[0].Record.ID, bad[1].Record.ID, bad[2].Record.ID}
	assert.Equal(t, []string{"bad-time", "bad-date", "inverted"}, ids)
	assert.ErrorIs(t, bad[0].Err, model.ErrMalformedTime)
}

func TestFetchBookings_RedisCache(t *testing.T) {
	hits := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`[
			{"id":"b1","roomId":"room-1","bookingDate":"2024-05-10","startTime":"09:00","endTime":"10:00"}
		]`))
	})

	mr := miniredis.RunT(t)
	client.UseRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	date := model.Date{Year: 2024, Month: time.May, Day: 10}
	for i := 0; i < 3; i++ {
		intervals, _, err := client.FetchBookings(context.Background(), "room-1", date)
		require.NoError(t, err)
		require.Len(t, intervals, 1)
	}
	assert.Equal(t, 1, hits, "repeat fetches must hit the cache")

	// Expired entries go back upstream.
	mr.FastForward(2 * time.Minute)
	_, _, err := client.FetchBookings(context.Background(), "room-1", date)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestFetchBookings_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, _, err := client.FetchBookings(context.Background(), "room-1", model.Date{Year: 2024, Month: time.May, Day: 10})
	assert.Error(t, err)
}

func TestFetchBookingsRange_QueryShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-05-31", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`[]`))
	})

	intervals, bad, err := client.FetchBookingsRange(context.Background(), "room-1",
		model.Date{Year: 2024, Month: time.May, Day: 1},
		model.Date{Year: 2024, Month: time.May, Day: 31})
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Empty(t, intervals)
}

func TestListRooms(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rooms":[{"id":"room-1","roomNumber":"A101","roomName":"Boardroom","capacity":12}]}`))
	})

	rooms, err := client.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "A101", rooms[0].RoomNumber)
	assert.Equal(t, 12, rooms[0].Capacity)
}

func TestRecord_ToInterval(t *testing.T) {
	r := Record{
		ID:          "b1",
		RoomID:      "room-1",
		BookingDate: "2024-05-10",
		StartTime:   "09:00",
		EndTime:     "10:30",
		Department:  "Finance",
	}

	interval, err := r.ToInterval()
	require.NoError(t, err)
	assert.Equal(t, model.Date{Year: 2024, Month: time.May, Day: 10}, interval.Date)
	assert.Equal(t, "09:00-10:30", interval.TimeRange())
	assert.Equal(t, "Finance", interval.Department)
}
