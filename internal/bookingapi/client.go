// Package bookingapi is the HTTP client for the upstream booking REST
// API. It owns the wire-to-model translation: raw records with textual
// HH:MM times come in, parsed BookingIntervals go out, and any record
// that fails to parse is reported rather than silently skipped.
package bookingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"meetroom/internal/metrics"
	"meetroom/internal/model"
)

// Record is one booking as the upstream API returns it.
type Record struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	FullName    string `json:"fullName,omitempty"`
	Department  string `json:"department,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Status      string `json:"status,omitempty"`
}

// RecordError is a record that could not be turned into a valid
// interval. The calendar still renders from the good records, but the
// failure is surfaced to the caller and counted.
type RecordError struct {
	Record Record
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("booking record %q: %v", e.Record.ID, e.Err)
}

// Room is a bookable meeting room.
type Room struct {
	ID         string `json:"id"`
	RoomNumber string `json:"roomNumber"`
	RoomName   string `json:"roomName"`
	Capacity   int    `json:"capacity"`
}

// Client calls the upstream booking API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
	limiter  *rate.Limiter
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles upstream calls with a token bucket.
func (c *Client) UseRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 || burst <= 0 {
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// FetchBookings returns the parsed bookings of one room and date, plus
// any records that failed to parse. A non-nil error means the fetch
// itself failed and availability must be treated as unknown.
func (c *Client) FetchBookings(ctx context.Context, roomID string, date model.Date) ([]model.BookingInterval, []RecordError, error) {
	endpoint := fmt.Sprintf("%s/api/bookings?roomId=%s&date=%s",
		c.baseURL, url.QueryEscape(roomID), url.QueryEscape(date.String()))
	return c.fetch(ctx, endpoint, fmt.Sprintf("bookings:%s:%s", roomID, date))
}

// FetchBookingsRange returns the parsed bookings of one room over an
// inclusive date range, e.g. the window around a displayed month.
func (c *Client) FetchBookingsRange(ctx context.Context, roomID string, from, to model.Date) ([]model.BookingInterval, []RecordError, error) {
	endpoint := fmt.Sprintf("%s/api/bookings?roomId=%s&from=%s&to=%s",
		c.baseURL, url.QueryEscape(roomID), url.QueryEscape(from.String()), url.QueryEscape(to.String()))
	return c.fetch(ctx, endpoint, fmt.Sprintf("bookings:%s:%s:%s", roomID, from, to))
}

func (c *Client) fetch(ctx context.Context, endpoint, cacheKey string) ([]model.BookingInterval, []RecordError, error) {
	var records []Record
	if c.readCache(ctx, cacheKey, &records) {
		metrics.IncBookingFetch("cache_hit")
		intervals, bad := c.parseRecords(records)
		return intervals, bad, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}

	records, err := c.getBookings(ctx, endpoint)
	if err != nil {
		metrics.IncBookingFetch("error")
		return nil, nil, err
	}
	metrics.IncBookingFetch("ok")

	c.writeCache(ctx, cacheKey, records)
	intervals, bad := c.parseRecords(records)
	return intervals, bad, nil
}

// parseRecords converts wire records into intervals. Records with
// malformed dates or times, or an inverted range, come back in the
// RecordError slice; the rest parse cleanly.
func (c *Client) parseRecords(records []Record) ([]model.BookingInterval, []RecordError) {
	var intervals []model.BookingInterval
	var bad []RecordError

	for _, r := range records {
		interval, err := r.ToInterval()
		if err != nil {
			metrics.IncMalformedRecord()
			c.logger.Warn().Str("booking_id", r.ID).Err(err).Msg("dropping malformed booking record")
			bad = append(bad, RecordError{Record: r, Err: err})
			continue
		}
		intervals = append(intervals, interval)
	}
	return intervals, bad
}

// ToInterval parses the record's textual fields into a BookingInterval.
func (r Record) ToInterval() (model.BookingInterval, error) {
	date, err := model.ParseDate(r.BookingDate)
	if err != nil {
		return model.BookingInterval{}, err
	}
	start, err := model.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return model.BookingInterval{}, fmt.Errorf("start time: %w", err)
	}
	end, err := model.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return model.BookingInterval{}, fmt.Errorf("end time: %w", err)
	}

	interval := model.BookingInterval{
		ID:         r.ID,
		RoomID:     r.RoomID,
		Date:       date,
		Start:      start,
		End:        end,
		FullName:   r.FullName,
		Department: r.Department,
		Purpose:    r.Purpose,
		Status:     r.Status,
	}
	if err := interval.Validate(); err != nil {
		return model.BookingInterval{}, err
	}
	return interval, nil
}

// getBookings decodes the bookings payload, accepting both a bare array
// and the {"bookings": [...]} envelope the upstream sometimes uses.
func (c *Client) getBookings(ctx context.Context, endpoint string) ([]Record, error) {
	var raw json.RawMessage
	if err := c.doGet(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var wrap struct {
		Bookings []Record `json:"bookings"`
	}
	if err := json.Unmarshal(raw, &wrap); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return wrap.Bookings, nil
}

// ListRooms returns all bookable rooms.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	endpoint := fmt.Sprintf("%s/api/rooms", c.baseURL)
	cacheKey := "rooms"

	var raw json.RawMessage
	if !c.readCache(ctx, cacheKey, &raw) {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		if err := c.doGet(ctx, endpoint, &raw); err != nil {
			return nil, err
		}
		c.writeCache(ctx, cacheKey, raw)
	}

	var rooms []Room
	if err := json.Unmarshal(raw, &rooms); err == nil {
		return rooms, nil
	}
	var wrap struct {
		Rooms []Room `json:"rooms"`
	}
	if err := json.Unmarshal(raw, &wrap); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return wrap.Rooms, nil
}

// HealthCheck checks if the upstream API is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/healthz", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
