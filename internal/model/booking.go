package model

import "fmt"

// Booking statuses as reported by the upstream API.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
)

// BookingInterval is one reservation of a room for a [Start, End) window
// on a single date. Persisted intervals are read-only snapshots fetched
// from the upstream API; a candidate interval (ID empty) is owned by the
// form session constructing it.
type BookingInterval struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	Date       Date      `json:"date"`
	Start      TimeOfDay `json:"start_time"`
	End        TimeOfDay `json:"end_time"`
	FullName   string    `json:"full_name,omitempty"`
	Department string    `json:"department,omitempty"`
	Purpose    string    `json:"purpose,omitempty"`
	Status     string    `json:"status,omitempty"`
}

// Validate checks the start < end invariant.
func (b BookingInterval) Validate() error {
	if b.Start.Minutes() >= b.End.Minutes() {
		return fmt.Errorf("inverted range %s-%s", b.Start, b.End)
	}
	return nil
}

// OverlapsWith reports whether b and o share an instant, half-open.
func (b BookingInterval) OverlapsWith(o BookingInterval) bool {
	return Overlaps(b.Start, b.End, o.Start, o.End)
}

// TimeRange formats the window for display, e.g. "09:00-10:00".
func (b BookingInterval) TimeRange() string {
	return fmt.Sprintf("%s-%s", b.Start, b.End)
}

// BusinessHours is the window every booking must fall within. All rooms
// share the same hours; this is configuration, not per-room state.
type BusinessHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// DefaultBusinessHours returns the standard 08:00-18:00 window.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:  TimeOfDay{Hour: 8},
		Close: TimeOfDay{Hour: 18},
	}
}

// Contains reports whether [start, end) lies entirely within the window.
func (h BusinessHours) Contains(start, end TimeOfDay) bool {
	return start.Minutes() >= h.Open.Minutes() && end.Minutes() <= h.Close.Minutes()
}
