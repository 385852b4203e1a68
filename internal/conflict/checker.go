// Package conflict validates a candidate booking against the bookings
// already held for the same room and date.
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"meetroom/internal/model"
)

// Kind classifies the outcome of a conflict check.
type Kind string

const (
	KindValid                Kind = "valid"
	KindMalformedTime        Kind = "malformed_time"
	KindOutsideBusinessHours Kind = "outside_business_hours"
	KindInvertedRange        Kind = "inverted_range"
	KindOverlap              Kind = "overlap"
)

// Candidate is a not-yet-submitted booking as the user typed it. Times
// stay textual until Check parses them, so a typo surfaces as
// MalformedTime instead of a misleading overlap message.
type Candidate struct {
	RoomID    string
	Date      model.Date
	StartTime string
	EndTime   string
}

// Options tunes a conflict check.
type Options struct {
	// Hours is the window the candidate must fall within.
	Hours model.BusinessHours
	// ExcludeID filters the candidate's own persisted version out of the
	// existing set when editing. Matching is by identifier, never by
	// object identity.
	ExcludeID string
}

// Result is the outcome of one conflict check.
type Result struct {
	Kind Kind
	// Message is the user-facing explanation; empty when valid.
	Message string
	// Conflicts holds the overlapping intervals, sorted by start time.
	Conflicts []model.BookingInterval
	// Start and End are the parsed candidate bounds, set once parsing
	// succeeded regardless of later failures.
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// OK reports whether submission may proceed.
func (r Result) OK() bool {
	return r.Kind == KindValid
}

// Check validates candidate against existing in a fixed order,
// short-circuiting at the first failure: malformed time, outside
// business hours, inverted range, overlap. Structural errors are
// reported before semantic ones so a typo never reads as a conflict.
// The caller supplies only bookings for the candidate's room and date.
func Check(c Candidate, existing []model.BookingInterval, opts Options) Result {
	start, errStart := model.ParseTimeOfDay(c.StartTime)
	end, errEnd := model.ParseTimeOfDay(c.EndTime)
	if errStart != nil || errEnd != nil {
		return Result{
			Kind:    KindMalformedTime,
			Message: "time must be in HH:MM format, e.g. 09:00 or 13:30",
		}
	}

	if !opts.Hours.Contains(start, end) {
		return Result{
			Kind:    KindOutsideBusinessHours,
			Message: fmt.Sprintf("business hours are %s-%s", opts.Hours.Open, opts.Hours.Close),
			Start:   start,
			End:     end,
		}
	}

	if start.Minutes() >= end.Minutes() {
		return Result{
			Kind:    KindInvertedRange,
			Message: "start time must be before end time",
			Start:   start,
			End:     end,
		}
	}

	var conflicts []model.BookingInterval
	for _, b := range existing {
		if opts.ExcludeID != "" && b.ID == opts.ExcludeID {
			continue
		}
		if model.Overlaps(start, end, b.Start, b.End) {
			conflicts = append(conflicts, b)
		}
	}

	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool {
			return conflicts[i].Start.Before(conflicts[j].Start)
		})
		ranges := make([]string, len(conflicts))
		for i, b := range conflicts {
			ranges[i] = b.TimeRange()
		}
		return Result{
			Kind:      KindOverlap,
			Message:   fmt.Sprintf("room is already booked at: %s", strings.Join(ranges, ", ")),
			Conflicts: conflicts,
			Start:     start,
			End:       end,
		}
	}

	return Result{Kind: KindValid, Start: start, End: end}
}
