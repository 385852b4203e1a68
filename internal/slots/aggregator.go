// Package slots derives per-hour occupancy and day-level availability
// from the bookings of one room and date. Everything here is a pure
// projection: recomputed on every query, never stored.
package slots

import "meetroom/internal/model"

// DayClass is the coarse availability of a whole day.
type DayClass string

const (
	ClassPast      DayClass = "past"
	ClassAvailable DayClass = "available"
	ClassPartial   DayClass = "partial"
	ClassFull      DayClass = "full"
)

// DaySlot is one whole-hour slot within business hours.
type DaySlot struct {
	Start  model.TimeOfDay `json:"start"`
	End    model.TimeOfDay `json:"end"`
	Booked bool            `json:"booked"`
}

// DayAvailability is the aggregated view of one room+date.
type DayAvailability struct {
	Date         model.Date `json:"date"`
	Slots        []DaySlot  `json:"slots"`
	Class        DayClass   `json:"class"`
	BookingCount int        `json:"booking_count"`
}

// Config holds the aggregation constants.
type Config struct {
	Hours model.BusinessHours
	// FullDayThreshold is the booking count at which a day is shown as
	// full. Approximates "most of the business day consumed"; kept as
	// configuration rather than derived from the hours window.
	FullDayThreshold int
}

// DefaultConfig returns 08:00-18:00 hours and a full-day threshold of 5.
func DefaultConfig() Config {
	return Config{
		Hours:            model.DefaultBusinessHours(),
		FullDayThreshold: 5,
	}
}

// HourlySlots produces one slot per whole hour inside hours. A slot is
// booked iff any interval overlaps its [h:00, h+1:00) window.
func HourlySlots(hours model.BusinessHours, intervals []model.BookingInterval) []DaySlot {
	var out []DaySlot
	for h := 0; h < 24; h++ {
		start := model.TimeOfDay{Hour: h}
		end := model.TimeOfDay{Hour: h + 1}
		if start.Minutes() < hours.Open.Minutes() || end.Minutes() > hours.Close.Minutes() {
			continue
		}

		booked := false
		for _, b := range intervals {
			if model.Overlaps(start, end, b.Start, b.End) {
				booked = true
				break
			}
		}
		out = append(out, DaySlot{Start: start, End: end, Booked: booked})
	}
	return out
}

// Classify maps a date and its booking count to a day class. Dates
// strictly before today are past regardless of bookings; time of day is
// ignored on both sides.
func Classify(cfg Config, date, today model.Date, count int) DayClass {
	switch {
	case date.Before(today):
		return ClassPast
	case count >= cfg.FullDayThreshold:
		return ClassFull
	case count >= 1:
		return ClassPartial
	default:
		return ClassAvailable
	}
}

// AggregateDay computes the full availability view for one room+date.
// Today is passed in explicitly so the projection stays pure.
func AggregateDay(cfg Config, date, today model.Date, intervals []model.BookingInterval) DayAvailability {
	return DayAvailability{
		Date:         date,
		Slots:        HourlySlots(cfg.Hours, intervals),
		Class:        Classify(cfg, date, today, len(intervals)),
		BookingCount: len(intervals),
	}
}
