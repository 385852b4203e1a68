// Package calendar projects a month of bookings into a 7-column grid of
// day cells and drives the viewing state machine around it.
package calendar

import (
	"fmt"
	"time"

	"meetroom/internal/model"
	"meetroom/internal/slots"
)

// Cell is one grid position in a rendered month. Leading blanks keep
// day-of-week alignment; they have Day == 0 and no other fields set.
type Cell struct {
	Day          int                     `json:"day"`
	Date         model.Date              `json:"date"`
	Class        slots.DayClass          `json:"class"`
	IsToday      bool                    `json:"is_today"`
	BookingCount int                     `json:"booking_count"`
	Bookings     []model.BookingInterval `json:"bookings,omitempty"`
}

// Empty reports whether the cell is a leading blank.
func (c Cell) Empty() bool {
	return c.Day == 0
}

// Month identifies a displayed year+month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Next returns the following month, rolling December into January.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Previous returns the preceding month, rolling January into December.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// String formats as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// DaysIn returns the number of days in a month, leap years included.
func DaysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// ProjectMonth builds the ordered cell sequence for a month: one empty
// cell per weekday preceding the 1st (Sunday-first grid), then one cell
// per day classified via the slots package. intervalsForDay supplies the
// bookings of each day; today is explicit so the projection is pure and
// two calls with identical inputs yield identical grids.
func ProjectMonth(cfg slots.Config, m Month, today model.Date, intervalsForDay func(day int) []model.BookingInterval) []Cell {
	first := model.Date{Year: m.Year, Month: m.Month, Day: 1}
	leading := int(first.Weekday())
	days := DaysIn(m.Month, m.Year)

	cells := make([]Cell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{})
	}

	for day := 1; day <= days; day++ {
		date := model.Date{Year: m.Year, Month: m.Month, Day: day}
		var intervals []model.BookingInterval
		if intervalsForDay != nil {
			intervals = intervalsForDay(day)
		}
		cells = append(cells, Cell{
			Day:          day,
			Date:         date,
			Class:        slots.Classify(cfg, date, today, len(intervals)),
			IsToday:      date.Equal(today),
			BookingCount: len(intervals),
			Bookings:     intervals,
		})
	}
	return cells
}

// GroupByDay buckets a month's bookings by day number for use as a
// ProjectMonth input. Bookings outside the month are dropped.
func GroupByDay(m Month, intervals []model.BookingInterval) map[int][]model.BookingInterval {
	byDay := make(map[int][]model.BookingInterval)
	for _, b := range intervals {
		if b.Date.Year != m.Year || b.Date.Month != m.Month {
			continue
		}
		byDay[b.Date.Day] = append(byDay[b.Date.Day], b)
	}
	return byDay
}
