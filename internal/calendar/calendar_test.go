package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetroom/internal/model"
	"meetroom/internal/slots"
)

func TestMonth_Rollover(t *testing.T) {
	assert.Equal(t, Month{Year: 2025, Month: time.January}, Month{Year: 2024, Month: time.December}.Next())
	assert.Equal(t, Month{Year: 2023, Month: time.December}, Month{Year: 2024, Month: time.January}.Previous())
	assert.Equal(t, Month{Year: 2024, Month: time.June}, Month{Year: 2024, Month: time.May}.Next())
	assert.Equal(t, Month{Year: 2024, Month: time.April}, Month{Year: 2024, Month: time.May}.Previous())
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		month time.Month
		year  int
		want  int
	}{
		{time.January, 2024, 31},
		{time.February, 2024, 29}, // leap
		{time.February, 2023, 28},
		{time.February, 2000, 29}, // divisible by 400
		{time.February, 1900, 28}, // divisible by 100, not 400
		{time.April, 2024, 30},
		{time.June, 2024, 30},
		{time.September, 2024, 30},
		{time.November, 2024, 30},
		{time.December, 2024, 31},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysIn(tt.month, tt.year), "%s %d", tt.month, tt.year)
	}
}

func TestProjectMonth_LeapFebruary(t *testing.T) {
	cfg := slots.DefaultConfig()
	today := model.Date{Year: 2024, Month: time.January, Day: 15}

	cells := ProjectMonth(cfg, Month{Year: 2024, Month: time.February}, today, nil)

	// Feb 1 2024 was a Thursday: four leading blanks, then 29 days.
	require.Len(t, cells, 4+29)
	for i := 0; i < 4; i++ {
		assert.True(t, cells[i].Empty())
	}
	assert.Equal(t, 1, cells[4].Day)
	assert.Equal(t, 29, cells[len(cells)-1].Day)
}

func TestProjectMonth_NonLeapFebruary(t *testing.T) {
	cfg := slots.DefaultConfig()
	today := model.Date{Year: 2023, Month: time.January, Day: 15}

	cells := ProjectMonth(cfg, Month{Year: 2023, Month: time.February}, today, nil)

	// Feb 1 2023 was a Wednesday: three leading blanks, then 28 days.
	require.Len(t, cells, 3+28)
	assert.Equal(t, 28, cells[len(cells)-1].Day)
}

func TestProjectMonth_Classification(t *testing.T) {
	cfg := slots.DefaultConfig()
	today := model.Date{Year: 2024, Month: time.May, Day: 10}

	bookingsFor := func(day int) []model.BookingInterval {
		switch day {
		case 9, 12:
			return []model.BookingInterval{{
				Start: model.MustTimeOfDay("09:00"),
				End:   model.MustTimeOfDay("10:00"),
			}}
		case 15:
			out := make([]model.BookingInterval, 5)
			for i := range out {
				out[i] = model.BookingInterval{
					Start: model.TimeOfDay{Hour: 9 + i},
					End:   model.TimeOfDay{Hour: 10 + i},
				}
			}
			return out
		default:
			return nil
		}
	}

	cells := ProjectMonth(cfg, Month{Year: 2024, Month: time.May}, today, bookingsFor)

	// May 1 2024 was a Wednesday: three leading blanks.
	leading := 3
	byDay := func(day int) Cell { return cells[leading+day-1] }

	assert.Equal(t, slots.ClassPast, byDay(9).Class) // bookings do not rescue a past day
	assert.Equal(t, slots.ClassAvailable, byDay(10).Class)
	assert.True(t, byDay(10).IsToday)
	assert.Equal(t, slots.ClassPartial, byDay(12).Class)
	assert.Equal(t, 1, byDay(12).BookingCount)
	assert.Equal(t, slots.ClassFull, byDay(15).Class)
	assert.Equal(t, slots.ClassAvailable, byDay(20).Class)
	assert.False(t, byDay(20).IsToday)
	assert.Equal(t, slots.ClassPast, byDay(1).Class)
}

func TestProjectMonth_Idempotent(t *testing.T) {
	cfg := slots.DefaultConfig()
	today := model.Date{Year: 2024, Month: time.May, Day: 10}
	bookingsFor := func(day int) []model.BookingInterval {
		if day == 12 {
			return []model.BookingInterval{{
				Start: model.MustTimeOfDay("09:00"),
				End:   model.MustTimeOfDay("10:00"),
			}}
		}
		return nil
	}

	m := Month{Year: 2024, Month: time.May}
	first := ProjectMonth(cfg, m, today, bookingsFor)
	second := ProjectMonth(cfg, m, today, bookingsFor)
	assert.Equal(t, first, second)
}

func TestGroupByDay(t *testing.T) {
	m := Month{Year: 2024, Month: time.May}
	intervals := []model.BookingInterval{
		{Date: model.Date{Year: 2024, Month: time.May, Day: 10}, Start: model.MustTimeOfDay("09:00"), End: model.MustTimeOfDay("10:00")},
		{Date: model.Date{Year: 2024, Month: time.May, Day: 10}, Start: model.MustTimeOfDay("13:00"), End: model.MustTimeOfDay("15:00")},
		{Date: model.Date{Year: 2024, Month: time.June, Day: 1}, Start: model.MustTimeOfDay("09:00"), End: model.MustTimeOfDay("10:00")},
	}

	byDay := GroupByDay(m, intervals)
	assert.Len(t, byDay, 1)
	assert.Len(t, byDay[10], 2)
}
