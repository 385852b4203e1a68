package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetroom/internal/model"
)

func interval(start, end string) model.BookingInterval {
	return model.BookingInterval{
		Start: model.MustTimeOfDay(start),
		End:   model.MustTimeOfDay(end),
	}
}

func TestHourlySlots_Count(t *testing.T) {
	got := HourlySlots(model.DefaultBusinessHours(), nil)

	// 08:00 through 17:00, ten one-hour slots.
	require.Len(t, got, 10)
	assert.Equal(t, "08:00", got[0].Start.String())
	assert.Equal(t, "09:00", got[0].End.String())
	assert.Equal(t, "17:00", got[9].Start.String())
	for _, s := range got {
		assert.False(t, s.Booked)
	}
}

func TestHourlySlots_Occupancy(t *testing.T) {
	intervals := []model.BookingInterval{
		interval("09:00", "10:00"),
		interval("13:30", "15:00"),
	}

	got := HourlySlots(model.DefaultBusinessHours(), intervals)
	require.Len(t, got, 10)

	bookedByHour := map[int]bool{}
	for _, s := range got {
		bookedByHour[s.Start.Hour] = s.Booked
	}

	assert.False(t, bookedByHour[8])
	assert.True(t, bookedByHour[9])
	assert.False(t, bookedByHour[10]) // booking ended exactly at 10:00
	assert.True(t, bookedByHour[13])  // partial-hour overlap still marks the slot
	assert.True(t, bookedByHour[14])
	assert.False(t, bookedByHour[15])
	assert.False(t, bookedByHour[17])
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()
	today := model.Date{Year: 2024, Month: time.May, Day: 10}
	tomorrow := model.Date{Year: 2024, Month: time.May, Day: 11}
	yesterday := model.Date{Year: 2024, Month: time.May, Day: 9}

	tests := []struct {
		name  string
		date  model.Date
		count int
		want  DayClass
	}{
		{"no bookings", tomorrow, 0, ClassAvailable},
		{"one booking", tomorrow, 1, ClassPartial},
		{"four bookings", tomorrow, 4, ClassPartial},
		{"five bookings", tomorrow, 5, ClassFull},
		{"nine bookings", tomorrow, 9, ClassFull},
		{"today with no bookings", today, 0, ClassAvailable},
		{"past regardless of count", yesterday, 9, ClassPast},
		{"past with no bookings", yesterday, 0, ClassPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(cfg, tt.date, today, tt.count))
		})
	}
}

func TestAggregateDay(t *testing.T) {
	cfg := DefaultConfig()
	today := model.Date{Year: 2024, Month: time.May, Day: 10}

	intervals := []model.BookingInterval{
		interval("09:00", "10:00"),
		interval("13:00", "15:00"),
	}

	got := AggregateDay(cfg, today, today, intervals)

	assert.Equal(t, ClassPartial, got.Class)
	assert.Equal(t, 2, got.BookingCount)
	require.Len(t, got.Slots, 10)
	assert.True(t, got.Slots[1].Booked)  // 09:00
	assert.False(t, got.Slots[2].Booked) // 10:00
}

func TestAggregateDay_CustomThreshold(t *testing.T) {
	cfg := Config{Hours: model.DefaultBusinessHours(), FullDayThreshold: 2}
	today := model.Date{Year: 2024, Month: time.May, Day: 10}

	intervals := []model.BookingInterval{
		interval("09:00", "10:00"),
		interval("11:00", "12:00"),
	}

	got := AggregateDay(cfg, today, today, intervals)
	assert.Equal(t, ClassFull, got.Class)
}
