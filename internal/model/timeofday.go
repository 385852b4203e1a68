package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedTime is returned when a time string does not match HH:MM.
var ErrMalformedTime = fmt.Errorf("malformed time")

// timeRegex accepts H:MM and HH:MM with hour 0-23 and minute 0-59.
var timeRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// TimeOfDay is a wall-clock time within a room's local business calendar.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "H:MM" or "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeRegex.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustTimeOfDay parses s and panics on error. For constants and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Minutes returns minutes since midnight (0-1439).
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Minutes() < u.Minutes()
}

// String formats as zero-padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler as HH:MM.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an
// instant. Touching endpoints do not overlap, so back-to-back bookings
// are never flagged.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart.Minutes() < bEnd.Minutes() && aEnd.Minutes() > bStart.Minutes()
}
