package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	InstantLayout = "2006-01-02T15:04:05"
	TimeLayout    = "15:04"

	OpenHour   = 8
	CloseHour  = 17
	LastMinute = 45
	SlotStep   = 15 * time.Minute

	// Hours strictly below NoonHour belong to the morning shift.
	NoonHour = 12
)

var ErrEmptyInput = errors.New("empty input")

type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftAfternoon
}

// grid holds the 40 bookable time-of-day labels, 08:00 through 17:45.
var grid = buildGrid()

var gridIndex = func() map[string]int {
	idx := make(map[string]int, len(grid))
	for i, label := range grid {
		idx[label] = i
	}
	return idx
}()

func buildGrid() []string {
	var labels []string
	for h := OpenHour; h <= CloseHour; h++ {
		for m := 0; m < 60; m += int(SlotStep / time.Minute) {
			labels = append(labels, fmt.Sprintf("%02d:%02d", h, m))
		}
	}
	return labels
}

// Slots returns a copy of the grid in ascending order.
func Slots() []string {
	out := make([]string, len(grid))
	copy(out, grid)
	return out
}

// SlotsForShift returns the half of the grid that belongs to the shift.
func SlotsForShift(shift Shift) []string {
	var out []string
	for _, label := range grid {
		if ShiftOf(label) == shift {
			out = append(out, label)
		}
	}
	return out
}

func IsValidSlotTime(label string) bool {
	_, ok := gridIndex[label]
	return ok
}

// ShiftOf classifies an "HH:MM" label. Unparseable labels are afternoon,
// matching ShiftOfHour for hours >= 12.
func ShiftOf(label string) Shift {
	if len(label) < 2 {
		return ShiftAfternoon
	}
	h, err := strconv.Atoi(label[:2])
	if err != nil {
		return ShiftAfternoon
	}
	return ShiftOfHour(h)
}

func ShiftOfHour(hour int) Shift {
	if hour < NoonHour {
		return ShiftMorning
	}
	return ShiftAfternoon
}

// WeekdayOf returns 0 (Sunday) through 6 (Saturday).
func WeekdayOf(date time.Time) int {
	return int(date.Weekday())
}

// ParseDate parses a "YYYY-MM-DD" calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyInput
	}
	return time.Parse(DateLayout, s)
}

// ParseInstant parses a clinic-local "YYYY-MM-DDTHH:MM:SS" wall-clock instant.
// The seconds component may be omitted. No timezone conversion is applied:
// the result carries the wall-clock fields in UTC.
func ParseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyInput
	}
	t, err := time.Parse(InstantLayout, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.Parse("2006-01-02T15:04", s); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}

// WallClock drops the location of t while keeping its wall-clock fields, so
// it compares directly with instants produced by ParseInstant.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TimeOf formats the time-of-day of an instant as "HH:MM".
func TimeOf(t time.Time) string {
	return t.Format(TimeLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatInstant(t time.Time) string {
	return t.Format(InstantLayout)
}
