package availability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

type Scope string

const (
	ScopeClinic Scope = "CLINIC"
	ScopeDoctor Scope = "DOCTOR"
)

const (
	DefaultClinicReason = "Administrative block"
	DefaultDoctorReason = "Unavailable"
)

// Block excludes a date range from booking, optionally narrowed to one shift
// and/or a subset of weekdays. Blocks are never edited, only created and
// deleted.
type Block struct {
	ID        uuid.UUID
	DoctorID  *uuid.UUID // nil for clinic-wide blocks
	StartDate time.Time
	EndDate   time.Time // inclusive
	Reason    string
	Scope     Scope
	Shift     calendar.Shift // empty means the whole day
	Weekdays  []int          // nil means every day in range
	CreatedAt time.Time
}

// Covers reports whether day falls inside [StartDate, EndDate].
func (b Block) Covers(day time.Time) bool {
	d := calendar.DateOf(day)
	return !d.Before(calendar.DateOf(b.StartDate)) && !d.After(calendar.DateOf(b.EndDate))
}

func (b Block) AppliesOnWeekday(weekday int) bool {
	if len(b.Weekdays) == 0 {
		return true
	}
	for _, wd := range b.Weekdays {
		if wd == weekday {
			return true
		}
	}
	return false
}

func (b Block) AppliesToShift(shift calendar.Shift) bool {
	return b.Shift == "" || b.Shift == shift
}

// AppliesToDoctor is true for clinic blocks and for the doctor's own blocks.
func (b Block) AppliesToDoctor(doctorID uuid.UUID) bool {
	if b.Scope == ScopeClinic {
		return true
	}
	return b.DoctorID != nil && *b.DoctorID == doctorID
}

func (b Block) DisplayReason() string {
	if strings.TrimSpace(b.Reason) == "" {
		return DefaultClinicReason
	}
	return b.Reason
}

// ParseWeekdays reads a comma separated list of 0..6 (0 = Sunday). An empty
// string yields nil, meaning every weekday. Duplicates are dropped and the
// result is sorted.
func ParseWeekdays(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("weekday %q is not a number", part)
		}
		if n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

func FormatWeekdays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseShift accepts MORNING / AFTERNOON in any case. Empty means full day.
func ParseShift(s string) (calendar.Shift, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	shift := calendar.Shift(s)
	if !shift.Valid() {
		return "", fmt.Errorf("unknown shift %q", s)
	}
	return shift, nil
}
