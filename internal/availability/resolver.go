package availability

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

// DayCheck is the pre-flight answer for a whole date.
type DayCheck struct {
	Blocked bool
	Reason  string
	Shift   calendar.Shift
}

// Resolver decides which blocks apply to a doctor on a date. It holds no
// state beyond the Finder, which is usually bound to the caller's transaction.
type Resolver struct {
	finder Finder
}

func NewResolver(f Finder) *Resolver {
	return &Resolver{finder: f}
}

// Check returns the first block that applies to (doctor, day, slot).
func (r *Resolver) Check(ctx context.Context, doctorID uuid.UUID, day time.Time, slot string) (*Block, error) {
	blocks, err := r.finder.ListApplicable(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	b, ok := FirstApplying(doctorID, blocks, day, slot)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *Resolver) BlockedSlotsForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) (map[string]struct{}, error) {
	blocks, err := r.finder.ListApplicable(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	return BlockedSlots(doctorID, blocks, day), nil
}

func (r *Resolver) CheckDay(ctx context.Context, doctorID uuid.UUID, day time.Time) (DayCheck, error) {
	blocks, err := r.finder.ListApplicable(ctx, doctorID, day)
	if err != nil {
		return DayCheck{}, err
	}
	return CheckDay(doctorID, blocks, day), nil
}

// SortForPrecedence orders blocks so that "first match wins" is
// deterministic: clinic blocks, then doctor blocks, each by start date,
// creation time and id.
func SortForPrecedence(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.Scope != b.Scope {
			return a.Scope == ScopeClinic
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// candidates filters a snapshot down to blocks for this doctor, covering day,
// and active on its weekday, in precedence order.
func candidates(doctorID uuid.UUID, blocks []Block, day time.Time) []Block {
	weekday := calendar.WeekdayOf(day)
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if !b.AppliesToDoctor(doctorID) || !b.Covers(day) || !b.AppliesOnWeekday(weekday) {
			continue
		}
		out = append(out, b)
	}
	SortForPrecedence(out)
	return out
}

func FirstApplying(doctorID uuid.UUID, blocks []Block, day time.Time, slot string) (Block, bool) {
	shift := calendar.ShiftOf(slot)
	for _, b := range candidates(doctorID, blocks, day) {
		if b.AppliesToShift(shift) {
			return b, true
		}
	}
	return Block{}, false
}

// BlockedSlots unions the full grid for whole-day blocks and the matching
// half of the grid for shift blocks.
func BlockedSlots(doctorID uuid.UUID, blocks []Block, day time.Time) map[string]struct{} {
	out := make(map[string]struct{})
	for _, b := range candidates(doctorID, blocks, day) {
		var labels []string
		if b.Shift == "" {
			labels = calendar.Slots()
		} else {
			labels = calendar.SlotsForShift(b.Shift)
		}
		for _, l := range labels {
			out[l] = struct{}{}
		}
		if len(out) == len(calendar.Slots()) {
			break
		}
	}
	return out
}

// CheckDay reports the first block active on the date regardless of shift,
// along with that block's shift so callers can narrow the choice of times.
func CheckDay(doctorID uuid.UUID, blocks []Block, day time.Time) DayCheck {
	c := candidates(doctorID, blocks, day)
	if len(c) == 0 {
		return DayCheck{}
	}
	return DayCheck{Blocked: true, Reason: c[0].DisplayReason(), Shift: c[0].Shift}
}
