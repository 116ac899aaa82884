package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

// check is one step of a booking pipeline. A nil return means pass.
type check func(ctx context.Context) error

// runChecks evaluates steps in order and stops at the first failure.
func runChecks(ctx context.Context, steps ...check) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// validateInstant parses raw and applies the temporal and grid rules in
// order: parse, not in the past, 15 minute boundary, business hours.
func validateInstant(raw string, now time.Time) (time.Time, error) {
	at, err := calendar.ParseInstant(raw)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.ErrInvalidInstant, err)
	}
	if at.Before(calendar.WallClock(now)) {
		return time.Time{}, apperr.ErrPastInstant
	}
	if at.Minute()%15 != 0 || at.Second() != 0 || at.Nanosecond() != 0 {
		return time.Time{}, apperr.ErrInvalidTime
	}
	h, m := at.Hour(), at.Minute()
	if h < calendar.OpenHour || h > calendar.CloseHour || (h == calendar.CloseHour && m > calendar.LastMinute) {
		return time.Time{}, apperr.ErrOutOfHours
	}
	return at, nil
}

func partiesExist(l Ledger, patientID, doctorID uuid.UUID) check {
	return func(ctx context.Context) error {
		ok, err := l.PatientExists(ctx, patientID)
		if err != nil {
			return fmt.Errorf("check patient: %w", err)
		}
		if !ok {
			return ErrPatientNotFound
		}
		ok, err = l.DoctorExists(ctx, doctorID)
		if err != nil {
			return fmt.Errorf("check doctor: %w", err)
		}
		if !ok {
			return ErrDoctorNotFound
		}
		return nil
	}
}

func blockFree(r *availability.Resolver, doctorID uuid.UUID, at time.Time) check {
	return func(ctx context.Context) error {
		b, err := r.Check(ctx, doctorID, calendar.DateOf(at), calendar.TimeOf(at))
		if err != nil {
			return fmt.Errorf("resolve blocks: %w", err)
		}
		if b != nil {
			return apperr.Blocked(b.DisplayReason())
		}
		return nil
	}
}

func noSameDayBooking(l Ledger, doctorID, patientID uuid.UUID, at time.Time) check {
	return func(ctx context.Context) error {
		dup, err := l.ExistsSameDay(ctx, doctorID, patientID, calendar.DateOf(at))
		if err != nil {
			return fmt.Errorf("check same day: %w", err)
		}
		if dup {
			return apperr.ErrDuplicateSameDay
		}
		return nil
	}
}

// slotFree passes when no other appointment holds the instant. excludeID is
// uuid.Nil for fresh bookings.
func slotFree(l Ledger, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) check {
	return func(ctx context.Context) error {
		taken, err := l.ExistsAt(ctx, doctorID, at, excludeID)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return apperr.ErrSlotTaken
		}
		return nil
	}
}
