package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

// CreateInput is the raw block request as received from admins and doctors.
type CreateInput struct {
	StartDate string
	EndDate   string
	Reason    string
	Shift     string
	Weekdays  string // comma separated 0..6, empty for every day
}

// DoctorChecker confirms a doctor exists before a doctor block is stored.
type DoctorChecker interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo    Repository
	doctors DoctorChecker
	logger  zerolog.Logger
}

func NewService(repo Repository, doctors DoctorChecker, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		logger:  logger.With().Str("service", "availability").Logger(),
	}
}

// CreateClinicBlock stores a block that applies to every doctor.
func (s *Service) CreateClinicBlock(ctx context.Context, in CreateInput) (*Block, error) {
	b, err := newBlock(nil, in)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, b)
}

// CreateDoctorBlock stores a block on one doctor's own schedule.
func (s *Service) CreateDoctorBlock(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*Block, error) {
	b, err := newBlock(&doctorID, in)
	if err != nil {
		return nil, err
	}
	if s.doctors != nil {
		ok, err := s.doctors.DoctorExists(ctx, doctorID)
		if err != nil {
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		if !ok {
			return nil, apperr.NotFound("doctor")
		}
	}
	return s.create(ctx, b)
}

func (s *Service) create(ctx context.Context, b *Block) (*Block, error) {
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.logger.Info().
		Str("block_id", b.ID.String()).
		Str("scope", string(b.Scope)).
		Str("start_date", calendar.FormatDate(b.StartDate)).
		Str("end_date", calendar.FormatDate(b.EndDate)).
		Str("shift", string(b.Shift)).
		Str("weekdays", FormatWeekdays(b.Weekdays)).
		Msg("availability block created")
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if !ok {
		return apperr.NotFound("availability block")
	}
	s.logger.Info().Str("block_id", id.String()).Msg("availability block deleted")
	return nil
}

func (s *Service) ListAll(ctx context.Context) ([]Block, error) {
	blocks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Block, error) {
	blocks, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor blocks: %w", err)
	}
	return blocks, nil
}

// CheckDay answers the booking form's pre-flight question for a date.
func (s *Service) CheckDay(ctx context.Context, doctorID uuid.UUID, date string) (DayCheck, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return DayCheck{}, apperr.Wrap(apperr.ErrInvalidInstant, err)
	}
	check, err := NewResolver(s.repo).CheckDay(ctx, doctorID, day)
	if err != nil {
		return DayCheck{}, fmt.Errorf("check day: %w", err)
	}
	return check, nil
}

// Block input problems all share KindInvalidRange; Field tells them apart.
// An inverted range carries no field.
const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldShift     = "shift"
	FieldWeekdays  = "weekdays"
)

func newBlock(doctorID *uuid.UUID, in CreateInput) (*Block, error) {
	start, err := calendar.ParseDate(strings.TrimSpace(in.StartDate))
	if err != nil {
		return nil, apperr.InvalidField(apperr.KindInvalidRange, FieldStartDate, "start date must be YYYY-MM-DD")
	}
	end, err := calendar.ParseDate(strings.TrimSpace(in.EndDate))
	if err != nil {
		return nil, apperr.InvalidField(apperr.KindInvalidRange, FieldEndDate, "end date must be YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, apperr.ErrInvalidRange
	}

	shift, err := ParseShift(in.Shift)
	if err != nil {
		return nil, apperr.InvalidField(apperr.KindInvalidRange, FieldShift, err.Error())
	}
	weekdays, err := ParseWeekdays(in.Weekdays)
	if err != nil {
		return nil, apperr.InvalidField(apperr.KindInvalidRange, FieldWeekdays, err.Error())
	}

	b := &Block{
		DoctorID:  doctorID,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(in.Reason),
		Shift:     shift,
		Weekdays:  weekdays,
	}
	if doctorID == nil {
		b.Scope = ScopeClinic
		if b.Reason == "" {
			b.Reason = DefaultClinicReason
		}
	} else {
		b.Scope = ScopeDoctor
		if b.Reason == "" {
			b.Reason = DefaultDoctorReason
		}
	}
	return b, nil
}
