package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
	redisclient "github.com/hackgods/clinic-appointment-scheduling/internal/redis"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentRescheduled   = "APPOINTMENT_RESCHEDULED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

type Service struct {
	tx     Transactor
	reader Reader
	locker redisclient.Locker
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*Service)

// WithLocker guards writes with a cross-process doctor-day lock.
func WithLocker(l redisclient.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(tx Transactor, reader Reader, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		reader: reader,
		locker: redisclient.NoopLocker{},
		now:    time.Now,
		logger: logger.With().Str("service", "appointment").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookAppointment reserves (doctor, instant) for a patient. All conflict
// checks and the insert run in one transaction holding the doctor's lock.
func (s *Service) BookAppointment(ctx context.Context, patientID, doctorID uuid.UUID, instant string) (*Appointment, error) {
	at, err := validateInstant(instant, s.now())
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.withDoctorLock(ctx, doctorID, at, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			l := tx.Ledger()
			if err := l.LockDoctor(ctx, doctorID); err != nil {
				return err
			}

			err := runChecks(ctx,
				partiesExist(l, patientID, doctorID),
				blockFree(availability.NewResolver(tx.Blocks()), doctorID, at),
				noSameDayBooking(l, doctorID, patientID, at),
				slotFree(l, doctorID, at, uuid.Nil),
			)
			if err != nil {
				return err
			}

			appt := &Appointment{
				ID:          uuid.New(),
				PatientID:   patientID,
				DoctorID:    doctorID,
				ScheduledAt: at,
				Status:      StatusScheduled,
			}
			if err := l.Insert(ctx, appt); err != nil {
				return err
			}

			if err := s.logEvent(ctx, l, appt.ID, EventAppointmentBooked, map[string]any{
				"patient_id":   patientID.String(),
				"doctor_id":    doctorID.String(),
				"scheduled_at": calendar.FormatInstant(at),
			}); err != nil {
				return err
			}

			created = appt
			return nil
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("scheduled_at", calendar.FormatInstant(at)).
		Msg("appointment booked")

	return created, nil
}

// RescheduleAppointment moves an appointment to newInstant with the same
// doctor. The same-day rule is not re-applied and the appointment's own
// current slot does not count as a conflict.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newInstant string) (*Appointment, error) {
	at, err := validateInstant(newInstant, s.now())
	if err != nil {
		return nil, err
	}

	current, err := s.reader.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	doctorID := current.DoctorID

	var updated *Appointment

	err = s.withDoctorLock(ctx, doctorID, at, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			l := tx.Ledger()
			if err := l.LockDoctor(ctx, doctorID); err != nil {
				return err
			}

			appt, err := l.GetAppointmentByID(ctx, id)
			if err != nil {
				return err
			}
			prev := appt.ScheduledAt

			err = runChecks(ctx,
				blockFree(availability.NewResolver(tx.Blocks()), doctorID, at),
				slotFree(l, doctorID, at, id),
			)
			if err != nil {
				return err
			}

			updated, err = l.Reschedule(ctx, id, at)
			if err != nil {
				return err
			}

			return s.logEvent(ctx, l, id, EventAppointmentRescheduled, map[string]any{
				"from": calendar.FormatInstant(prev),
				"to":   calendar.FormatInstant(at),
			})
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("scheduled_at", calendar.FormatInstant(at)).
		Msg("appointment rescheduled")

	return updated, nil
}

// UpdateStatus sets any of the four statuses and overwrites notes. An empty
// or nil note clears the stored one.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*Appointment, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidStatus, err)
	}
	if notes != nil && *notes == "" {
		notes = nil
	}

	var updated *Appointment

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		l := tx.Ledger()
		var err error
		updated, err = l.SetStatus(ctx, id, st, notes)
		if err != nil {
			return err
		}
		return s.logEvent(ctx, l, id, EventAppointmentStatusChanged, map[string]any{
			"status": string(st),
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("status", string(st)).
		Msg("appointment status changed")

	return updated, nil
}

// FreeSlotsForDay returns the grid minus occupied and blocked times, in
// ascending order.
func (s *Service) FreeSlotsForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInstant, err)
	}

	var free []string

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		l := tx.Ledger()
		if err := requireDoctor(ctx, l, doctorID); err != nil {
			return err
		}

		occupied, err := l.OccupiedTimes(ctx, doctorID, day)
		if err != nil {
			return fmt.Errorf("occupied times: %w", err)
		}
		blocked, err := availability.NewResolver(tx.Blocks()).BlockedSlotsForDay(ctx, doctorID, day)
		if err != nil {
			return fmt.Errorf("blocked slots: %w", err)
		}

		free = ProjectFreeSlots(occupied, blocked)
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return free, nil
}

// OccupiedSlotsForDay lists the "HH:MM" times already held on the day.
func (s *Service) OccupiedSlotsForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInstant, err)
	}

	var occupied []string
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		l := tx.Ledger()
		if err := requireDoctor(ctx, l, doctorID); err != nil {
			return err
		}
		var err error
		occupied, err = l.OccupiedTimes(ctx, doctorID, day)
		return err
	})
	if err != nil {
		return nil, s.classify(err)
	}
	if occupied == nil {
		occupied = []string{}
	}
	return occupied, nil
}

// ProjectFreeSlots subtracts occupied and blocked labels from the grid.
func ProjectFreeSlots(occupied []string, blocked map[string]struct{}) []string {
	taken := make(map[string]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	free := make([]string, 0, len(calendar.Slots()))
	for _, slot := range calendar.Slots() {
		if _, ok := taken[slot]; ok {
			continue
		}
		if _, ok := blocked[slot]; ok {
			continue
		}
		free = append(free, slot)
	}
	return free
}

func requireDoctor(ctx context.Context, l Ledger, doctorID uuid.UUID) error {
	ok, err := l.DoctorExists(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return ErrDoctorNotFound
	}
	return nil
}

// Read side

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.reader.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	return detail, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	list, err := s.reader.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, s.classify(fmt.Errorf("list appointments by doctor: %w", err))
	}
	return list, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	list, err := s.reader.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, s.classify(fmt.Errorf("list appointments by patient: %w", err))
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]AppointmentDetail, error) {
	list, err := s.reader.ListAllAppointments(ctx)
	if err != nil {
		return nil, s.classify(fmt.Errorf("list appointments: %w", err))
	}
	return list, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	list, err := s.reader.ListDoctors(ctx)
	if err != nil {
		return nil, s.classify(fmt.Errorf("list doctors: %w", err))
	}
	return list, nil
}

func (s *Service) withDoctorLock(ctx context.Context, doctorID uuid.UUID, at time.Time, fn func(ctx context.Context) error) error {
	err := s.locker.WithDoctorDayLock(ctx, doctorID, calendar.DateOf(at), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return apperr.Wrap(apperr.ErrBusy, err)
	}
	return err
}

// classify leaves typed errors alone and logs anything else as an internal
// failure before handing it back.
func (s *Service) classify(err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.logger.Error().Err(err).Msg("appointment operation failed")
	}
	return err
}

func (s *Service) logEvent(ctx context.Context, l Ledger, appointmentID uuid.UUID, eventType string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	apptID := appointmentID
	return l.InsertEvent(ctx, EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	})
}
