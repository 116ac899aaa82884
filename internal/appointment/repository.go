package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
)

var (
	ErrPatientNotFound     = apperr.NotFound("patient")
	ErrDoctorNotFound      = apperr.NotFound("doctor")
	ErrAppointmentNotFound = apperr.NotFound("appointment")
)

// Ledger is the appointment store as seen from inside one transaction.
type Ledger interface {
	// LockDoctor serializes writers for the doctor until the transaction ends.
	LockDoctor(ctx context.Context, doctorID uuid.UUID) error

	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks. Both count appointments of every status.
	ExistsAt(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (bool, error)
	ExistsSameDay(ctx context.Context, doctorID, patientID uuid.UUID, day time.Time) (bool, error)
	OccupiedTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error)

	// Creation and updates
	Insert(ctx context.Context, a *Appointment) error
	SetStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus, notes *string) (*Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// Tx scopes the ledger and the block store to one storage transaction.
type Tx interface {
	Ledger() Ledger
	Blocks() availability.Finder
}

// Transactor runs fn in a transaction, committing only when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader serves the list and detail views outside of any write transaction.
type Reader interface {
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListAllAppointments(ctx context.Context) ([]AppointmentDetail, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
}
