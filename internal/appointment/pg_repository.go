package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
)

// activeSlotIndex is the partial unique index on (doctor_id, scheduled_at)
// for non-canceled appointments.
const activeSlotIndex = "appointments_doctor_slot_active_uq"

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(q db.DBTX) *PgRepository {
	return &PgRepository{db: q}
}

// Helpers

const appointmentColumns = `id, patient_id, doctor_id, scheduled_at, status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ScheduledAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

const detailSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.scheduled_at, a.status, a.notes, a.created_at, a.updated_at,
	       d.id, d.name, d.specialty, d.created_at, d.updated_at,
	       p.id, p.name, p.email, p.phone, p.has_insurance, p.insurance_name, p.insurance_number, p.created_at, p.updated_at
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var (
		det AppointmentDetail
		d   Doctor
		p   Patient
	)
	err := row.Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &det.ScheduledAt, &det.Status, &det.Notes, &det.CreatedAt, &det.UpdatedAt,
		&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt,
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.HasInsurance, &p.InsuranceName, &p.InsuranceNumber, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	det.Doctor = &d
	det.Patient = &p
	return &det, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := calendar.DateOf(day)
	return start, start.AddDate(0, 0, 1)
}

// Ledger methods

func (r *PgRepository) LockDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, doctorID.String())
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ExistsAt(ctx context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND scheduled_at = $2 AND id <> $3
		)
	`, doctorID, at, excludeID).Scan(&ok)
	return ok, err
}

func (r *PgRepository) ExistsSameDay(ctx context.Context, doctorID, patientID uuid.UUID, day time.Time) (bool, error) {
	from, to := dayBounds(day)
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND patient_id = $2
			  AND scheduled_at >= $3 AND scheduled_at < $4
		)
	`, doctorID, patientID, from, to).Scan(&ok)
	return ok, err
}

func (r *PgRepository) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	from, to := dayBounds(day)
	rows, err := r.db.Query(ctx, `
		SELECT scheduled_at FROM appointments
		WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at ASC
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		out = append(out, calendar.TimeOf(at))
	}
	return out, rows.Err()
}

func (r *PgRepository) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = StatusScheduled

	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'SCHEDULED', $5, now(), now())
		RETURNING created_at, updated_at
	`, a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Notes).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotIndex) {
			return apperr.Wrap(apperr.ErrSlotTaken, err)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus, notes *string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    notes = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, status, notes)

	a, err := scanAppointment(row)
	if err != nil {
		// Un-canceling onto a slot that was rebooked trips the backstop.
		if db.IsUniqueViolation(err, activeSlotIndex) {
			return nil, apperr.Wrap(apperr.ErrSlotTaken, err)
		}
		return nil, err
	}
	return a, nil
}

func (r *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, at)

	a, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotIndex) {
			return nil, apperr.Wrap(apperr.ErrSlotTaken, err)
		}
		return nil, err
	}
	return a, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Reader methods

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return scanDetail(r.db.QueryRow(ctx, detailSelect+` WHERE a.id = $1`, id))
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, detailSelect+` WHERE a.doctor_id = $1 ORDER BY a.scheduled_at ASC`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, detailSelect+` WHERE a.patient_id = $1 ORDER BY a.scheduled_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListAllAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, detailSelect+` ORDER BY a.scheduled_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// PgTransactor opens one read-committed transaction per call and binds the
// ledger and block store to it.
type PgTransactor struct {
	pool *pgxpool.Pool
}

func NewPgTransactor(pool *pgxpool.Pool) *PgTransactor {
	return &PgTransactor{pool: pool}
}

type pgTx struct {
	ledger *PgRepository
	blocks *availability.PgRepository
}

func (t pgTx) Ledger() Ledger              { return t.ledger }
func (t pgTx) Blocks() availability.Finder { return t.blocks }

func (t *PgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgTx{
			ledger: NewPgRepository(tx),
			blocks: availability.NewPgRepository(tx),
		})
	})
}
