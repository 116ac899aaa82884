package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
	redisclient "github.com/hackgods/clinic-appointment-scheduling/internal/redis"
)

// memStore is an in-memory Transactor, Ledger and Reader. WithinTx runs
// one transaction at a time and restores the previous state when fn fails.
type memStore struct {
	mu sync.Mutex

	doctors  map[uuid.UUID]Doctor
	patients map[uuid.UUID]Patient
	appts    map[uuid.UUID]Appointment
	events   []EventLog
	blocks   []availability.Block

	// hooks for failure injection
	insertErr error
	eventErr  error
	locked    []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		doctors:  map[uuid.UUID]Doctor{},
		patients: map[uuid.UUID]Patient{},
		appts:    map[uuid.UUID]Appointment{},
	}
}

func (m *memStore) addDoctor(name string) uuid.UUID {
	id := uuid.New()
	m.doctors[id] = Doctor{ID: id, Name: name}
	return id
}

func (m *memStore) addPatient(name string) uuid.UUID {
	id := uuid.New()
	m.patients[id] = Patient{ID: id, Name: name}
	return id
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	apptsBefore := make(map[uuid.UUID]Appointment, len(m.appts))
	for k, v := range m.appts {
		apptsBefore[k] = v
	}
	eventsBefore := len(m.events)

	if err := fn(ctx, memTx{m}); err != nil {
		m.appts = apptsBefore
		m.events = m.events[:eventsBefore]
		return err
	}
	return nil
}

type memTx struct{ m *memStore }

func (t memTx) Ledger() Ledger              { return t.m }
func (t memTx) Blocks() availability.Finder { return blockFinder{t.m} }

type blockFinder struct{ m *memStore }

func (f blockFinder) ListApplicable(_ context.Context, doctorID uuid.UUID, day time.Time) ([]availability.Block, error) {
	var out []availability.Block
	for _, b := range f.m.blocks {
		if b.AppliesToDoctor(doctorID) && b.Covers(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Ledger

func (m *memStore) LockDoctor(_ context.Context, doctorID uuid.UUID) error {
	m.locked = append(m.locked, doctorID)
	return nil
}

func (m *memStore) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.doctors[id]
	return ok, nil
}

func (m *memStore) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

func (m *memStore) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memStore) ExistsAt(_ context.Context, doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) (bool, error) {
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(at) && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ExistsSameDay(_ context.Context, doctorID, patientID uuid.UUID, day time.Time) (bool, error) {
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.PatientID == patientID && calendar.DateOf(a.ScheduledAt).Equal(calendar.DateOf(day)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) OccupiedTimes(_ context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	var out []string
	for _, a := range m.appts {
		if a.DoctorID == doctorID && calendar.DateOf(a.ScheduledAt).Equal(calendar.DateOf(day)) {
			out = append(out, calendar.TimeOf(a.ScheduledAt))
		}
	}
	sort.Strings(out)
	return out, nil
}

// activeAt mirrors the partial unique index: canceled rows do not count.
func (m *memStore) activeAt(doctorID uuid.UUID, at time.Time, excludeID uuid.UUID) bool {
	for _, a := range m.appts {
		if a.ID != excludeID && a.DoctorID == doctorID && a.ScheduledAt.Equal(at) && a.Status != StatusCanceled {
			return true
		}
	}
	return false
}

func (m *memStore) Insert(_ context.Context, a *Appointment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.activeAt(a.DoctorID, a.ScheduledAt, a.ID) {
		return apperr.Wrap(apperr.ErrSlotTaken, nil)
	}
	a.Status = StatusScheduled
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = *a
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, status AppointmentStatus, notes *string) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.Notes = notes
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, nil
}

func (m *memStore) Reschedule(_ context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if m.activeAt(a.DoctorID, at, id) {
		return nil, apperr.Wrap(apperr.ErrSlotTaken, nil)
	}
	a.ScheduledAt = at
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, nil
}

func (m *memStore) InsertEvent(_ context.Context, ev EventLog) error {
	if m.eventErr != nil {
		return m.eventErr
	}
	m.events = append(m.events, ev)
	return nil
}

// Reader

func (m *memStore) detail(a Appointment) AppointmentDetail {
	d := m.doctors[a.DoctorID]
	p := m.patients[a.PatientID]
	return AppointmentDetail{Appointment: a, Doctor: &d, Patient: &p}
}

func (m *memStore) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	det := m.detail(a)
	return &det, nil
}

func (m *memStore) list(keep func(Appointment) bool, asc bool) []AppointmentDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range m.appts {
		if keep(a) {
			out = append(out, m.detail(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out
}

func (m *memStore) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	return m.list(func(a Appointment) bool { return a.DoctorID == doctorID }, true), nil
}

func (m *memStore) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	return m.list(func(a Appointment) bool { return a.PatientID == patientID }, false), nil
}

func (m *memStore) ListAllAppointments(_ context.Context) ([]AppointmentDetail, error) {
	return m.list(func(Appointment) bool { return true }, false), nil
}

func (m *memStore) ListDoctors(_ context.Context) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Doctor
	for _, d := range m.doctors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// queueLocker makes callers for the same doctor and day wait their turn,
// like the Redis locker does, and tracks how many held it at once.
type queueLocker struct {
	mu      sync.Mutex
	keys    map[string]*sync.Mutex
	holders int
	peak    int
}

func newQueueLocker() *queueLocker {
	return &queueLocker{keys: map[string]*sync.Mutex{}}
}

func (q *queueLocker) WithDoctorDayLock(ctx context.Context, doctorID uuid.UUID, day time.Time, fn func(context.Context) error) error {
	key := redisclient.LockKey(doctorID, day)
	q.mu.Lock()
	m, ok := q.keys[key]
	if !ok {
		m = &sync.Mutex{}
		q.keys[key] = m
	}
	q.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	q.mu.Lock()
	q.holders++
	q.peak = max(q.peak, q.holders)
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.holders--
		q.mu.Unlock()
	}()

	return fn(ctx)
}

func (q *queueLocker) maxHolders() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}

// busyLocker reports that the lock wait ran out.
type busyLocker struct{}

func (busyLocker) WithDoctorDayLock(context.Context, uuid.UUID, time.Time, func(context.Context) error) error {
	return errLockHeld
}
