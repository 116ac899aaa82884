package appointment

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
)

// Runs against a disposable database when TEST_POSTGRES_DSN is set.
func newPgFixture(t *testing.T) (*pgxpool.Pool, *Service) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{MaxConns: 8})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewService(NewPgTransactor(pool), NewPgRepository(pool), zerolog.New(io.Discard),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }))
	return pool, svc
}

func insertDoctor(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := pool.Exec(context.Background(), `INSERT INTO doctors (id, name) VALUES ($1, $2)`, id, "Dr. Test "+id.String()[:8]); err != nil {
		t.Fatal(err)
	}
	return id
}

func insertPatient(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := pool.Exec(context.Background(), `INSERT INTO patients (id, name, has_insurance) VALUES ($1, $2, false)`, id, "Patient "+id.String()[:8]); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestPg_ConcurrentBookingsSameSlot(t *testing.T) {
	pool, svc := newPgFixture(t)
	doctor := insertDoctor(t, pool)

	const racers = 6
	patients := make([]uuid.UUID, racers)
	for i := range patients {
		patients[i] = insertPatient(t, pool)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		taken   int
		unknown []error
	)
	for _, p := range patients {
		wg.Add(1)
		go func(patient uuid.UUID) {
			defer wg.Done()
			_, err := svc.BookAppointment(context.Background(), patient, doctor, "2030-03-05T10:30:00")
			mu.Lock()
			defer mu.Unlock()
			switch apperr.KindOf(err) {
			case "":
				booked++
			case apperr.KindSlotTaken:
				taken++
			default:
				unknown = append(unknown, err)
			}
		}(p)
	}
	wg.Wait()

	if len(unknown) > 0 {
		t.Fatalf("unexpected errors: %v", unknown)
	}
	if booked != 1 || taken != racers-1 {
		t.Fatalf("expected exactly one winner, got booked=%d taken=%d", booked, taken)
	}
}

func TestPg_RescheduleAndFreeSlots(t *testing.T) {
	pool, svc := newPgFixture(t)
	ctx := context.Background()
	doctor := insertDoctor(t, pool)
	patient := insertPatient(t, pool)

	a, err := svc.BookAppointment(ctx, patient, doctor, "2030-03-06T09:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RescheduleAppointment(ctx, a.ID, "2030-03-06T10:00:00"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	occupied, err := svc.OccupiedSlotsForDay(ctx, doctor, "2030-03-06")
	if err != nil {
		t.Fatal(err)
	}
	if len(occupied) != 1 || occupied[0] != "10:00" {
		t.Fatalf("unexpected occupied %v", occupied)
	}

	free, err := svc.FreeSlotsForDay(ctx, doctor, "2030-03-06")
	if err != nil {
		t.Fatal(err)
	}
	if len(free) != 39 {
		t.Fatalf("expected 39 free slots, got %d", len(free))
	}

	detail, err := svc.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Doctor == nil || detail.Doctor.ID != doctor {
		t.Fatal("detail should join the doctor")
	}
}
