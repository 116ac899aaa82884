package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
)

type AppointmentService interface {
	BookAppointment(ctx context.Context, patientID, doctorID uuid.UUID, instant string) (*appointment.Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, newInstant string) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*appointment.Appointment, error)
	FreeSlotsForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
	OccupiedSlotsForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.AppointmentDetail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.AppointmentDetail, error)
	ListAll(ctx context.Context) ([]appointment.AppointmentDetail, error)
	ListDoctors(ctx context.Context) ([]appointment.Doctor, error)
}

type BlockService interface {
	CreateClinicBlock(ctx context.Context, in availability.CreateInput) (*availability.Block, error)
	CreateDoctorBlock(ctx context.Context, doctorID uuid.UUID, in availability.CreateInput) (*availability.Block, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]availability.Block, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]availability.Block, error)
	CheckDay(ctx context.Context, doctorID uuid.UUID, date string) (availability.DayCheck, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Blocks       BlockService
	Health       *HealthHandler
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Appointments))
		r.Get("/", listAppointmentsHandler(cfg.Appointments))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
		r.Put("/{id}/status", updateStatusHandler(cfg.Appointments))
		r.Put("/{id}/reschedule", rescheduleHandler(cfg.Appointments))
	})

	// Doctor schedule endpoints
	r.Get("/doctors", listDoctorsHandler(cfg.Appointments))
	r.Route("/doctors/{doctorID}", func(r chi.Router) {
		r.Get("/appointments", doctorAppointmentsHandler(cfg.Appointments))
		r.Get("/free-slots/{date}", freeSlotsHandler(cfg.Appointments))
		r.Get("/occupied-slots/{date}", occupiedSlotsHandler(cfg.Appointments))
		r.Get("/block-check/{date}", blockCheckHandler(cfg.Blocks))
		r.Get("/blocks", listDoctorBlocksHandler(cfg.Blocks))
		r.Post("/blocks", createDoctorBlockHandler(cfg.Blocks))
	})

	// Clinic-wide blocks
	r.Route("/blocks", func(r chi.Router) {
		r.Get("/", listBlocksHandler(cfg.Blocks))
		r.Post("/", createClinicBlockHandler(cfg.Blocks))
		r.Delete("/{id}", deleteBlockHandler(cfg.Blocks))
	})

	return r
}
