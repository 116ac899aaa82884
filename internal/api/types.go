package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/availability"
	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
)

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Instant   string `json:"instant"` // YYYY-MM-DDTHH:MM:SS, clinic local
}

type RescheduleRequest struct {
	NewInstant string `json:"new_instant"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type CreateBlockRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
	Shift     string `json:"shift"`
	Weekdays  string `json:"weekdays"` // "1,3"
}

func (r CreateBlockRequest) input() availability.CreateInput {
	return availability.CreateInput{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Reason:    r.Reason,
		Shift:     r.Shift,
		Weekdays:  r.Weekdays,
	}
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt string    `json:"scheduled_at"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

type PatientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	HasInsurance    bool      `json:"has_insurance"`
	InsuranceName   *string   `json:"insurance_name,omitempty"`
	InsuranceNumber *string   `json:"insurance_number,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Doctor  *DoctorResponse  `json:"doctor,omitempty"`
	Patient *PatientResponse `json:"patient,omitempty"`
}

type BlockResponse struct {
	ID        uuid.UUID  `json:"id"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Reason    string     `json:"reason"`
	Scope     string     `json:"scope"`
	Shift     string     `json:"shift,omitempty"`
	Weekdays  []int      `json:"weekdays,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type BlockCheckResponse struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
	Shift   string `json:"shift,omitempty"`
}

type SlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Field   string `json:"field,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ScheduledAt: calendar.FormatInstant(a.ScheduledAt),
		Date:        calendar.FormatDate(a.ScheduledAt),
		Time:        calendar.TimeOf(a.ScheduledAt),
		Status:      string(a.Status),
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toDoctorResponse(d appointment.Doctor) DoctorResponse {
	return DoctorResponse{ID: d.ID, Name: d.Name, Specialty: d.Specialty}
}

func toDetailResponse(d appointment.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(d.Appointment)}
	if d.Doctor != nil {
		doc := toDoctorResponse(*d.Doctor)
		resp.Doctor = &doc
	}
	if d.Patient != nil {
		resp.Patient = &PatientResponse{
			ID:              d.Patient.ID,
			Name:            d.Patient.Name,
			Email:           d.Patient.Email,
			Phone:           d.Patient.Phone,
			HasInsurance:    d.Patient.HasInsurance,
			InsuranceName:   d.Patient.InsuranceName,
			InsuranceNumber: d.Patient.InsuranceNumber,
		}
	}
	return resp
}

func toDetailResponses(list []appointment.AppointmentDetail) []AppointmentDetailResponse {
	out := make([]AppointmentDetailResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDetailResponse(d))
	}
	return out
}

func toBlockResponse(b availability.Block) BlockResponse {
	return BlockResponse{
		ID:        b.ID,
		DoctorID:  b.DoctorID,
		StartDate: calendar.FormatDate(b.StartDate),
		EndDate:   calendar.FormatDate(b.EndDate),
		Reason:    b.Reason,
		Scope:     string(b.Scope),
		Shift:     string(b.Shift),
		Weekdays:  b.Weekdays,
		CreatedAt: b.CreatedAt,
	}
}

func toBlockResponses(list []availability.Block) []BlockResponse {
	out := make([]BlockResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBlockResponse(b))
	}
	return out
}
