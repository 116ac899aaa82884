package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// Appointments

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), patientID, doctorID, req.Instant)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("patient_id"); raw != "" {
			patientID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			list, err := svc.ListByPatient(r.Context(), patientID)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, toDetailResponses(list))
			return
		}

		list, err := svc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(list))
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponse(*detail))
	}
}

func updateStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if !decodeBody(w, r, &req) {
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, req.Status, req.Notes)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func rescheduleHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		var req RescheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), id, req.NewInstant)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

// Doctors

func listDoctorsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func doctorAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		list, err := svc.ListByDoctor(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(list))
	}
}

func freeSlotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		date := chi.URLParam(r, "date")
		slots, err := svc.FreeSlotsForDay(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SlotsResponse{DoctorID: doctorID, Date: date, Slots: slots})
	}
}

func occupiedSlotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		date := chi.URLParam(r, "date")
		slots, err := svc.OccupiedSlotsForDay(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SlotsResponse{DoctorID: doctorID, Date: date, Slots: slots})
	}
}

// Availability blocks

func blockCheckHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		check, err := svc.CheckDay(r.Context(), doctorID, chi.URLParam(r, "date"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, BlockCheckResponse{
			Blocked: check.Blocked,
			Reason:  check.Reason,
			Shift:   string(check.Shift),
		})
	}
}

func createClinicBlockHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBlockRequest
		if !decodeBody(w, r, &req) {
			return
		}
		b, err := svc.CreateClinicBlock(r.Context(), req.input())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBlockResponse(*b))
	}
}

func createDoctorBlockHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		var req CreateBlockRequest
		if !decodeBody(w, r, &req) {
			return
		}
		b, err := svc.CreateDoctorBlock(r.Context(), doctorID, req.input())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBlockResponse(*b))
	}
}

func listBlocksHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blocks, err := svc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBlockResponses(blocks))
	}
}

func listDoctorBlocksHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseUUIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		blocks, err := svc.ListByDoctor(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBlockResponses(blocks))
	}
}

func deleteBlockHandler(svc BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
