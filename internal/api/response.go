package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackgods/clinic-appointment-scheduling/internal/apperr"
	"github.com/hackgods/clinic-appointment-scheduling/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps a service error to its status by kind. Internal
// failures are logged and never echo the cause to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	if kind == apperr.KindInternal {
		logging.FromContext(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, status, string(kind), "internal error")
		return
	}

	resp := ErrorResponse{Error: string(kind), Details: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Details = e.Message
		resp.Reason = e.Reason
		resp.Field = e.Field
	}
	if kind == apperr.KindBusy {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}
