package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/period"
	"ledger/internal/services"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, fields map[string]string) {
	writeJSON(w, r, status, errorResponse{
		Error:     msg,
		Fields:    fields,
		RequestID: requestIDFrom(r),
	})
}

// writeServiceError maps a ledger error onto a status code. Storage failures
// are logged with the request logger; client errors are not.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid transaction",
			map[string]string{verr.Field: verr.Err.Error()})
	case errors.Is(err, services.ErrEmptySelection):
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, core.ErrInvalidPartition):
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, period.ErrStoreRead), errors.Is(err, period.ErrStoreWrite):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Storage failure", log.FieldError, err)
		writeError(w, r, http.StatusBadGateway, "storage is unavailable, nothing was changed", nil)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "internal error", nil)
	}
}
