package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/nullable"

	"github.com/TresYap/sakaydb/internal/adapters/resilient"
	"github.com/TresYap/sakaydb/internal/app/ledger"
)

// ErrorResponse is the envelope for every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

// writeServiceError maps ledger and storage errors onto the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*ledger.Error)(nil); errors.As(err, &ae) {
		writeError(w, r, statusForKind(ae.Kind), ae.Code, ae.Error(), ae.Details)
		return
	}
	log := loggerFrom(r.Context())
	if errors.Is(err, resilient.ErrUnavailable) {
		log.Warn().Err(err).Msg("table store unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage is temporarily unavailable", nil)
		return
	}
	log.Error().Err(err).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func statusForKind(k ledger.Kind) int {
	switch k {
	case ledger.KindValidation:
		return http.StatusUnprocessableEntity
	case ledger.KindDuplicateTrip:
		return http.StatusConflict
	case ledger.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already encoded body with the trailing newline Encode adds.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
