// Package httptransport is the thin HTTP layer. Handlers decode requests,
// delegate to domain services, and encode responses; business rules stay in
// the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "crewbase/pkg/domain-errors"
)

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError translates a domain error to its HTTP status and envelope.
// Internal details never leak: only the coded message is sent.
func writeError(w http.ResponseWriter, err error) {
	var dErr *dErrors.Error
	if !errors.As(err, &dErr) {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   string(dErrors.CodeInternal),
			Message: "internal error",
		})
		return
	}
	writeJSON(w, dErrors.ToHTTPStatus(dErr.Code), errorBody{
		Error:   string(dErr.Code),
		Message: dErr.Message,
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "malformed request body")
	}
	return nil
}
