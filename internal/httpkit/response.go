package httpkit

import (
	"encoding/json"
	"io"
	"net/http"

	"amsgate/internal/pkg/errors"
)

// ErrorEnvelope is the flat error body both endpoints return.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// DecodeJSON decodes the request body into v. Unknown fields are
// ignored so extra properties in caller payloads never fail a request,
// and an empty body decodes to the zero value.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteErr writes an error body with an explicit status.
func WriteErr(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorEnvelope{Error: msg})
}

// WriteError maps a coded error to its HTTP status and writes it.
func WriteError(w http.ResponseWriter, err error) {
	status := errors.GetHTTPStatus(err)
	msg := err.Error()

	var e *errors.Error
	if errors.As(err, &e) {
		msg = e.Message
		if e.Err != nil {
			msg = msg + ": " + e.Err.Error()
		}
	}

	WriteErr(w, status, msg)
}
