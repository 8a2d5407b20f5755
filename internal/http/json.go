package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/ssopoc/authgate/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
// Encoding happens into a buffer first so a marshal failure can still
// produce a clean 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteError maps the error to its HTTP status and writes the uniform
// {"error": "<message>"} body. Internal failures get a generic message so
// store or IdP details never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	WriteJSON(w, status, map[string]string{"error": message})
}
