package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "buildsync/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteError translates a domain error into a JSON error envelope. Caller
// errors carry the message and structured details so the request can be
// corrected without guessing; internal failures expose only the code.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	body := errorBody{Error: string(code)}

	switch code {
	case dErrors.CodeValidation, dErrors.CodeNotFound, dErrors.CodeConflict:
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
			body.Details = de.Details
		}
	}

	WriteJSON(w, dErrors.HTTPStatus(code), body)
}
