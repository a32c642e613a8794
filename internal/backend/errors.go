package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const genericNetworkError = "could not reach the server, please try again"

// APIError is the normalized shape of every backend failure. Callers branch
// on Status and show Message; they never see the transport library's errors.
// A zero Status means the request never produced an HTTP response.
type APIError struct {
	Status  int
	Message string
	Payload json.RawMessage
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// newAPIError builds an APIError from a non-2xx response, preferring the
// server-supplied message over a generic one.
func newAPIError(status int, payload []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: http.StatusText(status),
		Payload: payload,
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}

	return apiErr
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNetworkError reports whether err is a transport-level failure that never
// reached the backend. Guards fail open on these.
func IsNetworkError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}
