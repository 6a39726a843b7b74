package folio

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel values wrapped by APIError so handlers and tests can match with
// errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("malformed request")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("too many requests")
	ErrUnavailable   = errors.New("upstream unavailable")
	ErrUnprocessable = errors.New("validation failed")
)

// APIError is an error with an HTTP status that the error handler writes as
// a JSON body.
type APIError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
	err     error
}

// NewAPIError returns an APIError with the given status and message.
func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message, err: sentinelFor(code)}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Unwrap makes errors.Is(err, ErrNotFound) work for a 404 APIError.
func (e *APIError) Unwrap() error {
	return e.err
}

func sentinelFor(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	return nil
}
