package errors

import (
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// RequestError is a failed mutation against the posts API: a non-2xx response
// or a transport failure (StatusCode is 0 then).
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to %s post: %v", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("failed to %s post: %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("failed to %s post: %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the remote failure to the status the frontend answers with.
func (e *RequestError) HTTPStatus() int {
	switch {
	case e.StatusCode == 0:
		return http.StatusBadGateway
	case e.StatusCode >= 500:
		return http.StatusBadGateway
	default:
		return e.StatusCode
	}
}

func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *ErrorWithStatusCode:
		http.Error(w, err.Error(), e.StatusCode)
		return
	case *RequestError:
		http.Error(w, http.StatusText(e.HTTPStatus()), e.HTTPStatus())
		return
	}
	// default error is 500
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
