package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for non-2xx upstream responses. It keeps the
// response body because the server explains the reason of the failure there.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsStatus reports whether err is a StatusError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}
