// Package dashboard provides error types for dashboard responses.
package dashboard

import (
	"errors"
	"fmt"
)

// ErrSessionExpired indicates the dashboard bounced the request to its
// login page, or no session token is stored.
var ErrSessionExpired = errors.New("session expired")

// IsSessionExpired checks if an error means the user must log in again.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// StatusError is returned for non-2xx responses that are not a login
// redirect.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}
