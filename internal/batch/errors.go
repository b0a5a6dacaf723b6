package batch

import (
	"errors"
	"fmt"
	"time"
)

// ThrottleError is the recoverable rate-limit signal from the remote
// service. RetryAfter is the server-suggested wait; zero means the server
// suggested none and the executor falls back to exponential backoff.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("throttled by remote service, retry after %s", e.RetryAfter)
	}
	return "throttled by remote service"
}

// IsThrottle reports whether err is (or wraps) a ThrottleError.
func IsThrottle(err error) bool {
	var te *ThrottleError
	return errors.As(err, &te)
}
