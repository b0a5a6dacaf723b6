package batch

import "fmt"

// Status classifies the terminal state of one target.
type Status int

const (
	StatusSucceeded Status = iota
	// StatusRetriesExhausted means every attempt was throttled and the
	// retry bound was reached.
	StatusRetriesExhausted
	// StatusFailed means an attempt failed with a non-throttle error;
	// such errors are never retried.
	StatusFailed
	// StatusConnectFailed means no session could be established, so no
	// attempt was made.
	StatusConnectFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusRetriesExhausted:
		return "retries-exhausted"
	case StatusFailed:
		return "failed"
	case StatusConnectFailed:
		return "connect-failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the per-target result of one executor invocation.
type Outcome struct {
	Target    string
	Operation string
	Status    Status
	Attempts  int
	Payload   any
	Err       error
}

// Completed reports whether the operation ran to success on this target.
func (o Outcome) Completed() bool { return o.Status == StatusSucceeded }
