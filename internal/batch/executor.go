package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/andrej220/siteops/pkg/lg"
)

const (
	// DefaultMaxRetries bounds the total attempts per target.
	DefaultMaxRetries = 5
	// DefaultInitialBackoff is the wait before the first unhinted retry;
	// it doubles on every further throttled attempt.
	DefaultInitialBackoff = 30 * time.Second

	// Operational cap on a single computed wait. Server-suggested waits
	// are honored verbatim and are not capped.
	maxBackoffInterval = time.Hour
)

// Executor runs a single operation against one target, retrying throttled
// attempts with exponential backoff. Non-throttle errors are terminal for
// the target on the first occurrence.
type Executor[S any] struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Logger         lg.Logger

	// Timer overrides the backoff wait source; tests inject one so no
	// real sleeping happens. Nil selects the backoff package default.
	Timer backoff.Timer
}

func NewExecutor[S any](logger lg.Logger) *Executor[S] {
	return &Executor[S]{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		Logger:         logger,
	}
}

// Execute invokes op against sess until it succeeds, fails fatally, or the
// retry bound is reached. The target is carried for diagnostics only.
func (e *Executor[S]) Execute(ctx context.Context, op Operation[S], target string, sess S) Outcome {
	out := Outcome{Target: target, Operation: op.Name()}
	logger := e.logger().With(lg.String("target", target), lg.String("operation", op.Name()))

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     e.initialBackoff(),
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxBackoffInterval,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	tb := &throttleBackOff{exp: exp}

	// maxRetries bounds total attempts, so the wrapped backoff allows
	// one fewer retry than attempts. There is no sleep after the final
	// failed attempt.
	var retries uint64
	if n := e.maxRetries(); n > 1 {
		retries = uint64(n - 1)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(tb, retries), ctx)

	work := func() error {
		out.Attempts++
		payload, err := op.Invoke(ctx, sess)
		if err != nil {
			var te *ThrottleError
			if errors.As(err, &te) {
				tb.hint = te.RetryAfter
				return err
			}
			return backoff.Permanent(err)
		}
		out.Payload = payload
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("throttled, backing off",
			lg.Int("attempt", out.Attempts),
			lg.Duration("wait", wait),
			lg.Err(err))
	}

	err := backoff.RetryNotifyWithTimer(work, b, notify, e.Timer)
	switch {
	case err == nil:
		out.Status = StatusSucceeded
		logger.Info("operation succeeded", lg.Int("attempts", out.Attempts))
	case IsThrottle(err):
		out.Status = StatusRetriesExhausted
		out.Err = fmt.Errorf("still throttled after %d attempts: %w", out.Attempts, err)
		logger.Error("retries exhausted", lg.Int("attempts", out.Attempts))
	default:
		out.Status = StatusFailed
		out.Err = err
		logger.Error("operation failed", lg.Int("attempts", out.Attempts), lg.Err(err))
	}
	return out
}

func (e *Executor[S]) maxRetries() int {
	if e.MaxRetries > 0 {
		return e.MaxRetries
	}
	return DefaultMaxRetries
}

func (e *Executor[S]) initialBackoff() time.Duration {
	if e.InitialBackoff > 0 {
		return e.InitialBackoff
	}
	return DefaultInitialBackoff
}

func (e *Executor[S]) logger() lg.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return lg.Discard
}

// throttleBackOff prefers the server-suggested wait from the most recent
// throttled attempt and falls back to the exponential schedule. The
// schedule advances on every retry so unhinted waits stay tied to the
// attempt index.
type throttleBackOff struct {
	exp  *backoff.ExponentialBackOff
	hint time.Duration
}

func (b *throttleBackOff) NextBackOff() time.Duration {
	next := b.exp.NextBackOff()
	if b.hint > 0 {
		next = b.hint
		b.hint = 0
	}
	return next
}

func (b *throttleBackOff) Reset() {
	b.hint = 0
	b.exp.Reset()
}
