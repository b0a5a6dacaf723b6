package report

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// MultiSink fans one event out to several sinks. Delivery to the sinks is
// concurrent; the batch itself stays strictly sequential.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish delivers to every sink on the caller's context. Sinks are
// independent best-effort destinations, so one sink's error must not
// cancel a sibling's delivery.
func (s *MultiSink) Publish(ctx context.Context, ev Event) error {
	var g errgroup.Group
	for _, sink := range s.sinks {
		sink := sink
		g.Go(func() error {
			return sink.Publish(ctx, ev)
		})
	}
	return g.Wait()
}

func (s *MultiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Sink = (*MultiSink)(nil)
