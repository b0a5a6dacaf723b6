package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrej220/siteops/internal/batch"
)

// BatchReporter turns per-target outcomes into report events on a sink.
// It implements batch.Reporter.
type BatchReporter struct {
	RunID uuid.UUID
	Sink  Sink

	now func() time.Time // test hook
}

func NewBatchReporter(runID uuid.UUID, sink Sink) *BatchReporter {
	return &BatchReporter{RunID: runID, Sink: sink, now: time.Now}
}

func (r *BatchReporter) Report(ctx context.Context, out batch.Outcome) error {
	return r.Sink.Publish(ctx, Event{
		RunID:     r.RunID,
		Time:      r.clock()(),
		Severity:  severityFor(out.Status),
		Target:    out.Target,
		Operation: out.Operation,
		Status:    out.Status.String(),
		Message:   messageFor(out),
	})
}

func (r *BatchReporter) clock() func() time.Time {
	if r.now != nil {
		return r.now
	}
	return time.Now
}

func severityFor(status batch.Status) Severity {
	switch status {
	case batch.StatusSucceeded:
		return SeverityInfo
	case batch.StatusRetriesExhausted:
		return SeverityWarn
	default:
		return SeverityError
	}
}

func messageFor(out batch.Outcome) string {
	if out.Err != nil {
		return out.Err.Error()
	}
	return fmt.Sprintf("completed in %d attempt(s)", out.Attempts)
}

var _ batch.Reporter = (*BatchReporter)(nil)
