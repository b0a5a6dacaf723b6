package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/andrej220/siteops/pkg/lg"
)

// Orchestrator applies one operation to an ordered list of targets,
// strictly sequentially. Remote rate limits are typically tenant-wide, so
// running targets in parallel would only amplify throttling.
type Orchestrator[S io.Closer] struct {
	Connector Connector[S]
	Executor  *Executor[S]
	Logger    lg.Logger
	Reporter  Reporter // optional
}

func NewOrchestrator[S io.Closer](connector Connector[S], executor *Executor[S], logger lg.Logger) *Orchestrator[S] {
	return &Orchestrator[S]{
		Connector: connector,
		Executor:  executor,
		Logger:    logger,
	}
}

// RunBatch processes every target in order and returns one outcome per
// target. Failures are target-scoped: the batch always runs to completion
// over all targets.
func (o *Orchestrator[S]) RunBatch(ctx context.Context, targets []string, op Operation[S]) []Outcome {
	outcomes := make([]Outcome, 0, len(targets))
	for i, target := range targets {
		o.logger().Info("processing target",
			lg.String("target", target),
			lg.Int("position", i+1),
			lg.Int("total", len(targets)))
		out := o.runOne(ctx, target, op)
		outcomes = append(outcomes, out)
		o.report(ctx, out)
	}
	return outcomes
}

// runOne owns the session for exactly one target; the deferred close runs
// before the next target is started.
func (o *Orchestrator[S]) runOne(ctx context.Context, target string, op Operation[S]) Outcome {
	sess, err := o.Connector.Connect(ctx, target)
	if err != nil {
		o.logger().Error("session establishment failed",
			lg.String("target", target), lg.Err(err))
		return Outcome{
			Target:    target,
			Operation: op.Name(),
			Status:    StatusConnectFailed,
			Err:       fmt.Errorf("establish session: %w", err),
		}
	}
	defer sess.Close()

	return o.Executor.Execute(ctx, op, target, sess)
}

func (o *Orchestrator[S]) report(ctx context.Context, out Outcome) {
	if o.Reporter == nil {
		return
	}
	if err := o.Reporter.Report(ctx, out); err != nil {
		// Reporting is best effort; a broken sink never fails the batch.
		o.logger().Warn("report sink failure", lg.String("target", out.Target), lg.Err(err))
	}
}

func (o *Orchestrator[S]) logger() lg.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return lg.Discard
}
