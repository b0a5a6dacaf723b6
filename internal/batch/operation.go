// Package batch contains the throttle-aware retry executor and the
// per-target orchestration loop. It is transport-agnostic: sessions,
// remote calls and reporting are collaborators supplied by the caller.
package batch

import (
	"context"
	"io"
)

// Operation is one selectable unit of remote work, invoked against an
// established per-target session. Implementations carry no mutable state
// between invocations.
type Operation[S any] interface {
	Name() string
	Invoke(ctx context.Context, sess S) (any, error)
}

// Connector establishes a per-target session. A returned session is owned
// exclusively by one iteration of the batch loop and is closed before the
// next target starts.
type Connector[S io.Closer] interface {
	Connect(ctx context.Context, target string) (S, error)
}

// Reporter receives one outcome per target. Report failures are logged by
// the orchestrator but never fail the batch.
type Reporter interface {
	Report(ctx context.Context, out Outcome) error
}
