package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrej220/siteops/internal/admin"
	"github.com/andrej220/siteops/internal/batch"
	"github.com/andrej220/siteops/internal/persistence"
	"github.com/andrej220/siteops/internal/report"
	"github.com/andrej220/siteops/pkg/lg"
)

const menuText = `
siteops — batch site administration
  1) read site policy
  2) apply configured site policy
  3) read policy status
  4) create cleanup job
  5) poll latest cleanup job status
  q) quit
select: `

// menuLoop prompts until the operator quits, running one batch per
// selection. Pure dispatch: no retry or ordering logic lives here.
func (a *app) menuLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, menuText)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		selection := strings.TrimSpace(scanner.Text())
		if selection == "q" || selection == "quit" {
			return nil
		}
		op, ok := a.operationFor(selection)
		if !ok {
			fmt.Fprintf(out, "unknown selection %q\n", selection)
			continue
		}
		a.runBatch(ctx, op, out)
	}
}

// operationFor binds a menu selection to one operation for the whole run.
// The cleanup-job request ID is fixed here, so retried submissions within
// a target deduplicate server-side.
func (a *app) operationFor(selection string) (batch.Operation[*admin.Session], bool) {
	switch selection {
	case "1":
		return admin.GetPolicy{}, true
	case "2":
		return admin.SetPolicy{Policy: a.policy()}, true
	case "3":
		return admin.GetPolicyStatus{}, true
	case "4":
		return admin.NewCreateCleanupJob(), true
	case "5":
		return admin.GetCleanupJobStatus{}, true
	default:
		return nil, false
	}
}

func (a *app) runBatch(ctx context.Context, op batch.Operation[*admin.Session], out io.Writer) {
	runID := uuid.New()
	logger := a.logger.With(lg.String("run", runID.String()), lg.String("operation", op.Name()))
	logger.Info("starting batch", lg.Int("sites", len(a.sites)))

	orch := batch.NewOrchestrator[*admin.Session](a.conn, a.executor, logger)
	orch.Reporter = report.NewBatchReporter(runID, a.sink)

	started := time.Now()
	outcomes := orch.RunBatch(ctx, a.sites, op)
	finished := time.Now()

	printSummary(out, outcomes)

	if a.cfg.Report.ArtifactDir != "" {
		runReport := persistence.NewRunReport(runID, op.Name(), started, finished, outcomes)
		path, err := persistence.WriteRunReport(a.cfg.Report.ArtifactDir, runReport, nil, nil)
		if err != nil {
			logger.Warn("run report not written", lg.Err(err))
		} else {
			fmt.Fprintf(out, "run report written to %s\n", path)
		}
	}
}

func printSummary(out io.Writer, outcomes []batch.Outcome) {
	var completed int
	for _, o := range outcomes {
		if o.Completed() {
			completed++
		}
	}
	fmt.Fprintf(out, "\nbatch finished: %d/%d sites completed\n", completed, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.Completed():
			fmt.Fprintf(out, "  ok    %-60s %v\n", o.Target, o.Payload)
		default:
			fmt.Fprintf(out, "  %-5s %-60s %v\n", o.Status, o.Target, o.Err)
		}
	}
}
