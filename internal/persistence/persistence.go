// Package persistence writes the per-run batch report to disk as a JSON
// artifact, with pluggable serialization and writing for tests.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/andrej220/siteops/internal/batch"
)

type Serializer interface {
	Marshal(data any) ([]byte, error)
}

type Writer interface {
	Write(filename string, data []byte) error
}

type JSONSerializer struct {
	Prefix, Indent string
}

func (s JSONSerializer) Marshal(data any) ([]byte, error) {
	return json.MarshalIndent(data, s.Prefix, s.Indent)
}

type FileWriter struct {
	Overwrite bool
}

func (w FileWriter) Write(filename string, data []byte) error {
	if filename == "" {
		return os.ErrInvalid
	}
	if _, err := os.Stat(filename); !os.IsNotExist(err) && !w.Overwrite {
		return os.ErrExist
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// RunReport is the persisted form of one batch run.
type RunReport struct {
	RunID      uuid.UUID      `json:"runId"`
	Operation  string         `json:"operation"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Targets    []TargetReport `json:"targets"`
}

// TargetReport flattens a batch outcome for the artifact; errors become
// strings so the report stays plain JSON.
type TargetReport struct {
	Target   string `json:"target"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

func NewRunReport(runID uuid.UUID, operation string, started, finished time.Time, outcomes []batch.Outcome) RunReport {
	report := RunReport{
		RunID:      runID,
		Operation:  operation,
		StartedAt:  started,
		FinishedAt: finished,
		Targets:    make([]TargetReport, 0, len(outcomes)),
	}
	for _, out := range outcomes {
		tr := TargetReport{
			Target:   out.Target,
			Status:   out.Status.String(),
			Attempts: out.Attempts,
			Payload:  out.Payload,
		}
		if out.Err != nil {
			tr.Error = out.Err.Error()
		}
		report.Targets = append(report.Targets, tr)
	}
	return report
}

// WriteRunReport persists report under dir, named by run ID, and returns
// the artifact path.
func WriteRunReport(dir string, report RunReport, serializer Serializer, writer Writer) (string, error) {
	if serializer == nil {
		serializer = JSONSerializer{Indent: "    "}
	}
	if writer == nil {
		writer = FileWriter{Overwrite: true}
	}

	data, err := serializer.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("serialize run report: %w", err)
	}
	path := filepath.Join(dir, report.RunID.String()+".json")
	if err := writer.Write(path, data); err != nil {
		return "", fmt.Errorf("write run report %s: %w", path, err)
	}
	return path, nil
}
