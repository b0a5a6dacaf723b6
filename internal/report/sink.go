// Package report delivers per-target batch outcomes to append-only sinks:
// a local report log, and optionally a Kafka audit topic.
package report

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Event is one report entry. RunID groups all entries of a single batch.
type Event struct {
	RunID     uuid.UUID `json:"runId"`
	Time      time.Time `json:"time"`
	Severity  Severity  `json:"severity"`
	Target    string    `json:"target,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message"`
}

// Sink is an append-only event destination. Publish errors are reported to
// the caller but batch code treats them as non-fatal.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// FileSink appends tab-separated report lines to a log file.
type FileSink struct {
	mu    sync.Mutex
	file  *os.File
	chain *Chain
}

func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open report log %s: %w", path, err)
	}
	return &FileSink{file: file, chain: NewChain()}, nil
}

func (s *FileSink) Publish(_ context.Context, ev Event) error {
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\n",
		ev.Time.UTC().Format(time.RFC3339),
		ev.Severity,
		ev.Target,
		ev.Operation,
		ev.Status,
		s.chain.Apply(ev.Message))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("append report line: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	return s.file.Close()
}
