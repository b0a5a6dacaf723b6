package persistence_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrej220/siteops/internal/batch"
	"github.com/andrej220/siteops/internal/persistence"
)

type MockSerializer struct {
	Bytes []byte
	Err   error
}

func (s MockSerializer) Marshal(data any) ([]byte, error) {
	return s.Bytes, s.Err
}

type MockWriter struct {
	Data map[string][]byte
	Err  error
}

func (w *MockWriter) Write(filename string, data []byte) error {
	if w.Data == nil {
		w.Data = make(map[string][]byte)
	}
	w.Data[filename] = data
	return w.Err
}

func sampleReport() persistence.RunReport {
	started := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	return persistence.NewRunReport(
		uuid.New(),
		"get-policy",
		started,
		started.Add(42*time.Second),
		[]batch.Outcome{
			{Target: "https://a.example", Status: batch.StatusSucceeded, Attempts: 1, Payload: map[string]any{"sharingCapability": "Disabled"}},
			{Target: "https://b.example", Status: batch.StatusRetriesExhausted, Attempts: 5, Err: errors.New("still throttled")},
		},
	)
}

func TestNewRunReportFlattensOutcomes(t *testing.T) {
	report := sampleReport()

	require.Len(t, report.Targets, 2)
	assert.Equal(t, "succeeded", report.Targets[0].Status)
	assert.Empty(t, report.Targets[0].Error)
	assert.Equal(t, "retries-exhausted", report.Targets[1].Status)
	assert.Equal(t, "still throttled", report.Targets[1].Error)
	assert.Equal(t, 5, report.Targets[1].Attempts)
}

func TestWriteRunReport(t *testing.T) {
	tests := []struct {
		name        string
		serializer  persistence.Serializer
		writer      persistence.Writer
		expectedErr bool
	}{
		{name: "defaults", serializer: nil, writer: &MockWriter{}},
		{name: "serializer error", serializer: MockSerializer{Err: fmt.Errorf("serialization failed")}, writer: &MockWriter{}, expectedErr: true},
		{name: "writer error", serializer: nil, writer: &MockWriter{Err: fmt.Errorf("write failed")}, expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := sampleReport()
			path, err := persistence.WriteRunReport("runs", report, tt.serializer, tt.writer)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("runs", report.RunID.String()+".json"), path)
			writer := tt.writer.(*MockWriter)
			assert.Contains(t, string(writer.Data[path]), "https://a.example")
		})
	}
}

func TestWriteRunReportToDisk(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()

	path, err := persistence.WriteRunReport(dir, report, nil, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got persistence.RunReport
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, "get-policy", got.Operation)
	require.Len(t, got.Targets, 2)
}

func TestFileWriterRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, persistence.FileWriter{}.Write(path, []byte("one")))

	err := persistence.FileWriter{}.Write(path, []byte("two"))
	assert.ErrorIs(t, err, os.ErrExist)

	assert.NoError(t, persistence.FileWriter{Overwrite: true}.Write(path, []byte("two")))
}
