package fitagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// OperationLogger is the interface for the facade's audit trail: one entry
// per workflow, recording what was asked and what came back.
type OperationLogger interface {
	LogOperation(op OperationLog) error
}

// NewOperationLogFilePath returns a file path keyed by run id so a single
// user turn's operations are easy to find.
func NewOperationLogFilePath(runID string) string {
	return fmt.Sprintf("./logs/%d.%s.json", time.Now().Unix(), runID)
}

// OperationLog is one facade workflow invocation.
type OperationLog struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Intent    string         `json:"intent"`
	UserID    int64          `json:"user_id"`
	Input     map[string]any `json:"input,omitempty"`
	Outcome   any            `json:"outcome,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FileOperationLogger accumulates operations and flushes them as one JSON
// document at the end of a run.
type FileOperationLogger struct {
	operations []OperationLog
	writer     io.Writer
}

func NewFileOperationLogger(writer io.Writer) *FileOperationLogger {
	return &FileOperationLogger{
		operations: make([]OperationLog, 0),
		writer:     writer,
	}
}

// LogOperation buffers an operation (does not flush immediately).
func (l *FileOperationLogger) LogOperation(op OperationLog) error {
	l.operations = append(l.operations, op)
	return nil
}

// Flush writes all accumulated operations to the writer.
func (l *FileOperationLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"operation_run": map[string]any{
			"timestamp":  time.Now(),
			"operations": l.operations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal operation log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write operation log: %w", err)
	}

	l.operations = l.operations[:0]
	return nil
}

// NoOpOperationLogger discards all entries.
type NoOpOperationLogger struct{}

func NewNoOpOperationLogger() *NoOpOperationLogger { return &NoOpOperationLogger{} }

func (*NoOpOperationLogger) LogOperation(op OperationLog) error { return nil }

// StdoutOperationLogger writes each operation as a JSON line to stdout
// (for Lambda/CloudWatch).
type StdoutOperationLogger struct{}

func NewStdoutOperationLogger() *StdoutOperationLogger { return &StdoutOperationLogger{} }

func (*StdoutOperationLogger) LogOperation(op OperationLog) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
