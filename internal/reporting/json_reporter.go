// File: internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// jsonDocument is the envelope the JSON reporter emits: tool identification
// plus every run written during the session.
type jsonDocument struct {
	Generator string               `json:"generator"`
	Version   string               `json:"version"`
	CreatedAt time.Time            `json:"created_at"`
	Runs      []*schemas.RunReport `json:"runs"`
}

// JSONReporter accumulates run reports and writes them as a single indented
// JSON document on Close. It is thread safe.
type JSONReporter struct {
	writer  io.WriteCloser
	log     *zap.Logger
	version string

	mu   sync.Mutex
	runs []*schemas.RunReport
}

var _ Reporter = (*JSONReporter)(nil)

// NewJSONReporter creates a reporter that writes the JSON document format.
// It takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser, toolVersion string, log *zap.Logger) *JSONReporter {
	return &JSONReporter{
		writer:  writer,
		log:     log.Named("json_reporter"),
		version: toolVersion,
		runs:    []*schemas.RunReport{},
	}
}

// Write adds a run report to the document.
func (r *JSONReporter) Write(report *schemas.RunReport) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil run report")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, report)
	return nil
}

// Close serializes the accumulated document and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := jsonDocument{
		Generator: "crmpilot-cli",
		Version:   r.version,
		CreatedAt: time.Now().UTC(),
		Runs:      r.runs,
	}

	data, encodeErr := json.MarshalIndent(doc, "", "  ")
	if encodeErr == nil {
		_, writeErr := r.writer.Write(append(data, '\n'))
		encodeErr = writeErr
	}
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.log.Error("Failed to write JSON report", zap.Error(encodeErr))
		return fmt.Errorf("failed to write JSON report: %w", encodeErr)
	}
	if closeErr != nil {
		r.log.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.log.Info("Wrote JSON report", zap.Int("runs", len(r.runs)))
	return nil
}
