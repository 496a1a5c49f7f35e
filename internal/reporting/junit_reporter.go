// File: internal/reporting/junit_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// JUnitReporter renders run reports as JUnit style XML so CI systems can
// ingest scenario outcomes: one <testsuite> per run, one <testcase> per step.
// It is thread safe.
type JUnitReporter struct {
	writer  io.WriteCloser
	log     *zap.Logger
	version string

	mu   sync.Mutex
	runs []*schemas.RunReport
}

var _ Reporter = (*JUnitReporter)(nil)

// NewJUnitReporter creates a reporter that writes JUnit style XML. It takes
// ownership of the writer.
func NewJUnitReporter(writer io.WriteCloser, toolVersion string, log *zap.Logger) *JUnitReporter {
	return &JUnitReporter{
		writer:  writer,
		log:     log.Named("junit_reporter"),
		version: toolVersion,
	}
}

// Write adds a run report to the document.
func (r *JUnitReporter) Write(report *schemas.RunReport) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil run report")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, report)
	return nil
}

// Close serializes the accumulated document and closes the writer.
func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", "crmpilot-cli "+r.version)

	var totalTests, totalFailures int
	var totalTime time.Duration
	for _, run := range r.runs {
		tests, failures, elapsed := r.appendSuite(suites, run)
		totalTests += tests
		totalFailures += failures
		totalTime += elapsed
	}
	suites.CreateAttr("tests", strconv.Itoa(totalTests))
	suites.CreateAttr("failures", strconv.Itoa(totalFailures))
	suites.CreateAttr("time", formatSeconds(totalTime))

	doc.Indent(2)
	_, encodeErr := doc.WriteTo(r.writer)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.log.Error("Failed to write JUnit report", zap.Error(encodeErr))
		return fmt.Errorf("failed to write JUnit report: %w", encodeErr)
	}
	if closeErr != nil {
		r.log.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.log.Info("Wrote JUnit report",
		zap.Int("suites", len(r.runs)),
		zap.Int("tests", totalTests),
		zap.Int("failures", totalFailures),
	)
	return nil
}

// appendSuite renders one run as a <testsuite> and returns its test count,
// failure count and wall time.
func (r *JUnitReporter) appendSuite(parent *etree.Element, run *schemas.RunReport) (int, int, time.Duration) {
	elapsed := run.CompletedAt.Sub(run.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	failures := 0
	for _, step := range run.Steps {
		if !step.Success {
			failures++
		}
	}

	suite := parent.CreateElement("testsuite")
	suite.CreateAttr("name", run.Scenario)
	suite.CreateAttr("id", run.RunID)
	suite.CreateAttr("tests", strconv.Itoa(len(run.Steps)))
	suite.CreateAttr("failures", strconv.Itoa(failures))
	suite.CreateAttr("time", formatSeconds(elapsed))
	suite.CreateAttr("timestamp", run.StartedAt.UTC().Format(time.RFC3339))

	props := suite.CreateElement("properties")
	urlProp := props.CreateElement("property")
	urlProp.CreateAttr("name", "url")
	urlProp.CreateAttr("value", run.URL)

	for _, step := range run.Steps {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", caseName(step))
		tc.CreateAttr("classname", run.Scenario)
		tc.CreateAttr("time", formatSeconds(time.Duration(step.DurationMS)*time.Millisecond))

		if !step.Success {
			message := step.Error
			if message == "" {
				message = "step did not apply"
			}
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", message)
			failure.SetText(message)
		}
	}

	return len(run.Steps), failures, elapsed
}

// caseName builds a stable test case name from the step's operation and
// target field.
func caseName(step schemas.StepResult) string {
	name := fmt.Sprintf("%02d %s", step.Seq, step.Op)
	if step.Field != "" {
		name += " " + step.Field
	}
	return name
}

// formatSeconds renders a duration the way JUnit consumers expect: seconds
// with millisecond precision.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
