// File: internal/reporting/reporter.go

// Package reporting renders finished scenario runs for humans and CI systems.
package reporting

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
)

// Reporter defines the interface for writing run reports to an output.
type Reporter interface {
	// Write adds a single run report to the output.
	Write(report *schemas.RunReport) error
	// Close finalizes the report and closes any underlying resources (e.g.,
	// file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path (or "stdout") writes to standard output. The reporter takes
// ownership of the underlying writer and closes it on Close.
func New(format, outputPath, toolVersion string, log *zap.Logger) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return NewJSONReporter(writer, toolVersion, log), nil
	case "junit":
		return NewJUnitReporter(writer, toolVersion, log), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
