// package reports persists migration reports so sessions can be reviewed
// after the process exits.
//
// Two sinks exist: a JSON file archive for human inspection and a SQLite
// store for querying across sessions. Both accept the same
// models.MigrationReport.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/shared"
)

// Sink persists a finished migration report.
type Sink interface {
	// Save persists the report. Saving the same session twice overwrites
	// the earlier record.
	Save(report *models.MigrationReport) error
}

// FileSink writes each report as a pretty-printed JSON file under a
// directory, named migration_report_<session>_<timestamp>.json.
type FileSink struct {
	dir string
}

// NewFileSink creates a FileSink rooted at dir, creating the directory if
// needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: archive directory is required", shared.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Save writes the report to a session-stamped JSON file and returns the
// first error encountered.
func (s *FileSink) Save(report *models.MigrationReport) error {
	data, err := shared.MarshalJSON(report, true)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	name := fmt.Sprintf("migration_report_%s_%s.json", report.SessionID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Path returns the archive directory.
func (s *FileSink) Path() string {
	return s.dir
}

// MultiSink fans a report out to several sinks, returning the first error
// after attempting all of them.
type MultiSink []Sink

func (m MultiSink) Save(report *models.MigrationReport) error {
	var first error
	for _, s := range m {
		if err := s.Save(report); err != nil && first == nil {
			first = err
		}
	}
	return first
}
