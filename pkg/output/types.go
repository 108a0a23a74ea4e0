// Package output provides formatting for the accumulated telemetry log.
package output

import (
	"time"

	"github.com/ccollicutt/mmconsole/pkg/parser"
)

// Report is a snapshot of the log for display or export.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Records are the classified records in arrival order.
	Records []parser.Record `json:"records"`

	// Raw are the raw lines, parallel to Records. Omitted when empty.
	Raw []parser.RawLine `json:"raw,omitempty"`

	// Metadata provides context about where the log came from.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Records is the number of records in the report.
	Records int `json:"records"`

	// Errors is the number of records carrying the error severity.
	Errors int `json:"errors"`

	// Partial is the number of records built from malformed lines.
	Partial int `json:"partial"`

	// Subsystems counts records per subsystem tag.
	Subsystems map[string]int `json:"subsystems,omitempty"`
}

// Metadata provides context about the snapshot.
type Metadata struct {
	// Session identifies the console session, if any.
	Session string `json:"session,omitempty"`

	// Source describes the transport or capture files.
	Source string `json:"source,omitempty"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`
}

// NewReport builds a report from records and their raw lines. raw may be nil.
func NewReport(records []parser.Record, raw []parser.RawLine, errorSeverity string) *Report {
	if errorSeverity == "" {
		errorSeverity = parser.DefaultErrorSeverity
	}
	report := &Report{
		Records:  records,
		Raw:      raw,
		Metadata: Metadata{CreatedAt: time.Now()},
		Summary:  Summary{Records: len(records)},
	}

	for _, rec := range records {
		if rec.Partial() {
			report.Summary.Partial++
			continue
		}
		if rec.Severity == errorSeverity {
			report.Summary.Errors++
		}
		if report.Summary.Subsystems == nil {
			report.Summary.Subsystems = make(map[string]int)
		}
		report.Summary.Subsystems[rec.Subsystem]++
	}

	return report
}

// HasErrors returns true if any error record is present.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}
