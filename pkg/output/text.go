package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/mmconsole/pkg/parser"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatSummary(report, w)
	}
	if f.opts.Raw {
		return f.formatRaw(report, w)
	}

	for _, rec := range report.Records {
		if _, err := fmt.Fprintln(w, FormatRecord(rec)); err != nil {
			return err
		}
	}

	if f.opts.Verbose {
		fmt.Fprintln(w, "---")
		return f.formatSummary(report, w)
	}
	return nil
}

func (f *TextFormatter) formatRaw(report *Report, w io.Writer) error {
	for _, line := range report.Raw {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatSummary(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "%d records, %d errors, %d partial\n",
		report.Summary.Records,
		report.Summary.Errors,
		report.Summary.Partial)

	if len(report.Summary.Subsystems) == 0 {
		return nil
	}
	names := make([]string, 0, len(report.Summary.Subsystems))
	for name := range report.Summary.Subsystems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %d\n", name, report.Summary.Subsystems[name])
	}
	return nil
}

// FormatRecord renders a record as one aligned line. Partial records show
// the fields they had, comma separated.
func FormatRecord(rec parser.Record) string {
	var line string
	if rec.Partial() {
		line = fmt.Sprintf("%10s  (partial) %s", rec.Timestamp, strings.Join(rec.Values()[1:], parser.Delimiter))
	} else {
		line = fmt.Sprintf("%10s  %-8s %-6s %s", rec.Timestamp, rec.Subsystem, rec.Severity, rec.Payload)
	}
	return strings.TrimRight(line, " ")
}
