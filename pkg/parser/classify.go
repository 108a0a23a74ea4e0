package parser

import (
	"strings"
	"unicode"
)

// ErrorSink receives records whose severity matches the classifier's error tag.
// RecordError is called from the polling goroutine and must not block.
type ErrorSink interface {
	RecordError(line RawLine, rec Record)
}

// ErrorSinkFunc adapts a function to the ErrorSink interface.
type ErrorSinkFunc func(line RawLine, rec Record)

// RecordError calls f(line, rec).
func (f ErrorSinkFunc) RecordError(line RawLine, rec Record) { f(line, rec) }

// MultiSink fans a record out to several sinks.
type MultiSink []ErrorSink

// RecordError forwards the record to every sink in order.
func (m MultiSink) RecordError(line RawLine, rec Record) {
	for _, s := range m {
		s.RecordError(line, rec)
	}
}

// Classifier splits lines into records.
type Classifier struct {
	errorSeverity string
	sink          ErrorSink
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithErrorSeverity changes the severity tag that is surfaced to the sink.
func WithErrorSeverity(tag string) ClassifierOption {
	return func(c *Classifier) {
		if tag != "" {
			c.errorSeverity = tag
		}
	}
}

// WithErrorSink sets where error-severity records are reported.
func WithErrorSink(sink ErrorSink) ClassifierOption {
	return func(c *Classifier) {
		c.sink = sink
	}
}

// NewClassifier creates a classifier. Without WithErrorSink, error records
// are classified but not reported anywhere.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{errorSeverity: DefaultErrorSeverity}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean strips the terminator and any trailing whitespace from a line.
func Clean(line string) RawLine {
	return RawLine(strings.TrimRightFunc(line, unicode.IsSpace))
}

// Classify parses one line. A line with fewer than MinFields fields yields a
// partial record holding what was present together with a
// *MalformedRecordError; callers are expected to keep the partial record.
func (c *Classifier) Classify(line string) (Record, error) {
	raw := Clean(line)
	fields := strings.SplitN(string(raw), Delimiter, MaxFields)

	rec := Record{
		Timestamp: ParseTimestamp(fields[FieldTimestamp]),
		Fields:    len(fields),
	}
	if len(fields) > FieldSubsystem {
		rec.Subsystem = fields[FieldSubsystem]
	}
	if len(fields) > FieldSeverity {
		rec.Severity = fields[FieldSeverity]
	}
	if len(fields) > FieldPayload {
		rec.Payload = fields[FieldPayload]
	}

	if rec.Fields < MinFields {
		return rec, &MalformedRecordError{Line: string(raw), Fields: rec.Fields}
	}

	if rec.Severity == c.errorSeverity && c.sink != nil {
		c.sink.RecordError(raw, rec)
	}
	return rec, nil
}
