// Package parser turns the robot's raw telemetry byte stream into typed records.
//
// A Reassembler cuts arbitrarily chunked bytes into complete newline-terminated
// lines, and a Classifier splits each line into the fixed four-field record
// convention: timestamp, subsystem, severity, payload.
package parser

import (
	"encoding/json"
	"fmt"
	"math"
)

// Field positions of the record convention.
const (
	FieldTimestamp = iota
	FieldSubsystem
	FieldSeverity
	FieldPayload

	// MaxFields is the number of fields a line is split into. The payload
	// keeps any further delimiters.
	MaxFields = 4

	// MinFields is the number of fields a well-formed line must carry.
	MinFields = 3
)

// Delimiter separates the fields of a record line.
const Delimiter = ","

// DefaultErrorSeverity is the severity tag surfaced to the error sink.
const DefaultErrorSeverity = "ERROR"

// RawLine is one received line with its trailing whitespace stripped.
type RawLine string

// Timestamp is the first field of a record. Robots report seconds since boot
// as a float, but anything unparseable is kept verbatim.
type Timestamp struct {
	// Text is the field as received.
	Text string
	// Seconds is the parsed value, valid only when Numeric is true.
	Seconds float64
	// Numeric reports whether Text parsed as a float.
	Numeric bool
}

// String returns the numeric value when available, else the original text.
func (t Timestamp) String() string {
	if t.Numeric {
		return fmt.Sprintf("%g", t.Seconds)
	}
	return t.Text
}

// MarshalJSON encodes numeric timestamps as numbers and the rest as strings.
// NaN and infinities have no JSON number form and fall back to the text.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Numeric && !math.IsNaN(t.Seconds) && !math.IsInf(t.Seconds, 0) {
		return json.Marshal(t.Seconds)
	}
	return json.Marshal(t.Text)
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*t = ParseTimestamp(text)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp{Text: string(data), Seconds: seconds, Numeric: true}
	return nil
}

// Record is the classified form of a RawLine.
type Record struct {
	Timestamp Timestamp `json:"timestamp"`
	Subsystem string    `json:"subsystem"`
	Severity  string    `json:"severity"`
	Payload   string    `json:"payload"`

	// Fields is how many fields the line actually carried (1 to MaxFields).
	// Records with fewer than MinFields are partial.
	Fields int `json:"fields"`
}

// Partial reports whether the record was built from a malformed line.
func (r Record) Partial() bool {
	return r.Fields < MinFields
}

// Values returns the present fields in order, mirroring the line layout.
func (r Record) Values() []string {
	all := []string{r.Timestamp.String(), r.Subsystem, r.Severity, r.Payload}
	if r.Fields < len(all) {
		return all[:r.Fields]
	}
	return all
}

// MalformedRecordError reports a line with fewer than MinFields fields.
type MalformedRecordError struct {
	Line   string
	Fields int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %d field(s), want at least %d", e.Line, e.Fields, MinFields)
}
