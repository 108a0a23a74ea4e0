package parser

import (
	"strconv"
	"strings"
)

// ParseTimestamp interprets the first record field. It never fails: a field
// that is not a float is kept as text with Numeric unset.
func ParseTimestamp(field string) Timestamp {
	ts := Timestamp{Text: field}
	value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return ts
	}
	ts.Seconds = value
	ts.Numeric = true
	return ts
}
