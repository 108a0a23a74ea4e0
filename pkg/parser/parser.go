package parser

import (
	"strings"
	"unicode/utf8"
)

// Terminator ends every complete line on the wire.
const Terminator = "\n"

// Reassemble appends chunk to the previous fragment and cuts the result into
// complete lines. Each returned line keeps its terminator. Whatever follows the
// last terminator becomes the new fragment, so a chunk without a newline only
// grows the fragment.
//
// The fragment holds undecoded bytes, which keeps a UTF-8 sequence split across
// two chunks intact. Complete lines with invalid UTF-8 get U+FFFD substitutes.
func Reassemble(previous string, chunk []byte) ([]string, string) {
	if len(chunk) == 0 {
		return nil, previous
	}

	combined := previous + string(chunk)
	cut := strings.LastIndex(combined, Terminator)
	if cut < 0 {
		return nil, combined
	}

	complete, fragment := combined[:cut+1], combined[cut+1:]
	lines := strings.SplitAfter(complete, Terminator)
	// SplitAfter leaves an empty element after the final terminator.
	lines = lines[:len(lines)-1]

	for i, line := range lines {
		if !utf8.ValidString(line) {
			lines[i] = strings.ToValidUTF8(line, string(utf8.RuneError))
		}
	}
	return lines, fragment
}

// Reassembler carries the pending fragment between chunks.
// It must be fed chunks in arrival order, one call per chunk.
type Reassembler struct {
	pending string
}

// NewReassembler creates a Reassembler with an empty fragment.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed consumes one chunk and returns the lines it completed.
func (r *Reassembler) Feed(chunk []byte) []string {
	lines, fragment := Reassemble(r.pending, chunk)
	r.pending = fragment
	return lines
}

// Pending returns the bytes received since the last terminator.
func (r *Reassembler) Pending() string {
	return r.pending
}
