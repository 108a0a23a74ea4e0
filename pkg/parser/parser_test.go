package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestReassemble(t *testing.T) {
	tests := []struct {
		name         string
		previous     string
		chunk        string
		wantLines    []string
		wantFragment string
	}{
		{
			name:      "single complete line",
			chunk:     "1.0,IMU,INFO,ok\n",
			wantLines: []string{"1.0,IMU,INFO,ok\n"},
		},
		{
			name:         "trailing fragment",
			chunk:        "a\nb\nc",
			wantLines:    []string{"a\n", "b\n"},
			wantFragment: "c",
		},
		{
			name:         "fragment completed",
			previous:     "1.0,IM",
			chunk:        "U,INFO,ok\n2.0",
			wantLines:    []string{"1.0,IMU,INFO,ok\n"},
			wantFragment: "2.0",
		},
		{
			name:         "no newline grows fragment",
			previous:     "ab",
			chunk:        "cd",
			wantFragment: "abcd",
		},
		{
			name:         "empty chunk keeps fragment",
			previous:     "pending",
			chunk:        "",
			wantFragment: "pending",
		},
		{
			name:      "lone terminator completes fragment",
			previous:  "x",
			chunk:     "\n",
			wantLines: []string{"x\n"},
		},
		{
			name:      "blank lines are lines",
			chunk:     "\n\n",
			wantLines: []string{"\n", "\n"},
		},
		{
			name:      "carriage return stays inside the line",
			chunk:     "a\r\nb\n",
			wantLines: []string{"a\r\n", "b\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, fragment := Reassemble(tt.previous, []byte(tt.chunk))
			if len(lines) != len(tt.wantLines) || (len(lines) > 0 && !reflect.DeepEqual(lines, tt.wantLines)) {
				t.Errorf("Reassemble() lines = %q, want %q", lines, tt.wantLines)
			}
			if fragment != tt.wantFragment {
				t.Errorf("Reassemble() fragment = %q, want %q", fragment, tt.wantFragment)
			}
			if strings.Contains(fragment, Terminator) {
				t.Errorf("fragment %q contains a terminator", fragment)
			}
		})
	}
}

func TestReassemble_ChunkBoundaryIndependence(t *testing.T) {
	stream := "0.1,IMU,INFO,boot\n0.2,MOTOR,ERROR,stall, left\nbad,IMU\n\n3.5,BATT,INFO,7.4V\npartial"
	whole, wholeFragment := Reassemble("", []byte(stream))

	for size := 1; size <= len(stream); size++ {
		r := NewReassembler()
		var got []string
		for start := 0; start < len(stream); start += size {
			end := start + size
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, r.Feed([]byte(stream[start:end]))...)
		}
		if !reflect.DeepEqual(got, whole) {
			t.Fatalf("chunk size %d: lines = %q, want %q", size, got, whole)
		}
		if r.Pending() != wholeFragment {
			t.Fatalf("chunk size %d: pending = %q, want %q", size, r.Pending(), wholeFragment)
		}
	}
}

func TestReassemble_SplitMultibyteRune(t *testing.T) {
	line := []byte("1.0,IMU,INFO,temp 21°C\n")
	cut := strings.Index(string(line), "°") + 1 // inside the two-byte sequence

	r := NewReassembler()
	if got := r.Feed(line[:cut]); len(got) != 0 {
		t.Fatalf("Feed() first half = %q, want no lines", got)
	}
	got := r.Feed(line[cut:])
	if len(got) != 1 || got[0] != string(line) {
		t.Errorf("Feed() = %q, want %q", got, string(line))
	}
}

func TestReassemble_InvalidUTF8Replaced(t *testing.T) {
	lines, _ := Reassemble("", []byte{'a', 0xff, 'b', '\n'})
	if len(lines) != 1 {
		t.Fatalf("Reassemble() returned %d lines, want 1", len(lines))
	}
	if lines[0] != "a�b\n" {
		t.Errorf("Reassemble() = %q, want replacement rune", lines[0])
	}
}

func TestReassembler_NoNewlineNeverCompletes(t *testing.T) {
	r := NewReassembler()
	for _, chunk := range []string{"abc", "def", ",", "ghi"} {
		if lines := r.Feed([]byte(chunk)); len(lines) != 0 {
			t.Fatalf("Feed(%q) = %q, want no lines", chunk, lines)
		}
	}
	if r.Pending() != "abcdef,ghi" {
		t.Errorf("Pending() = %q, want %q", r.Pending(), "abcdef,ghi")
	}
}
