package console

import (
	"reflect"
	"testing"

	"github.com/ccollicutt/mmconsole/pkg/config"
)

func TestComplete(t *testing.T) {
	c := New(config.DefaultConfig(), nil)

	tests := []struct {
		line string
		want []string
	}{
		{"", []string{"battery", "clear", "connect", "exit", "help", "log", "status"}},
		{"c", []string{"clear", "connect"}},
		{"con", []string{"connect"}},
		{"connect ", []string{"bluetooth", "serial", "tcp"}},
		{"connect s", []string{"serial"}},
		{"log ", []string{"all", "clear", "raw", "save"}},
		{"log s", []string{"save"}},
		{"log save ", nil},
		{"battery ", nil},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := c.Complete(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestAutoComplete(t *testing.T) {
	c := New(config.DefaultConfig(), nil)

	tests := []struct {
		name    string
		line    string
		pos     int
		key     rune
		want    string
		wantPos int
		wantOK  bool
	}{
		{"unique command", "bat", 3, '\t', "battery ", 8, true},
		{"common prefix", "c", 1, '\t', "c", 0, false},
		{"common prefix extends", "connect b", 9, '\t', "connect bluetooth ", 18, true},
		{"unique subcommand", "log c", 5, '\t', "log clear ", 10, true},
		{"not tab", "bat", 3, 'x', "", 0, false},
		{"no candidates", "zzz", 3, '\t', "", 0, false},
		{"keeps text after cursor", "bat x", 3, '\t', "battery  x", 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pos, ok := c.autoComplete(tt.line, tt.pos, tt.key)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want || pos != tt.wantPos {
				t.Errorf("autoComplete(%q, %d) = %q, %d; want %q, %d", tt.line, tt.pos, got, pos, tt.want, tt.wantPos)
			}
		})
	}
}

func TestCommonPrefix(t *testing.T) {
	if got := commonPrefix([]string{"clear", "connect"}); got != "c" {
		t.Errorf("commonPrefix() = %q, want c", got)
	}
	if got := commonPrefix([]string{"save"}); got != "save" {
		t.Errorf("commonPrefix() = %q, want save", got)
	}
}
