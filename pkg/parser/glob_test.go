package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCapture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("1.0,IMU,INFO,ok\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExpandCaptures_SingleFile(t *testing.T) {
	file := writeCapture(t, t.TempDir(), "run.cap")

	result, err := ExpandCaptures([]string{file})
	if err != nil {
		t.Fatalf("ExpandCaptures() error = %v", err)
	}
	if len(result) != 1 || result[0] != file {
		t.Errorf("ExpandCaptures() = %v, want [%s]", result, file)
	}
}

func TestExpandCaptures_GlobPattern(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.cap", "b.cap", "c.txt"} {
		writeCapture(t, dir, f)
	}

	result, err := ExpandCaptures([]string{filepath.Join(dir, "*.cap")})
	if err != nil {
		t.Fatalf("ExpandCaptures() error = %v", err)
	}
	if len(result) != 2 {
		t.Errorf("ExpandCaptures() returned %d files, want 2", len(result))
	}
}

func TestExpandCaptures_NoMatch(t *testing.T) {
	pattern := filepath.Join(t.TempDir(), "*.nonexistent")

	if _, err := ExpandCaptures([]string{pattern}); err == nil {
		t.Error("ExpandCaptures() expected error for pattern matching nothing")
	}
}

func TestExpandCaptures_Deduplication(t *testing.T) {
	dir := t.TempDir()
	file := writeCapture(t, dir, "run.cap")

	result, err := ExpandCaptures([]string{file, filepath.Join(dir, "*.cap")})
	if err != nil {
		t.Fatalf("ExpandCaptures() error = %v", err)
	}
	if len(result) != 1 {
		t.Errorf("ExpandCaptures() returned %d files, want 1 (deduplicated)", len(result))
	}
}

func TestExpandCaptures_InvalidPattern(t *testing.T) {
	if _, err := ExpandCaptures([]string{"[invalid"}); err == nil {
		t.Error("ExpandCaptures() expected error for invalid pattern")
	}
}

func TestExpandCaptures_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"c.cap", "a.cap", "b.cap"} {
		writeCapture(t, dir, f)
	}

	result, err := ExpandCaptures([]string{filepath.Join(dir, "*.cap")})
	if err != nil {
		t.Fatalf("ExpandCaptures() error = %v", err)
	}
	for i := 1; i < len(result); i++ {
		if result[i-1] > result[i] {
			t.Errorf("ExpandCaptures() result not sorted: %v", result)
			break
		}
	}
}

func TestExpandCaptures_EmptyInput(t *testing.T) {
	result, err := ExpandCaptures([]string{})
	if err != nil {
		t.Fatalf("ExpandCaptures() error = %v", err)
	}
	if len(result) != 0 {
		t.Errorf("ExpandCaptures([]) = %v, want empty", result)
	}
}
