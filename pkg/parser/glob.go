package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExpandCaptures expands capture file paths and glob patterns into a sorted,
// deduplicated list of existing files. A pattern that matches nothing is only
// accepted when it names an existing file literally.
func ExpandCaptures(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no capture files match %q", pattern)
			}
			add(pattern)
			continue
		}

		for _, match := range matches {
			add(match)
		}
	}

	sort.Strings(result)
	return result, nil
}
