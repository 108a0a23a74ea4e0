package console

import (
	"sort"
	"strings"
)

// completeSubcommands returns the choices starting with text.
func completeSubcommands(text string, choices []string) []string {
	var out []string
	for _, choice := range choices {
		if strings.HasPrefix(choice, text) {
			out = append(out, choice)
		}
	}
	return out
}

// Complete returns candidates for the last word of line: command names for
// the first word, subcommands after "connect" or "log".
func (c *Console) Complete(line string) []string {
	fields := strings.Fields(line)
	trailingSpace := strings.HasSuffix(line, " ")

	switch {
	case len(fields) == 0:
		return commandNames("")
	case len(fields) == 1 && !trailingSpace:
		return commandNames(fields[0])
	}

	cmd, ok := lookup(fields[0])
	if !ok || cmd.complete == nil {
		return nil
	}
	switch {
	case len(fields) == 1:
		return completeSubcommands("", cmd.complete)
	case len(fields) == 2 && !trailingSpace:
		return completeSubcommands(fields[1], cmd.complete)
	default:
		return nil
	}
}

func commandNames(prefix string) []string {
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.name)
	}
	sort.Strings(names)
	return completeSubcommands(prefix, names)
}

// autoComplete extends the word before pos on tab. A single candidate is
// completed followed by a space; several are completed to their common
// prefix.
func (c *Console) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}

	head, tail := line[:pos], line[pos:]
	candidates := c.Complete(head)
	if len(candidates) == 0 {
		return "", 0, false
	}

	start := strings.LastIndex(head, " ") + 1
	word := head[start:]
	completion := commonPrefix(candidates)
	if len(candidates) == 1 {
		completion += " "
	}
	if completion == word {
		return "", 0, false
	}

	newHead := head[:start] + completion
	return newHead + tail, len(newHead), true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
