// Copyright © 2018 The ELPS authors

package repl

import (
	"strings"

	"github.com/luthersystems/perlmro/analysis"
)

// namespaceCompleter implements readline.AutoCompleter.  The first word
// completes to a command and later words to indexed namespaces.
type namespaceCompleter struct {
	index *analysis.Index
}

func (c *namespaceCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to whitespace).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	first := strings.TrimSpace(string(line[:start])) == ""

	var candidates []string
	if first {
		candidates = matchPrefix(commandOrder, prefix)
	} else if prefix != "" {
		candidates = matchPrefix(c.index.Namespaces(), prefix)
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func matchPrefix(names []string, prefix string) []string {
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
