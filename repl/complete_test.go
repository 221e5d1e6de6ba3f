// Copyright © 2018 The ELPS authors

package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceCompleter(t *testing.T) {
	c := &namespaceCompleter{index: diamondSession(t).Index}

	tests := []struct {
		line   string
		want   []string
		offset int
	}{
		{"re", []string{"solve", "load"}, 2},
		{"", []string{"mro", "super", "resolve", "variants", "namespaces", "reload", "help"}, 0},
		{"  va", []string{"riants"}, 2},
		{"mro C", []string{"", "ORE"}, 1},
		{"resolve D", []string{""}, 1},
		{"resolve D hel", nil, 0},
		{"mro ", nil, 0},
		{"zzz", nil, 0},
	}
	for _, test := range tests {
		candidates, offset := c.Do([]rune(test.line), len([]rune(test.line)))
		var got []string
		for _, r := range candidates {
			got = append(got, string(r))
		}
		assert.Equal(t, test.want, got, test.line)
		assert.Equal(t, test.offset, offset, test.line)
	}
}
