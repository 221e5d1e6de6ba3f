// Copyright © 2024 The ELPS authors

// Package perltest contains helpers for testing code which indexes Perl
// source.
package perltest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Diamond is a class hierarchy in which D inherits from B and C, both of
// which inherit from A.  A and C define hello.
var Diamond = map[string]string{
	"lib/A.pm": `package A;
sub new { bless {}, shift }
sub hello { "A" }
1;
`,
	"lib/B.pm": `package B;
use parent -norequire, 'A';
1;
`,
	"lib/C.pm": `package C;
use parent -norequire, 'A';
sub hello { "C" }
1;
`,
	"lib/D.pm": `package D;
use parent -norequire, qw(B C);
1;
`,
}

// WriteTree writes files, keyed by slash separated relative path, below
// dir.  It returns the absolute paths written in sorted order.
func WriteTree(t testing.TB, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
