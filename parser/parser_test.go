// Copyright © 2018 The ELPS authors

package parser

import (
	"errors"
	"testing"

	"github.com/luthersystems/perlmro/mro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nsSummary struct {
	Name     string
	Parents  []string
	Implicit bool
}

func summarize(f *File) []nsSummary {
	var out []nsSummary
	for _, ns := range f.Namespaces {
		out = append(out, nsSummary{ns.Name, ns.Parents, ns.Implicit})
	}
	return out
}

func callableNames(f *File) []string {
	var out []string
	for _, c := range f.Callables {
		out = append(out, c.Kind.String()+" "+c.FullName())
	}
	return out
}

func TestParseParents(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []nsSummary
	}{
		{"use parent", `package Foo; use parent 'Bar';`, []nsSummary{
			{"Foo", []string{"Bar"}, false},
		}},
		{"use parent norequire", `package Foo; use parent -norequire, 'Bar', "Baz::Q";`, []nsSummary{
			{"Foo", []string{"Bar", "Baz::Q"}, false},
		}},
		{"use base qw", `package Foo; use base qw(A B);`, []nsSummary{
			{"Foo", []string{"A", "B"}, false},
		}},
		{"isa assignment replaces", "package Foo;\nuse parent 'X';\nour @ISA = ('A', 'B');\n", []nsSummary{
			{"Foo", []string{"A", "B"}, false},
		}},
		{"push and unshift", "package Foo;\n@ISA = qw(B);\npush @ISA, 'C';\nunshift(@ISA, 'A');\n", []nsSummary{
			{"Foo", []string{"A", "B", "C"}, false},
		}},
		{"qualified isa", "package Foo;\n@Bar::ISA = ('Foo');\n", []nsSummary{
			{"Foo", nil, false},
			{"Bar", []string{"Foo"}, true},
		}},
		{"moose", "package Foo;\nuse Moose;\n", []nsSummary{
			{"Foo", []string{"Moose::Object"}, false},
		}},
		{"moose extends", "package Foo;\nuse Moose;\nextends 'Bar', 'Baz';\nwith 'Role';\n", []nsSummary{
			{"Foo", []string{"Bar", "Baz", "Role"}, false},
		}},
		{"mojo base", "package Foo;\nuse Mojo::Base -base;\npackage Bar;\nuse Mojo::Base 'Foo', -signatures;\n", []nsSummary{
			{"Foo", []string{"Mojo::Base"}, false},
			{"Bar", []string{"Foo"}, false},
		}},
		{"mojo strict", "package Foo;\nuse Mojo::Base -strict;\n", []nsSummary{
			{"Foo", nil, false},
		}},
		{"old style separator", `package Foo; use parent "Bar'Baz";`, []nsSummary{
			{"Foo", []string{"Bar::Baz"}, false},
		}},
		{"interpolated names skipped", `package Foo; use parent "Bar::$x", 'Ok';`, []nsSummary{
			{"Foo", []string{"Ok"}, false},
		}},
		{"implicit main", `use parent 'Base';`, []nsSummary{
			{"main", []string{"Base"}, true},
		}},
		{"method named extends", "package Foo;\n$obj->extends('Bar');\nmy %h = (with => 'x');\n", []nsSummary{
			{"Foo", nil, false},
		}},
		{"options hash skipped", "package Foo;\nwith 'Role' => { -excludes => 'bar' };\n", []nsSummary{
			{"Foo", []string{"Role"}, false},
		}},
		{"strings in pod ignored", "package Foo;\n\n=pod\n\npackage Nope;\n\n=cut\n\nuse parent 'A';\n", []nsSummary{
			{"Foo", []string{"A"}, false},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := Parse("test.pm", []byte(test.source))
			assert.Equal(t, test.want, summarize(f))
			assert.Empty(t, f.Problems)
		})
	}
}

func TestParsePackageScopes(t *testing.T) {
	src := `
package Outer 1.02;
sub a {}
package Inner {
	sub b {}
	{
		package Nested;
		sub c {}
		package Nested2;
		sub d {}
	}
	sub e {}
}
sub f {}
{
	package Block;
}
sub g {}
`
	f := Parse("scopes.pm", []byte(src))
	assert.Equal(t, []string{"Outer", "Inner", "Nested", "Nested2", "Block"}, namespaceNames(f))
	assert.Equal(t, []string{
		"sub Outer::a",
		"sub Inner::b",
		"sub Nested::c",
		"sub Nested2::d",
		"sub Inner::e",
		"sub Outer::f",
		"sub Outer::g",
	}, callableNames(f))
}

func namespaceNames(f *File) []string {
	var out []string
	for _, ns := range f.Namespaces {
		out = append(out, ns.Name)
	}
	return out
}

func TestParseCallables(t *testing.T) {
	src := `
sub top { 1 }
package Foo;
sub new { my $class = shift; return bless {}, $class }
sub forward;
sub proto($$) { }
sub attr :lvalue { }
sub Other::qualified { }
sub { "anonymous" };
use constant DEBUG => 0;
use constant 'QUOTED', 1;
use constant {
	ONE => 1,
	'TWO' => [2, 3],
	THREE => { nested => 1 },
};
*alias = \&new;
*Bar::exported = sub { };
*{"Foo::dynamic"} = sub { };
*{"Foo::$name"} = sub { };
local *STDOUT;
my $x = { sub => 1 };
$obj->sub;
`
	f := Parse("Foo.pm", []byte(src))
	assert.Equal(t, []string{
		"sub main::top",
		"sub Foo::new",
		"sub-declaration Foo::forward",
		"sub Foo::proto",
		"sub Foo::attr",
		"sub Other::qualified",
		"constant Foo::DEBUG",
		"constant Foo::QUOTED",
		"constant Foo::ONE",
		"constant Foo::TWO",
		"constant Foo::THREE",
		"glob Foo::alias",
		"glob Bar::exported",
		"glob Foo::dynamic",
	}, callableNames(f))
	for _, c := range f.Callables {
		assert.Equal(t, c.Kind == mro.Glob, c.Assignable, c.FullName())
		assert.NotNil(t, c.Source, c.FullName())
	}
	require.Len(t, f.Namespaces, 2)
	assert.Equal(t, "main", f.Namespaces[0].Name)
	assert.True(t, f.Namespaces[0].Implicit)
	assert.Equal(t, "Foo", f.Namespaces[1].Name)
}

func TestParseAnnotations(t *testing.T) {
	src := `
# Old and busted.
#@deprecated
package Old;
use mro 'c3';
use parent 'Base';

package New;
use mro "dfs";
`
	f := Parse("ann.pm", []byte(src))
	require.Len(t, f.Namespaces, 2)
	old, nu := f.Namespaces[0], f.Namespaces[1]
	assert.True(t, old.Deprecated)
	assert.Equal(t, mro.C3, old.Annotations().Algorithm)
	assert.False(t, nu.Deprecated)
	assert.Equal(t, mro.DFS, nu.Annotations().Algorithm)
}

func TestParseLocations(t *testing.T) {
	f := Parse("lib/Foo.pm", []byte("package Foo;\nuse parent\n  'Bar';\nsub baz {}\n"))
	require.Len(t, f.Namespaces, 1)
	ns := f.Namespaces[0]
	assert.Equal(t, "lib/Foo.pm:1:9", ns.Source.String())
	require.Len(t, ns.ParentSources, 1)
	assert.Equal(t, 3, ns.ParentSources[0].Line)
	require.Len(t, f.Callables, 1)
	assert.Equal(t, 4, f.Callables[0].Source.Line)
}

func TestParseUnterminated(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"string", "package Foo;\nmy $x = 'abc", "unterminated literal"},
		{"heredoc", "package Foo;\nprint <<END;\nabc\n", "unterminated heredoc"},
		{"substitution", "package Foo;\n$x =~ s{a}{b", "unterminated literal"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := Parse("bad.pm", []byte(test.source))
			require.NotEmpty(t, f.Problems)
			assert.True(t, errors.Is(f.Problems[0], ErrUnterminated))
			assert.Contains(t, f.Problems[0].Error(), test.want)
			// Declarations before the problem survive.
			assert.Equal(t, []string{"Foo"}, namespaceNames(f))
		})
	}
}

func TestParseFileNamespace(t *testing.T) {
	f := Parse("x.pm", []byte("package A;\npackage B;\npackage A;\nuse parent 'C';\n"))
	a := f.Namespace("A")
	require.NotNil(t, a)
	assert.Equal(t, []string{"C"}, a.Parents)
	assert.Nil(t, f.Namespace("D"))
}
