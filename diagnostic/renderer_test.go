// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/luthersystems/perlmro/parser/token"
)

func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		Source: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, errors.New("not found: " + name)
			}
			return []byte(s), nil
		},
	}
}

func span(file string, line, col int) Span {
	return Span{Loc: token.Location{File: file, Line: line, Col: col}}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRenderSnippet(t *testing.T) {
	r := testRenderer(map[string]string{
		"lib/Foo.pm": "package Foo;\nuse parent -norequire, 'Foo';\n",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Code:     "isa-cycle",
		Message:  "namespace Foo inherits from itself",
		Spans:    []Span{span("lib/Foo.pm", 1, 9)},
	})
	want := `warning[isa-cycle]: namespace Foo inherits from itself
 --> lib/Foo.pm:1:9
  |
1 | package Foo;
  |         ^^^
  |
`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderUnderline(t *testing.T) {
	tests := []struct {
		name string
		src  string
		span Span
		want string
	}{
		{"quoted", "use parent 'Mo::Base';", span("a.pm", 1, 12), "  |            ^^^^^^^^^^\n"},
		{"qualified", "our @ISA = (My::Base);", span("a.pm", 1, 13), "  |             ^^^^^^^^\n"},
		{"variable", "push @ISA, 'X';", span("a.pm", 1, 6), "  |      ^^^^\n"},
		{"punctuation", "my $s = ;", span("a.pm", 1, 9), "  |         ^\n"},
		{"tab", "\tuse base 'X';", span("a.pm", 1, 11), "  |              ^^^\n"},
		{"explicit", "my $s = 'abc", Span{Loc: token.Location{File: "a.pm", Line: 1, Col: 9}, Width: 4, Label: "starts here"}, "  |         ^^^^ starts here\n"},
		{"past end", "1;", span("a.pm", 1, 40), "  |   ^\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := testRenderer(map[string]string{"a.pm": tc.src})
			got := render(t, r, Diagnostic{Message: "m", Spans: []Span{tc.span}})
			assertContains(t, got, tc.want)
		})
	}
}

func TestRenderNoSource(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "unterminated literal",
		Spans:    []Span{span("<stdin>", 5, 3)},
	})
	if want := "error: unterminated literal\n --> <stdin>:5:3\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderLocation(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Message: "m",
		Spans: []Span{
			span("a.pm", 0, 0),
			span("b.pm", 3, 0),
			{},
		},
	})
	assertContains(t, got, "--> a.pm\n")
	assertContains(t, got, "--> b.pm:3\n")
	if strings.Count(got, "-->") != 2 {
		t.Errorf("empty span rendered:\n%s", got)
	}
}

func TestRenderGutterWidth(t *testing.T) {
	src := strings.Repeat("\n", 99) + "package Foo;\n"
	r := testRenderer(map[string]string{"a.pm": src})
	got := render(t, r, Diagnostic{
		Severity: SeverityNote,
		Message:  "m",
		Spans:    []Span{span("a.pm", 100, 9)},
		Notes:    []string{"n"},
	})
	assertContains(t, got, "\n   --> a.pm:100:9\n")
	assertContains(t, got, "\n100 | package Foo;\n")
	assertContains(t, got, "\n    |         ^^^\n")
	assertContains(t, got, "\n    = note: n\n")
}

func TestRenderWrapsNotes(t *testing.T) {
	r := testRenderer(nil)
	r.Width = 40
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  "namespace Foo is declared in 3 files",
		Notes:    []string{"also declared in lib/Foo.pm lib/Other.pm t/lib/Foo.pm"},
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected the note to wrap:\n%s", got)
	}
	for _, line := range lines[1:] {
		if len(line) > 40 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if !strings.HasPrefix(lines[1], "  = note: also") {
		t.Errorf("note prefix: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], strings.Repeat(" ", 10)) {
		t.Errorf("continuation not aligned: %q", lines[2])
	}
}

func TestRenderAll(t *testing.T) {
	r := testRenderer(map[string]string{
		"a.pl": "use parent 'X';\nuse parent 'Y';",
	})
	var buf bytes.Buffer
	err := r.RenderAll(&buf, []Diagnostic{
		{Severity: SeverityNote, Message: "parent X has no declaration", Spans: []Span{span("a.pl", 1, 12)}},
		{Severity: SeverityNote, Message: "parent Y has no declaration", Spans: []Span{span("a.pl", 2, 12)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(buf.String(), "\n\n")
	if len(parts) != 2 {
		t.Fatalf("expected two blocks, got:\n%s", buf.String())
	}
	assertContains(t, parts[0], "parent X has no declaration")
	assertContains(t, parts[1], "parent Y has no declaration")
	assertContains(t, parts[1], "^^^\n")
}

func TestRenderColor(t *testing.T) {
	r := testRenderer(nil)
	r.Color = ColorAlways
	got := render(t, r, Diagnostic{Severity: SeverityError, Code: "unterminated-literal", Message: "m"})
	assertContains(t, got, "\x1b[1;31merror[unterminated-literal]\x1b[0m")

	r.Color = ColorAuto
	got = render(t, r, Diagnostic{Severity: SeverityError, Message: "m"})
	assertNotContains(t, got, "\x1b[")
}

func TestParseColorMode(t *testing.T) {
	for _, s := range []string{"", "auto", "always", "never"} {
		m, err := ParseColorMode(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if s != "" && m.String() != s {
			t.Errorf("%q round trips as %q", s, m)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("expected an error")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output does not contain %q:\n%s", want, got)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, got)
	}
}
