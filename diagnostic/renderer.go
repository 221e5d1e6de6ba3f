// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the column notes are wrapped at.
const DefaultWidth = 80

// tabWidth is the number of columns a tab occupies in a snippet.
const tabWidth = 4

// Renderer prints diagnostics.  The zero value reads sources from disk and
// colors terminal output.
type Renderer struct {
	Color ColorMode
	// Source returns the contents of file.  When nil files are read from
	// disk.
	Source func(file string) ([]byte, error)
	// Width is the column notes are wrapped at.  Zero means DefaultWidth.
	Width int
}

// Render writes d to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	_, err := io.WriteString(w, r.format(d, painter(r.Color.enabled(w))))
	return err
}

// RenderAll writes diags to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	p := painter(r.Color.enabled(w))
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = r.format(d, p)
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n"))
	return err
}

func (r *Renderer) format(d Diagnostic, p painter) string {
	var b strings.Builder
	label := d.Severity.String()
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	b.WriteString(p.paint(d.Severity.sgr(), label))
	b.WriteString(p.paint(sgrBold, ": "+d.Message))
	b.WriteByte('\n')

	gutter := 1
	for _, s := range d.Spans {
		if n := len(strconv.Itoa(s.Loc.Line)); n > gutter {
			gutter = n
		}
	}
	blank := strings.Repeat(" ", gutter)
	for _, s := range d.Spans {
		r.writeSpan(&b, s, blank, p, d.Severity)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "%s %s %s\n", blank, p.paint(sgrBoldBlue, "="), p.paint(sgrBold, "note:")+" "+r.wrap(note, len(blank)+9))
	}
	return b.String()
}

func (r *Renderer) writeSpan(b *strings.Builder, s Span, blank string, p painter, sev Severity) {
	loc := location(s)
	if loc == "" {
		return
	}
	fmt.Fprintf(b, "%s%s %s\n", blank, p.paint(sgrBoldBlue, "-->"), loc)
	src, ok := r.line(s.Loc.File, s.Loc.Line)
	if !ok {
		return
	}
	bar := p.paint(sgrBoldBlue, "|")
	num := strconv.Itoa(s.Loc.Line)
	num = strings.Repeat(" ", len(blank)-len(num)) + num

	runes := []rune(src)
	col := s.Loc.Col - 1
	if col < 0 {
		col = 0
	}
	if col > len(runes) {
		col = len(runes)
	}
	width := s.Width
	if width <= 0 {
		width = tokenWidth(string(runes[col:]))
	}
	offset := displayWidth(runes[:col])
	underline := strings.Repeat("^", width)
	if s.Label != "" {
		underline += " " + s.Label
	}

	fmt.Fprintf(b, "%s %s\n", blank, bar)
	fmt.Fprintf(b, "%s %s %s\n", p.paint(sgrBoldBlue, num), bar, strings.ReplaceAll(src, "\t", strings.Repeat(" ", tabWidth)))
	fmt.Fprintf(b, "%s %s %s%s\n", blank, bar, strings.Repeat(" ", offset), p.paint(sev.sgr(), underline))
	fmt.Fprintf(b, "%s %s\n", blank, bar)
}

// location formats the position of s, omitting unknown parts.
func location(s Span) string {
	switch {
	case s.Loc.Line <= 0:
		return s.Loc.File
	case s.Loc.Col <= 0:
		return fmt.Sprintf("%s:%d", s.Loc.File, s.Loc.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.Loc.File, s.Loc.Line, s.Loc.Col)
}

// line returns line n of file without its line terminator.
func (r *Renderer) line(file string, n int) (string, bool) {
	if file == "" || n <= 0 {
		return "", false
	}
	read := r.Source
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(file)
	if err != nil {
		return "", false
	}
	lines := bytes.Split(data, []byte("\n"))
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(string(lines[n-1]), "\r"), true
}

// wrap word wraps note so that continuation lines start below the first
// character of the note.
func (r *Renderer) wrap(note string, prefix int) string {
	width := r.Width
	if width <= 0 {
		width = DefaultWidth
	}
	if width-prefix < 20 {
		return note
	}
	first, rest, ok := strings.Cut(wordwrap.String(note, width-prefix), "\n")
	if !ok {
		return first
	}
	return first + "\n" + indent.String(rest, uint(prefix))
}

// tokenWidth returns the width in runes of the Perl token at the start of
// s: a quoted string, a variable or a possibly qualified name.  Anything
// else is one rune wide.
func tokenWidth(s string) int {
	if s == "" {
		return 1
	}
	r, size := utf8.DecodeRuneInString(s)
	switch {
	case r == '\'' || r == '"':
		if end := strings.IndexRune(s[size:], r); end >= 0 {
			return utf8.RuneCountInString(s[:size+end+size])
		}
		return utf8.RuneCountInString(s)
	case strings.ContainsRune("$@%&*", r):
		return 1 + nameWidth(s[size:])
	}
	if n := nameWidth(s); n > 0 {
		return n
	}
	return 1
}

// nameWidth returns the width of the identifier at the start of s.
// Package separators are part of the name.
func nameWidth(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			n++
			i += size
		case strings.HasPrefix(s[i:], "::") && n > 0:
			n += 2
			i += 2
		default:
			return n
		}
	}
	return n
}

func displayWidth(runes []rune) int {
	w := 0
	for _, r := range runes {
		if r == '\t' {
			w += tabWidth
		} else {
			w++
		}
	}
	return w
}
