// Copyright © 2024 The ELPS authors

// Package lint provides static analysis for Perl class hierarchies.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives the declarations of a file and reports diagnostics.  Checks
// which need the rest of the workspace read it through an analysis.Session
// and are no-ops without one.
package lint

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/luthersystems/perlmro/analysis"
	"github.com/luthersystems/perlmro/parser"
	"github.com/luthersystems/perlmro/parser/lexer"
	"github.com/luthersystems/perlmro/parser/token"
)

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.  The zero value encodes as
// "warning", the default severity of an analyzer.
func (s Severity) MarshalText() ([]byte, error) {
	if s == severityUnset {
		s = SeverityWarning
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		if string(text) == sev.String() {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity: %q", text)
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "isa-cycle").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// File holds the declarations of the file.
	File *parser.File

	// Tokens are the lexed tokens of the file, ending with EOF.
	Tokens []*token.Token

	// Session holds the workspace index, if available.  Workspace
	// analyzers should check for nil and return early.
	Session *analysis.Session

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a finding.  Notes are appended to those of d.
func (p *Pass) Report(d Diagnostic, notes ...string) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	d.Notes = append(d.Notes, notes...)
	p.diagnostics = append(p.diagnostics, d)
}

// Reportf is a convenience for reporting a diagnostic at a position.
func (p *Pass) Reportf(source *token.Location, format string, args ...interface{}) {
	d := Diagnostic{
		Message: fmt.Sprintf(format, args...),
	}
	if source != nil {
		d.Pos = PositionOf(source)
	}
	p.Report(d)
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// PositionOf converts a token location.
func PositionOf(loc *token.Location) Position {
	return Position{File: loc.File, Line: loc.Line, Col: loc.Col}
}

// String returns the position in file:line format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line: message (analyzer)
// with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer
}

// LintFile analyzes a single source file and returns all diagnostics.
// Workspace analyzers are no-ops because no session is provided.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	return l.LintFileWithSession(source, filename, nil)
}

// LintFileWithSession analyzes a source file against the workspace held by
// session, which may be nil.  The file need not be in the session index.
func (l *Linter) LintFileWithSession(source []byte, filename string, session *analysis.Session) ([]Diagnostic, error) {
	toks := lexer.Tokenize(filename, source)
	file := parser.ParseTokens(filename, toks)

	silenced := collectSuppressions(toks)
	var all []Diagnostic
	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer: analyzer,
			Filename: filename,
			File:     file,
			Tokens:   toks,
			Session:  session,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		for _, d := range pass.diagnostics {
			if d.Pos.File == "" {
				d.Pos.File = filename
			}
			if d.Pos.File != filename || !silenced.silences(d) {
				all = append(all, d)
			}
		}
	}
	SortDiagnostics(all)
	return all, nil
}

// SortDiagnostics orders diagnostics by file, line and column.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(
			strings.Compare(a.Pos.File, b.Pos.File),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Col, b.Pos.Col),
		)
	})
}

// nolintPattern matches "# nolint" and "# nolint:check,check" comments.
var nolintPattern = regexp.MustCompile(`^#\s*nolint(?::([\w,-]+))?(?:\s|$)`)

// suppressions maps a line to the checks silenced on it.  A nil set
// silences every check.
type suppressions map[int]map[string]bool

func collectSuppressions(toks []*token.Token) suppressions {
	s := make(suppressions)
	for _, tok := range toks {
		if tok.Type != token.COMMENT || tok.Source == nil {
			continue
		}
		m := nolintPattern.FindStringSubmatch(tok.Text)
		if m == nil {
			continue
		}
		if m[1] == "" {
			s[tok.Source.Line] = nil
			continue
		}
		checks := make(map[string]bool)
		for _, name := range strings.Split(m[1], ",") {
			checks[name] = true
		}
		s[tok.Source.Line] = checks
	}
	return s
}

func (s suppressions) silences(d Diagnostic) bool {
	checks, ok := s[d.Pos.Line]
	return ok && (checks == nil || checks[d.Analyzer])
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUnterminatedLiteral,
		AnalyzerIsaCycle,
		AnalyzerUnknownParent,
		AnalyzerMultipleDefinitions,
		AnalyzerDeprecatedParent,
	}
}

// SelectAnalyzers returns the default analyzers named in names, in default
// order.  It fails on the first unknown name.
func SelectAnalyzers(names []string) ([]*Analyzer, error) {
	selected := make(map[string]bool)
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			selected[name] = true
		}
	}
	var out []*Analyzer
	for _, a := range DefaultAnalyzers() {
		if selected[a.Name] {
			out = append(out, a)
			delete(selected, a.Name)
		}
	}
	for _, name := range names {
		if selected[strings.TrimSpace(name)] {
			return nil, fmt.Errorf("unknown check: %s", strings.TrimSpace(name))
		}
	}
	return out, nil
}
