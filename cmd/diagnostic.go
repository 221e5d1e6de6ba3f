// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"
	"os"

	"github.com/luthersystems/perlmro/diagnostic"
	lintpkg "github.com/luthersystems/perlmro/lint"
	"github.com/luthersystems/perlmro/parser/token"
)

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityWarning,
		Code:     ld.Analyzer,
		Message:  ld.Message,
	}
	switch ld.Severity {
	case lintpkg.SeverityError:
		d.Severity = diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		d.Severity = diagnostic.SeverityNote
	}
	if ld.Pos.Line > 0 {
		d.Spans = append(d.Spans, diagnostic.Span{
			Loc: token.Location{File: ld.Pos.File, Line: ld.Pos.Line, Col: ld.Pos.Col},
		})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	d.Notes = append(d.Notes, "to suppress: add \"# nolint:"+ld.Analyzer+"\" as a comment on this line")
	return d
}

// renderLintDiagnostics renders lint diagnostics to w.  Sources missing
// from disk are looked up in sources, which holds stdin.
func renderLintDiagnostics(w io.Writer, mode diagnostic.ColorMode, sources map[string][]byte, diags []lintpkg.Diagnostic) error {
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	r := &diagnostic.Renderer{
		Color: mode,
		Source: func(file string) ([]byte, error) {
			if src, ok := sources[file]; ok {
				return src, nil
			}
			return os.ReadFile(file) //nolint:gosec // CLI tool reads user-specified files
		},
	}
	return r.RenderAll(w, ds)
}
