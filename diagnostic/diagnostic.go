// Copyright © 2024 The ELPS authors

// Package diagnostic prints findings against Perl source the way rustc
// prints compiler errors: a header, the offending line with an underline,
// and trailing notes.
package diagnostic

import "github.com/luthersystems/perlmro/parser/token"

// Severity orders diagnostics from most to least serious.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	}
	return "unknown"
}

// sgr is the select graphic rendition used for the severity label.
func (s Severity) sgr() string {
	switch s {
	case SeverityError:
		return sgrBoldRed
	case SeverityWarning:
		return sgrBoldYellow
	}
	return sgrBoldCyan
}

// Span points a diagnostic at source text.
type Span struct {
	Loc token.Location
	// Width is the number of runes underlined.  Zero underlines the Perl
	// name, variable or quoted string starting at Loc.
	Width int
	Label string
}

// At returns a span covering the token starting at loc.
func At(loc *token.Location) Span {
	if loc == nil {
		return Span{}
	}
	return Span{Loc: *loc}
}

// Diagnostic is one finding.
type Diagnostic struct {
	Severity Severity
	// Code names the check which produced the diagnostic.  It is printed
	// in brackets after the severity.
	Code    string
	Message string
	Spans   []Span
	Notes   []string
}
