// Copyright © 2024 The ELPS authors

package lint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/perlmro/mro"
	"github.com/luthersystems/perlmro/parser"
	"github.com/luthersystems/perlmro/parser/token"
)

// AnalyzerUnterminatedLiteral reports strings, regular expressions and
// heredocs which run to the end of the file.
var AnalyzerUnterminatedLiteral = &Analyzer{
	Name:     "unterminated-literal",
	Doc:      "Report literals and heredocs which are never closed.\n\nAn unterminated quote swallows the rest of the file, so every declaration after it is invisible to method resolution.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, problem := range pass.File.Problems {
			if !errors.Is(problem, parser.ErrUnterminated) {
				continue
			}
			pass.Reportf(problem.Source, "%v", problem.Err)
		}
		return nil
	},
}

// AnalyzerIsaCycle reports namespaces which inherit from themselves.
var AnalyzerIsaCycle = &Analyzer{
	Name:     "isa-cycle",
	Doc:      "Report namespaces which reach themselves through their parents.\n\nPerl refuses to load a recursive inheritance hierarchy.  Method resolution skips the repeated namespaces.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Session == nil {
			return nil
		}
		idx := passIndex{pass}
		for _, ns := range firstDeclarations(pass.File) {
			if path := cyclePath(idx, ns.Name); path != nil {
				pass.Report(Diagnostic{
					Pos:     PositionOf(ns.Source),
					Message: fmt.Sprintf("namespace %s inherits from itself", ns.Name),
				}, "inheritance path: "+strings.Join(path, " -> "))
			}
		}
		return nil
	},
}

// AnalyzerUnknownParent reports parents with no declaration in the
// workspace.
var AnalyzerUnknownParent = &Analyzer{
	Name:     "unknown-parent",
	Doc:      "Report parents which are not declared anywhere in the workspace.\n\nThe parent may come from a library outside the workspace roots.  Methods inherited from it cannot be resolved.",
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		if pass.Session == nil {
			return nil
		}
		for _, ns := range pass.File.Namespaces {
			eachParent(ns, func(parent string, loc *token.Location) {
				if len(pass.Declarations(parent)) == 0 {
					pass.Reportf(loc, "parent %s has no declaration", parent)
				}
			})
		}
		return nil
	},
}

// AnalyzerMultipleDefinitions reports namespaces declared in more than one
// file.
var AnalyzerMultipleDefinitions = &Analyzer{
	Name:     "multiple-definitions",
	Doc:      "Report namespaces declared with a package statement in several files.\n\nThe declarations are merged for method resolution, which is rarely intended outside of monkey patching.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Session == nil {
			return nil
		}
		for _, ns := range firstDeclarations(pass.File) {
			if ns.Implicit {
				continue
			}
			others := make(map[string]bool)
			for _, decl := range pass.Declarations(ns.Name) {
				other, ok := decl.(*parser.Namespace)
				if !ok || other.Implicit || other.Source == nil || other.Source.File == pass.File.Path {
					continue
				}
				others[other.Source.File] = true
			}
			if len(others) == 0 {
				continue
			}
			var notes []string
			for file := range others {
				notes = append(notes, "also declared in "+file)
			}
			sort.Strings(notes)
			pass.Report(Diagnostic{
				Pos:     PositionOf(ns.Source),
				Message: fmt.Sprintf("namespace %s is declared in %d files", ns.Name, len(others)+1),
			}, notes...)
		}
		return nil
	},
}

// AnalyzerDeprecatedParent reports parents annotated #@deprecated.
var AnalyzerDeprecatedParent = &Analyzer{
	Name:     "deprecated-parent",
	Doc:      "Report inheritance from a namespace annotated with #@deprecated.\n\nThe annotation is a comment immediately before the package statement.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		if pass.Session == nil {
			return nil
		}
		for _, ns := range pass.File.Namespaces {
			eachParent(ns, func(parent string, loc *token.Location) {
				for _, decl := range pass.Declarations(parent) {
					if !decl.Annotations().Deprecated {
						continue
					}
					d := Diagnostic{
						Pos:     PositionOf(loc),
						Message: fmt.Sprintf("parent %s is deprecated", parent),
					}
					if other, ok := decl.(*parser.Namespace); ok && other.Source != nil {
						pass.Report(d, "deprecated at "+other.Source.String())
					} else {
						pass.Report(d)
					}
					return
				}
			})
		}
		return nil
	},
}

// Declarations returns the declarations of name in the workspace with the
// declarations of the linted file replacing any indexed copy of it.
func (p *Pass) Declarations(name string) []mro.Declaration {
	name = mro.Canonical(name)
	var out []mro.Declaration
	if p.Session != nil {
		for _, decl := range p.Session.Index.DeclarationsFor(name) {
			if ns, ok := decl.(*parser.Namespace); ok && ns.Source != nil && ns.Source.File == p.File.Path {
				continue
			}
			out = append(out, decl)
		}
	}
	for _, ns := range p.File.Namespaces {
		if ns.Name == name {
			out = append(out, ns)
		}
	}
	return out
}

// passIndex presents the declarations visible to a pass as a symbol index.
type passIndex struct {
	pass *Pass
}

func (idx passIndex) DeclarationsFor(name string) []mro.Declaration {
	return idx.pass.Declarations(name)
}

func (idx passIndex) CallablesFor(fqn string) []mro.Callable {
	return idx.pass.Session.Index.CallablesFor(fqn)
}

func (idx passIndex) GlobsFor(namespace string) []mro.Callable {
	return idx.pass.Session.Index.GlobsFor(namespace)
}

func (idx passIndex) CallablesIn(namespace string) []mro.Callable {
	return idx.pass.Session.Index.CallablesIn(namespace)
}

// cyclePath returns an inheritance path from start back to itself, or nil.
func cyclePath(idx mro.SymbolIndex, start string) []string {
	visited := make(map[string]bool)
	var path []string
	var walk func(name string) bool
	walk = func(name string) bool {
		for _, parent := range mro.Parents(idx, name) {
			if parent == start {
				path = append(path, parent)
				return true
			}
			if visited[parent] {
				continue
			}
			visited[parent] = true
			path = append(path, parent)
			if walk(parent) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if walk(start) {
		return append([]string{start}, path...)
	}
	return nil
}

// firstDeclarations returns the first declaration of each namespace in f.
func firstDeclarations(f *parser.File) []*parser.Namespace {
	seen := make(map[string]bool)
	var out []*parser.Namespace
	for _, ns := range f.Namespaces {
		if !seen[ns.Name] {
			seen[ns.Name] = true
			out = append(out, ns)
		}
	}
	return out
}

func eachParent(ns *parser.Namespace, fn func(parent string, loc *token.Location)) {
	for i, parent := range ns.Parents {
		loc := ns.Source
		if i < len(ns.ParentSources) && ns.ParentSources[i] != nil {
			loc = ns.ParentSources[i]
		}
		fn(parent, loc)
	}
}

// AnalyzerNames returns the names of all default analyzers, sorted.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
