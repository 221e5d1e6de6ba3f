// Copyright © 2024 The ELPS authors

package parser

import (
	"github.com/luthersystems/perlmro/mro"
	"github.com/luthersystems/perlmro/parser/token"
)

// File is the set of declarations found in one source file.
type File struct {
	Path string
	// Namespaces are the package declarations of the file in source order.
	Namespaces []*Namespace
	// Callables are the subs, constants and globs of the file in source
	// order.
	Callables []mro.Callable
	// Problems are literals and heredocs left unterminated.
	Problems []*token.LocationError
}

// Namespace is one declaration of a package.  It implements
// mro.Declaration.
type Namespace struct {
	Name       string
	Parents    []string
	Implicit   bool
	Deprecated bool
	Algorithm  mro.Algorithm
	Source     *token.Location
	// ParentSources holds the location of each entry of Parents.
	ParentSources []*token.Location
}

var _ mro.Declaration = (*Namespace)(nil)

func (ns *Namespace) NamespaceName() string { return ns.Name }

func (ns *Namespace) ParentNames() []string { return ns.Parents }

func (ns *Namespace) IsImplicit() bool { return ns.Implicit }

func (ns *Namespace) Annotations() mro.Annotations {
	return mro.Annotations{
		Deprecated: ns.Deprecated,
		Algorithm:  ns.Algorithm,
	}
}

func (ns *Namespace) appendParents(names []string, locs []*token.Location) {
	ns.Parents = append(ns.Parents, names...)
	ns.ParentSources = append(ns.ParentSources, locs...)
}

func (ns *Namespace) setParents(names []string, locs []*token.Location) {
	ns.Parents = append([]string(nil), names...)
	ns.ParentSources = append([]*token.Location(nil), locs...)
}

func (ns *Namespace) prependParents(names []string, locs []*token.Location) {
	ns.Parents = append(append([]string(nil), names...), ns.Parents...)
	ns.ParentSources = append(append([]*token.Location(nil), locs...), ns.ParentSources...)
}

// Namespace returns the last declaration of name in f, or nil.
func (f *File) Namespace(name string) *Namespace {
	for i := len(f.Namespaces) - 1; i >= 0; i-- {
		if f.Namespaces[i].Name == name {
			return f.Namespaces[i]
		}
	}
	return nil
}
