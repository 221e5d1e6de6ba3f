// Copyright © 2024 The ELPS authors

package mro

import "sync/atomic"

type fakeDecl struct {
	name     string
	parents  []string
	implicit bool
	ann      Annotations
}

func (d *fakeDecl) NamespaceName() string    { return d.name }
func (d *fakeDecl) ParentNames() []string    { return d.parents }
func (d *fakeDecl) IsImplicit() bool         { return d.implicit }
func (d *fakeDecl) Annotations() Annotations { return d.ann }

// fakeIndex is an in-memory SymbolIndex which counts declaration lookups.
type fakeIndex struct {
	decls     map[string][]Declaration
	callables []Callable
	lookups   atomic.Int64
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{decls: make(map[string][]Declaration)}
}

func (f *fakeIndex) declare(name string, parents ...string) *fakeIndex {
	f.decls[name] = append(f.decls[name], &fakeDecl{name: name, parents: parents})
	return f
}

func (f *fakeIndex) declareC3(name string, parents ...string) *fakeIndex {
	f.decls[name] = append(f.decls[name], &fakeDecl{
		name:    name,
		parents: parents,
		ann:     Annotations{Algorithm: C3},
	})
	return f
}

func (f *fakeIndex) define(ns, name string, kind Kind) *fakeIndex {
	f.callables = append(f.callables, Callable{
		Namespace:  ns,
		Name:       name,
		Kind:       kind,
		Assignable: kind == Glob,
	})
	return f
}

func (f *fakeIndex) DeclarationsFor(namespace string) []Declaration {
	f.lookups.Add(1)
	return f.decls[namespace]
}

func (f *fakeIndex) CallablesFor(fqn string) []Callable {
	var out []Callable
	for _, c := range f.callables {
		if c.FullName() == fqn {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeIndex) GlobsFor(namespace string) []Callable {
	var out []Callable
	for _, c := range f.callables {
		if c.Namespace == namespace && c.Kind == Glob {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeIndex) CallablesIn(namespace string) []Callable {
	var out []Callable
	for _, c := range f.callables {
		if c.Namespace == namespace && c.Kind != Glob {
			out = append(out, c)
		}
	}
	return out
}
