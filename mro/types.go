// Copyright © 2024 The ELPS authors

package mro

import (
	"fmt"

	"github.com/luthersystems/perlmro/parser/token"
)

// Kind classifies a Callable.
type Kind uint8

const (
	SubDefinition Kind = iota
	SubDeclaration
	Constant
	Glob
)

func (k Kind) String() string {
	switch k {
	case SubDefinition:
		return "sub"
	case SubDeclaration:
		return "sub-declaration"
	case Constant:
		return "constant"
	case Glob:
		return "glob"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Callable is a symbol which may be the target of a method call.
type Callable struct {
	Namespace string
	Name      string
	Kind      Kind
	// Assignable is set on globs which are the target of an assignment,
	// like *name = sub {...}.
	Assignable bool            `json:",omitempty"`
	Source     *token.Location `json:",omitempty"`
}

// FullName returns the fully qualified name of c.
func (c Callable) FullName() string {
	return c.Namespace + Separator + c.Name
}

func (c Callable) String() string {
	if c.Source == nil {
		return fmt.Sprintf("%s %s", c.Kind, c.FullName())
	}
	return fmt.Sprintf("%s %s (%s)", c.Kind, c.FullName(), c.Source)
}

// Annotations are the properties of a declaration beyond its parents.
type Annotations struct {
	Deprecated bool
	// Algorithm is the linearization requested with a "use mro" pragma.
	Algorithm Algorithm
}

// Declaration is one textual declaration of a namespace.  A namespace may
// have any number of declarations.
type Declaration interface {
	NamespaceName() string
	// ParentNames returns the direct parents in declaration order.
	ParentNames() []string
	// IsImplicit reports whether the declaration was synthesized rather than
	// read from source.
	IsImplicit() bool
	Annotations() Annotations
}

// SymbolIndex is the source of declarations and callables consulted during
// linearization and resolution.  Every method must tolerate unknown names
// by returning nothing.
type SymbolIndex interface {
	// DeclarationsFor returns the declarations of namespace in a stable
	// order.
	DeclarationsFor(namespace string) []Declaration
	// CallablesFor returns the subs, constants and assignable globs with the
	// fully qualified name fqn.
	CallablesFor(fqn string) []Callable
	// GlobsFor returns the assignable typeglobs of namespace.
	GlobsFor(namespace string) []Callable
	// CallablesIn returns the subs and constants of namespace.
	CallablesIn(namespace string) []Callable
}
