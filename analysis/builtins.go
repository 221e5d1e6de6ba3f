// Copyright © 2024 The ELPS authors

package analysis

import "github.com/luthersystems/perlmro/mro"

// builtinDeclaration is a namespace which exists in every Perl program.
type builtinDeclaration struct {
	name string
}

func (d *builtinDeclaration) NamespaceName() string        { return d.name }
func (d *builtinDeclaration) ParentNames() []string        { return nil }
func (d *builtinDeclaration) IsImplicit() bool             { return true }
func (d *builtinDeclaration) Annotations() mro.Annotations { return mro.Annotations{} }

var builtinDeclarations = []*builtinDeclaration{
	{name: mro.Universal},
	{name: mro.Main},
	{name: "CORE"},
}

// builtinCallables are the methods every object inherits from UNIVERSAL.
var builtinCallables = []mro.Callable{
	{Namespace: mro.Universal, Name: "isa", Kind: mro.SubDefinition},
	{Namespace: mro.Universal, Name: "can", Kind: mro.SubDefinition},
	{Namespace: mro.Universal, Name: "DOES", Kind: mro.SubDefinition},
	{Namespace: mro.Universal, Name: "VERSION", Kind: mro.SubDefinition},
}

// IsBuiltin reports whether decl was supplied by the index rather than
// read from a file.
func IsBuiltin(decl mro.Declaration) bool {
	_, ok := decl.(*builtinDeclaration)
	return ok
}
