// Copyright © 2024 The ELPS authors

package mro

import "strings"

const (
	// Universal is the implicit root of every class hierarchy.
	Universal = "UNIVERSAL"
	// Main is the namespace of code outside any package statement.
	Main = "main"
	// Autoload is the fallback method invoked when dispatch finds nothing.
	Autoload = "AUTOLOAD"
	// Separator separates namespace components.
	Separator = "::"
)

// Canonical returns the canonical form of a namespace name.  Old-style '
// separators become ::, leading :: and main:: prefixes and trailing ::
// are removed.  The canonical form of the empty name is main.
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsRune(name, '\'') {
		name = strings.ReplaceAll(name, "'", Separator)
	}
	for {
		switch {
		case strings.HasPrefix(name, Separator):
			name = name[len(Separator):]
			continue
		case strings.HasPrefix(name, Main+Separator):
			name = name[len(Main)+len(Separator):]
			continue
		}
		break
	}
	name = strings.TrimRight(name, ":")
	if name == "" {
		return Main
	}
	return name
}

// Join returns the fully qualified name of a symbol in namespace.
func Join(namespace, name string) string {
	return Canonical(namespace) + Separator + name
}

// Split separates a fully qualified name into its namespace and local name.
// An unqualified name belongs to main.
func Split(fqn string) (namespace, name string) {
	i := strings.LastIndex(fqn, Separator)
	if i < 0 {
		return Main, fqn
	}
	return Canonical(fqn[:i]), fqn[i+len(Separator):]
}
