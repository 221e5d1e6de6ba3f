// Copyright © 2024 The ELPS authors

package repl

import (
	"errors"
	"io"

	"github.com/luthersystems/perlmro/diagnostic"
	"github.com/luthersystems/perlmro/mro"
)

// renderError renders a command error using the diagnostic renderer.
// Command input has no source file so only the message and notes are
// shown.
func renderError(w io.Writer, err error) {
	d := commandErrorToDiag(err)
	r := &diagnostic.Renderer{Color: diagnostic.ColorAuto}
	_ = r.Render(w, d)
}

func commandErrorToDiag(err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  err.Error(),
	}
	if errors.Is(err, mro.ErrCanceled) {
		d.Severity = diagnostic.SeverityWarning
		return d
	}
	d.Notes = append(d.Notes, "use help to list the available commands")
	return d
}
