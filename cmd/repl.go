// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/perlmro/repl"
	"github.com/spf13/cobra"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell over the workspace index",
		Long: `Start an interactive shell over the workspace index.

The workspace is indexed once on startup.  Line editing, tab completion of
commands and namespaces, and command history are supported via readline.
Use Ctrl-D to exit.

Example session:
  perlmro> mro My::Class
  My::Class -> My::Base -> UNIVERSAL
  perlmro> resolve My::Class new
  sub My::Base::new (lib/My/Base.pm:4:5)
  perlmro> namespaces My::
  My::Base
  My::Class
  perlmro> reload
  indexed 42 files, generation 2
  perlmro> help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := cfg.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.release()
			prompt := filepath.Base(os.Args[0]) + "> "
			return repl.RunRepl(cmd.Context(), ws.Session, prompt, repl.WithReload(ws.scan))
		},
	}
}

func init() {
	rootCmd.AddCommand(ReplCommand())
}
