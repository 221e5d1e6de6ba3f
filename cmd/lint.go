// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthersystems/perlmro/diagnostic"
	"github.com/luthersystems/perlmro/lint"
	"github.com/spf13/cobra"
)

// LintCommand creates the "lint" cobra command.
func LintCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		lintJSON    bool
		lintChecks  string
		lintListAll bool
	)
	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Check Perl class hierarchies for likely mistakes",
		Long: `Check the class hierarchies declared in Perl source files.

Each check is an independent analyzer.  Checks which need the rest of the
workspace, like isa-cycle and unknown-parent, read the index built from the
--root directories, with the linted file replacing any indexed copy.

With no files, every indexed file is checked.  A path ending in "/..." is
expanded to every .pm, .pl and .t file below it.  Use "-" to read stdin.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  use parent -norequire, 'Vendor::Base'; # nolint:unknown-parent

To suppress all checks on a line:
  use parent -norequire, 'Vendor::Base'; # nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  perlmro lint lib/My/Class.pm                    # Lint a single file
  perlmro lint ./lib/...                          # Lint a directory tree
  perlmro lint --json lib/My/Class.pm             # Output diagnostics as JSON
  perlmro lint --checks=isa-cycle ./...           # Run only specific checks
  perlmro lint --list                             # List available checks
  perlmro lint --exclude='t' ./...                # Exclude a directory
  cat Class.pm | perlmro lint -                   # Lint from stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if lintListAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(out, name) //nolint:errcheck // best-effort output
				}
				return nil
			}

			mode, err := diagnostic.ParseColorMode(colorFlag)
			if err != nil {
				return err
			}
			analyzers := lint.DefaultAnalyzers()
			if lintChecks != "" {
				if analyzers, err = lint.SelectAnalyzers(strings.Split(lintChecks, ",")); err != nil {
					return err
				}
			}
			l := &lint.Linter{Analyzers: analyzers}

			ws, err := cfg.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.release()

			var diags []lint.Diagnostic
			sources := make(map[string][]byte)
			switch {
			case len(args) == 1 && args[0] == "-":
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				sources["<stdin>"] = src
				if diags, err = l.LintFileWithSession(src, "<stdin>", ws.Session); err != nil {
					return err
				}
			case len(args) == 0:
				for _, path := range ws.Index.Files() {
					found, err := lintFile(l, ws, path, displayPath(path))
					if err != nil {
						return err
					}
					diags = append(diags, found...)
				}
			default:
				expanded, err := expandArgs(args, ws.settings.Exclude)
				if err != nil {
					return err
				}
				for _, path := range expanded {
					abs, err := filepath.Abs(path)
					if err != nil {
						return err
					}
					found, err := lintFile(l, ws, abs, path)
					if err != nil {
						return err
					}
					diags = append(diags, found...)
				}
			}

			if len(diags) == 0 {
				return nil
			}
			if lintJSON {
				if err := lint.FormatJSON(out, diags); err != nil {
					return err
				}
			} else if err := renderLintDiagnostics(cmd.ErrOrStderr(), mode, sources, diags); err != nil {
				return err
			}
			return &ExitError{Code: 1}
		},
	}

	cmd.Flags().BoolVar(&lintJSON, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&lintChecks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&lintListAll, "list", false,
		"List available checks and exit.")
	return cmd
}

// lintFile lints the file at path, which is keyed in the index by the same
// path, and reports diagnostics against display.
func lintFile(l *lint.Linter, ws *workspace, path, display string) ([]lint.Diagnostic, error) {
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("%s: %w", display, err)
	}
	diags, err := l.LintFileWithSession(src, path, ws.Session)
	if err != nil {
		return nil, err
	}
	for i := range diags {
		if diags[i].Pos.File == path {
			diags[i].Pos.File = display
		}
	}
	return diags, nil
}

// displayPath returns path relative to the working directory when it lies
// below it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func init() {
	rootCmd.AddCommand(LintCommand())
}
