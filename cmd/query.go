// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/luthersystems/perlmro/mro"
	"github.com/spf13/cobra"
)

// MROCommand creates the "mro" cobra command.
func MROCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		super     bool
		algorithm string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "mro [flags] NAMESPACE",
		Short: "Print the method resolution order of a namespace",
		Long: `Print the method resolution order of a namespace.

The order starts with the namespace itself and ends with UNIVERSAL.  Each
namespace appears once.  Namespaces declaring use mro 'c3' are linearized
with C3 unless --algorithm forces a strategy.

Examples:
  perlmro mro My::Class
  perlmro mro --super My::Class        # Order used by SUPER:: calls
  perlmro mro --algorithm=c3 My::Class
  perlmro mro --json My::Class`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := cfg.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.release()
			name := mro.Canonical(args[0])
			alg := ws.Linearizer.AlgorithmFor(name)
			if algorithm != "" {
				if alg, err = mro.ParseAlgorithm(algorithm); err != nil {
					return err
				}
			}
			ancestry := ws.Linearizer.LinearizeWith(alg, name, super)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Namespace string       `json:"namespace"`
					Algorithm string       `json:"algorithm"`
					Super     bool         `json:"super"`
					Ancestry  mro.Ancestry `json:"ancestry"`
				}{name, alg.String(), super, ancestry})
			}
			for _, ns := range ancestry {
				fmt.Fprintln(out, ns) //nolint:errcheck // best-effort output
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&super, "super", false, "Omit the namespace itself, as SUPER:: does.")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", `Force the linearization: "dfs" or "c3".`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	return cmd
}

// ResolveCommand creates the "resolve" cobra command.
func ResolveCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		resolveOpts mro.ResolveOptions
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [flags] NAMESPACE NAME...",
		Short: "Find the callables a method call dispatches to",
		Long: `Find the callables a method call on NAMESPACE dispatches to.

The ancestry of the namespace is searched in order and every callable named
by one of the NAMEs in the first namespace defining any of them is printed.
Subs, forward declarations, constants and glob assignments are callables.

Exit codes:
  0  A callable was found
  1  No callable was found
  2  Bad invocation

Examples:
  perlmro resolve My::Class new
  perlmro resolve --super My::Class new      # SUPER::new from My::Class
  perlmro resolve --autoload My::Class frob  # Fall back to AUTOLOAD`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := cfg.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.release()
			found, err := ws.Resolver.Resolve(cmd.Context(), args[0], args[1:], resolveOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if found == nil {
					found = []mro.Callable{}
				}
				if err := writeJSON(out, found); err != nil {
					return err
				}
			} else {
				writeCallables(out, found)
			}
			if len(found) == 0 {
				ws.log.WithField("namespace", mro.Canonical(args[0])).
					Warnf("no callable %s", strings.Join(args[1:], " or "))
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolveOpts.Super, "super", false, "Resolve as a SUPER:: call.")
	cmd.Flags().BoolVar(&resolveOpts.Autoload, "autoload", false, "Fall back to the nearest AUTOLOAD.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	return cmd
}

// VariantsCommand creates the "variants" cobra command.
func VariantsCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		super  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "variants [flags] NAMESPACE",
		Short: "List every method callable on a namespace",
		Long: `List every method name callable on a namespace.

Each name is listed once with the callable a call would reach.  Names are
listed in resolution order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := cfg.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.release()
			variants, err := ws.Resolver.Variants(cmd.Context(), args[0], super)
			if err != nil {
				return err
			}
			if asJSON {
				if variants == nil {
					variants = []mro.Callable{}
				}
				return writeJSON(cmd.OutOrStdout(), variants)
			}
			writeCallables(cmd.OutOrStdout(), variants)
			return nil
		},
	}
	cmd.Flags().BoolVar(&super, "super", false, "Omit the namespace itself, as SUPER:: does.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	return cmd
}

func writeCallables(w io.Writer, callables []mro.Callable) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, c := range callables {
		loc := ""
		if c.Source != nil {
			loc = c.Source.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.FullName(), c.Kind, loc) //nolint:errcheck // best-effort output
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(MROCommand(), ResolveCommand(), VariantsCommand())
}
