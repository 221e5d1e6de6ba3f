// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/luthersystems/perlmro/parser/lexer"
	"github.com/luthersystems/perlmro/parser/token"
	"github.com/spf13/cobra"
)

// TokensCommand creates the "tokens" cobra command.
func TokensCommand() *cobra.Command {
	var (
		asJSON bool
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "tokens [flags] FILE",
		Short: "Print the tokens of a Perl source file",
		Long: `Print the tokens the lexer produces for a Perl source file.

Whitespace, comments and POD are hidden unless --all is given.  Literals
which run to the end of the file are marked unterminated.  Use "-" to read
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var (
				src []byte
				err error
			)
			if path == "-" {
				path = "<stdin>"
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			}
			if err != nil {
				return err
			}
			toks := lexer.Tokenize(path, src)
			if !all {
				toks = withoutTrivia(toks)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tokenRecords(toks))
			}
			writeTokens(cmd.OutOrStdout(), toks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	cmd.Flags().BoolVar(&all, "all", false, "Include whitespace, comments and POD.")
	return cmd
}

type tokenRecord struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	Line         int    `json:"line"`
	Col          int    `json:"col"`
	Unterminated bool   `json:"unterminated,omitempty"`
}

func tokenRecords(toks []*token.Token) []tokenRecord {
	records := make([]tokenRecord, 0, len(toks))
	for _, tok := range toks {
		r := tokenRecord{
			Type:         tok.Type.String(),
			Text:         tok.Text,
			Unterminated: tok.Unterminated,
		}
		if tok.Source != nil {
			r.Line, r.Col = tok.Source.Line, tok.Source.Col
		}
		records = append(records, r)
	}
	return records
}

func withoutTrivia(toks []*token.Token) []*token.Token {
	var out []*token.Token
	for _, tok := range toks {
		if !tok.Type.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

func writeTokens(w io.Writer, toks []*token.Token) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, r := range tokenRecords(toks) {
		mark := ""
		if r.Unterminated {
			mark = "\tunterminated"
		}
		fmt.Fprintf(tw, "%d:%d\t%s\t%q%s\n", r.Line, r.Col, r.Type, r.Text, mark) //nolint:errcheck // best-effort output
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(TokensCommand())
}
