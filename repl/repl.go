// Copyright © 2018 The ELPS authors

// Package repl implements an interactive shell for exploring the class
// hierarchy of an indexed workspace.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/perlmro/analysis"
	"github.com/luthersystems/perlmro/mro"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	history string
	reload  func(context.Context) (int, error)
	width   int
}

func newConfig(opts ...Option) *config {
	config := &config{
		history: historyPath(),
		width:   80,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the readline history file.  An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithReload sets the function run by the reload command.  It returns the
// number of files indexed.
func WithReload(fn func(context.Context) (int, error)) Option {
	return func(c *config) {
		c.reload = fn
	}
}

// WithWidth sets the column at which help text wraps.
func WithWidth(width int) Option {
	return func(c *config) {
		c.width = width
	}
}

// Shell executes commands against a session.
type Shell struct {
	session *analysis.Session
	cfg     *config
}

// New returns a shell reading session.
func New(session *analysis.Session, opts ...Option) *Shell {
	return &Shell{session: session, cfg: newConfig(opts...)}
}

// Exec parses and runs one line of input, writing results to w.
func (sh *Shell) Exec(ctx context.Context, w io.Writer, line string) error {
	cmd, err := ParseCommand(line)
	if err != nil {
		return err
	}
	return sh.Run(ctx, w, cmd)
}

// Run executes cmd, writing results to w.
func (sh *Shell) Run(ctx context.Context, w io.Writer, cmd *Command) error {
	switch cmd.Name {
	case "mro":
		printAncestry(w, sh.session.Linearizer.LinearizeContext(ctx, cmd.Args[0], false))
	case "super":
		printAncestry(w, sh.session.Linearizer.LinearizeContext(ctx, cmd.Args[0], true))
	case "resolve":
		found, err := sh.session.Resolver.Resolve(ctx, cmd.Args[0], cmd.Args[1:], mro.ResolveOptions{
			Super:    cmd.Super,
			Autoload: cmd.Autoload,
		})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no callable %s in the ancestry of %s",
				strings.Join(cmd.Args[1:], " or "), mro.Canonical(cmd.Args[0]))
		}
		for _, c := range found {
			fmt.Fprintln(w, c) //nolint:errcheck // best-effort REPL output
		}
	case "variants":
		variants, err := sh.session.Resolver.Variants(ctx, cmd.Args[0], false)
		if err != nil {
			return err
		}
		for _, c := range variants {
			fmt.Fprintf(w, "%-24s %s\n", c.Name, c.Namespace) //nolint:errcheck // best-effort REPL output
		}
	case "namespaces":
		prefix := ""
		if len(cmd.Args) > 0 {
			prefix = cmd.Args[0]
		}
		for _, name := range sh.session.Index.Namespaces() {
			if strings.HasPrefix(name, prefix) {
				fmt.Fprintln(w, name) //nolint:errcheck // best-effort REPL output
			}
		}
	case "reload":
		if sh.cfg.reload == nil {
			return errors.New("reload is not available without workspace roots")
		}
		n, err := sh.cfg.reload(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "indexed %d files, generation %d\n", n, sh.session.Index.Generation()) //nolint:errcheck // best-effort REPL output
	case "help":
		sh.help(w, cmd.Args)
	default:
		return fmt.Errorf("unknown command: %s", cmd.Name)
	}
	return nil
}

func (sh *Shell) help(w io.Writer, args []string) {
	width := sh.cfg.width
	if len(args) > 0 {
		doc, ok := commandHelp[args[0]]
		if !ok {
			fmt.Fprintf(w, "unknown command: %s\n", args[0]) //nolint:errcheck // best-effort REPL output
			return
		}
		fmt.Fprintf(w, "%s\n%s\n", commandUsage[args[0]], indent.String(wordwrap.String(doc, width-4), 4)) //nolint:errcheck // best-effort REPL output
		return
	}
	for _, name := range commandOrder {
		summary, _, _ := strings.Cut(commandHelp[name], ". ")
		summary = strings.TrimSuffix(summary, ".") + "."
		fmt.Fprintf(w, "%s\n%s\n", commandUsage[name], indent.String(wordwrap.String(summary, width-4), 4)) //nolint:errcheck // best-effort REPL output
	}
}

func printAncestry(w io.Writer, a mro.Ancestry) {
	fmt.Fprintln(w, strings.Join(a, " -> ")) //nolint:errcheck // best-effort REPL output
}

// RunRepl runs the shell on the terminal until end of input.
func RunRepl(ctx context.Context, session *analysis.Session, prompt string, opts ...Option) error {
	sh := New(session, opts...)
	cfg := sh.cfg
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &namespaceCompleter{index: session.Index},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		line, err := rl.ReadLine()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		err = sh.Exec(ctx, out, line)
		switch {
		case errors.Is(err, ErrEmpty):
		case err != nil:
			renderError(out, err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".perlmro_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}
