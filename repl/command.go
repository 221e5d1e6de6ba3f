// Copyright © 2024 The ELPS authors

// The shell reads one command per line.
//
// 	command    := mro | super | resolve | variants | namespaces | reload | help
// 	mro        := 'mro' <name>
// 	super      := 'super' <name>
// 	resolve    := 'resolve' <name> <name>+
// 	variants   := 'variants' <name>
// 	namespaces := 'namespaces' <name>?
// 	reload     := 'reload'
// 	help       := 'help' <name>?
// 	name       := /[A-Za-z_:'][\w:']*/
//
// The trailing words autoload and super of a resolve command are flags.
package repl

import (
	"errors"
	"fmt"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

// Command is a parsed shell command.
type Command struct {
	Name string
	Args []string
	// Autoload and Super are the flags of a resolve command.
	Autoload bool
	Super    bool
}

// ErrEmpty is returned by ParseCommand for a blank line.
var ErrEmpty = errors.New("empty command")

var commandParser = newCommandParser()

// ParseCommand parses a line of shell input.
func ParseCommand(line string) (*Command, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmpty
	}
	s := parsec.NewScanner([]byte(line))
	root, s := commandParser(s)
	cmd := findCommand(root)
	if cmd == nil {
		word := strings.Fields(line)[0]
		if _, ok := commandHelp[word]; ok {
			return nil, fmt.Errorf("usage: %s", commandUsage[word])
		}
		return nil, fmt.Errorf("unknown command: %s", word)
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		b, _ := s.Match(`.{1,16}`)
		if len(b) > 15 {
			b = append(b[:15:15], []byte("...")...)
		}
		return nil, fmt.Errorf("unexpected input starting: %s", b)
	}
	if cmd.Name == "resolve" {
		cmd.trimFlags()
		if len(cmd.Args) < 2 {
			return nil, fmt.Errorf("usage: %s", commandUsage["resolve"])
		}
	}
	return cmd, nil
}

func newCommandParser() parsec.Parser {
	name := parsec.Token(`[A-Za-z_:'][\w:']*`, "NAME")
	keyword := func(word string) parsec.Parser {
		return parsec.Token(word+`\b`, strings.ToUpper(word))
	}
	mro := parsec.And(commandNode("mro"), keyword("mro"), name)
	super := parsec.And(commandNode("super"), keyword("super"), name)
	resolve := parsec.And(commandNode("resolve"), keyword("resolve"), name, parsec.Many(nil, name))
	variants := parsec.And(commandNode("variants"), keyword("variants"), name)
	namespaces := parsec.And(commandNode("namespaces"), keyword("namespaces"), parsec.Maybe(nil, name))
	reload := parsec.And(commandNode("reload"), keyword("reload"))
	help := parsec.And(commandNode("help"), keyword("help"), parsec.Maybe(nil, name))
	return parsec.OrdChoice(nil,
		mro,
		super,
		resolve,
		variants,
		namespaces,
		reload,
		help,
	)
}

// commandNode builds a Command from the terminals following the keyword.
func commandNode(name string) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		cmd := &Command{Name: name}
		for _, t := range terminals(nodes[1:]) {
			cmd.Args = append(cmd.Args, t.GetValue())
		}
		return cmd
	}
}

func terminals(nodes []parsec.ParsecNode) []*parsec.Terminal {
	var out []*parsec.Terminal
	for _, n := range nodes {
		switch n := n.(type) {
		case *parsec.Terminal:
			out = append(out, n)
		case []parsec.ParsecNode:
			out = append(out, terminals(n)...)
		}
	}
	return out
}

func findCommand(node parsec.ParsecNode) *Command {
	switch n := node.(type) {
	case *Command:
		return n
	case []parsec.ParsecNode:
		for _, c := range n {
			if cmd := findCommand(c); cmd != nil {
				return cmd
			}
		}
	}
	return nil
}

func (cmd *Command) trimFlags() {
	for len(cmd.Args) > 2 {
		switch cmd.Args[len(cmd.Args)-1] {
		case "autoload":
			cmd.Autoload = true
		case "super":
			cmd.Super = true
		default:
			return
		}
		cmd.Args = cmd.Args[:len(cmd.Args)-1]
	}
}

var commandUsage = map[string]string{
	"mro":        "mro NAMESPACE",
	"super":      "super NAMESPACE",
	"resolve":    "resolve NAMESPACE NAME... [autoload] [super]",
	"variants":   "variants NAMESPACE",
	"namespaces": "namespaces [PREFIX]",
	"reload":     "reload",
	"help":       "help [COMMAND]",
}

var commandHelp = map[string]string{
	"mro":        "Print the method resolution order of a namespace, starting with the namespace itself and ending with UNIVERSAL.",
	"super":      "Print the method resolution order used by SUPER:: calls made from a namespace.",
	"resolve":    "Print the callables a method call on the namespace dispatches to. Several names resolve together and the first namespace defining any of them wins. The autoload flag falls back to the nearest AUTOLOAD and the super flag resolves as a SUPER:: call.",
	"variants":   "Print every method name callable on a namespace with the namespace which provides it.",
	"namespaces": "Print the indexed namespaces, optionally only those starting with a prefix.",
	"reload":     "Rescan the workspace roots and report the new index generation.",
	"help":       "Print the list of commands or the description of one command.",
}

var commandOrder = []string{"mro", "super", "resolve", "variants", "namespaces", "reload", "help"}
