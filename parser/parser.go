// Copyright © 2018 The ELPS authors

// Package parser extracts namespace, parent and callable declarations from
// Perl source.  It recognizes package statements and blocks, sub
// definitions and forward declarations, constants, typeglob assignments and
// the common ways of declaring parents: use parent, use base, @ISA
// assignment, push and unshift onto @ISA, Moose and Mouse extends and with,
// and Mojo::Base.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/luthersystems/perlmro/mro"
	"github.com/luthersystems/perlmro/parser/lexer"
	"github.com/luthersystems/perlmro/parser/token"
)

// ErrUnterminated is wrapped by the problems reported for literals which
// reach the end of input.
var ErrUnterminated = errors.New("unterminated")

var packageNameRegexp = regexp.MustCompile(`^(?:::)?[A-Za-z_]\w*(?:(?:::|')\w+)*(?:::)?$`)

// objectBases are the implicit parents installed by object system imports.
var objectBases = map[string]string{
	"Moose": "Moose::Object",
	"Mouse": "Mouse::Object",
}

// Parse lexes src and returns its declarations.  Parse never fails;
// unparsable text is skipped.
func Parse(path string, src []byte) *File {
	return ParseTokens(path, lexer.Tokenize(path, src))
}

// ParseTokens returns the declarations in the lexed tokens of a file.
func ParseTokens(path string, toks []*token.Token) *File {
	stream := TokenSlice(toks)
	p := &parser{
		file: &File{Path: path},
		src:  NewTokenSource(&stream),
	}
	p.src.observe = p.unterminated
	p.parse()
	return p.file
}

type scope struct {
	depth int
	prev  *Namespace
}

type parser struct {
	file    *File
	src     *TokenSource
	current *Namespace
	main    *Namespace
	scopes  []scope
	depth   int
	prev    *token.Token
}

type item struct {
	text string
	loc  *token.Location
}

func (p *parser) parse() {
	for p.src.Scan() {
		tok := p.src.Token
		switch tok.Type {
		case token.BRACE_L:
			p.depth++
		case token.BRACE_R:
			p.closeBrace()
		case token.WORD:
			p.parseWord(tok)
		case token.VARIABLE:
			p.parseVariable(tok)
		case token.CAST:
			if tok.Text == "*" {
				p.parseGlobBlock()
			}
		}
		p.prev = tok
	}
}

func (p *parser) unterminated(tok *token.Token) {
	what := "literal"
	switch tok.Type {
	case token.HEREDOC_BODY:
		what = "heredoc"
	case token.PROTOTYPE:
		what = "prototype"
	}
	p.file.Problems = append(p.file.Problems, &token.LocationError{
		Err:    fmt.Errorf("%w %s", ErrUnterminated, what),
		Source: tok.Source,
	})
}

func (p *parser) closeBrace() {
	if n := len(p.scopes); n > 0 && p.scopes[n-1].depth == p.depth {
		p.current = p.scopes[n-1].prev
		p.scopes = p.scopes[:n-1]
	}
	if p.depth > 0 {
		p.depth--
	}
}

// namespace returns the package in effect, declaring main implicitly when
// code precedes any package statement.
func (p *parser) namespace(loc *token.Location) *Namespace {
	if p.current != nil {
		return p.current
	}
	if p.main == nil {
		p.main = &Namespace{Name: mro.Main, Implicit: true, Source: loc}
		p.file.Namespaces = append(p.file.Namespaces, p.main)
	}
	return p.main
}

// namespaceNamed returns a declaration of name in the file, creating an
// implicit one if needed.
func (p *parser) namespaceNamed(name string, loc *token.Location) *Namespace {
	if cur := p.namespace(loc); cur.Name == name {
		return cur
	}
	if ns := p.file.Namespace(name); ns != nil {
		return ns
	}
	ns := &Namespace{Name: name, Implicit: true, Source: loc}
	p.file.Namespaces = append(p.file.Namespaces, ns)
	return ns
}

func (p *parser) parseWord(tok *token.Token) {
	if p.prev != nil && p.prev.Type == token.ARROW {
		return
	}
	if p.src.PeekType() == token.FAT_COMMA {
		return
	}
	switch tok.Text {
	case "package":
		p.parsePackage(tok)
	case "sub":
		p.parseSub()
	case "use":
		p.parseUse()
	case "extends", "with":
		switch p.src.PeekType() {
		case token.QUOTE_OPEN, token.QUOTE_OP, token.PAREN_L:
		default:
			return
		}
		names, locs := packageNames(p.collectList())
		ns := p.namespace(tok.Source)
		if tok.Text == "extends" {
			ns.setParents(names, locs)
		} else {
			ns.appendParents(names, locs)
		}
	case "push", "unshift":
		p.parsePushISA(tok.Text == "push")
	}
}

func (p *parser) parsePackage(kw *token.Token) {
	comments := p.src.Comments
	nameTok := p.src.Peek()
	if nameTok.Type != token.WORD {
		return
	}
	p.src.Scan()
	if peek := p.src.Peek(); peek.Type == token.NUMBER || isVersionWord(peek.Text) && peek.Type == token.WORD {
		p.src.Scan()
	}
	ns := &Namespace{
		Name:       mro.Canonical(nameTok.Text),
		Source:     nameTok.Source,
		Deprecated: hasDeprecatedTag(comments),
	}
	if p.src.AcceptType(token.BRACE_L) {
		p.depth++
		p.scopes = append(p.scopes, scope{depth: p.depth, prev: p.current})
	} else if p.depth > 0 {
		// A package statement lasts until the end of the enclosing block.
		if n := len(p.scopes); n == 0 || p.scopes[n-1].depth != p.depth {
			p.scopes = append(p.scopes, scope{depth: p.depth, prev: p.current})
		}
	}
	p.current = ns
	p.file.Namespaces = append(p.file.Namespaces, ns)
}

func (p *parser) parseSub() {
	nameTok := p.src.Peek()
	if nameTok.Type != token.WORD {
		// anonymous sub
		return
	}
	p.src.Scan()
	p.src.AcceptType(token.PROTOTYPE)
	for p.src.AcceptText(token.OPERATOR, ":") {
		p.src.AcceptType(token.WORD)
		if p.src.AcceptType(token.PAREN_L) {
			p.skipTo(token.PAREN_R)
		}
	}
	kind := mro.SubDefinition
	if p.src.PeekType() == token.SEMICOLON {
		kind = mro.SubDeclaration
	}
	p.addCallable(nameTok.Text, kind, nameTok.Source)
}

func (p *parser) addCallable(name string, kind mro.Kind, loc *token.Location) {
	var ns string
	if strings.Contains(name, mro.Separator) || strings.Contains(name, "'") {
		ns, name = mro.Split(strings.ReplaceAll(name, "'", mro.Separator))
	} else {
		ns = p.namespace(loc).Name
	}
	if name == "" {
		return
	}
	p.file.Callables = append(p.file.Callables, mro.Callable{
		Namespace:  ns,
		Name:       name,
		Kind:       kind,
		Assignable: kind == mro.Glob,
		Source:     loc,
	})
}

func (p *parser) parseUse() {
	modTok := p.src.Peek()
	if modTok.Type != token.WORD {
		return
	}
	p.src.Scan()
	switch module := modTok.Text; module {
	case "constant":
		p.parseConstant(modTok)
	case "parent", "base":
		names, locs := packageNames(p.collectList())
		p.namespace(modTok.Source).appendParents(names, locs)
	case "Moose", "Mouse":
		ns := p.namespace(modTok.Source)
		if len(ns.Parents) == 0 {
			ns.setParents([]string{objectBases[module]}, []*token.Location{modTok.Source})
		}
	case "Mojo::Base":
		for _, it := range p.collectList() {
			if it.text == "-base" {
				p.namespace(modTok.Source).appendParents([]string{"Mojo::Base"}, []*token.Location{it.loc})
				break
			}
			if !strings.HasPrefix(it.text, "-") && packageNameRegexp.MatchString(it.text) {
				p.namespace(modTok.Source).appendParents([]string{mro.Canonical(it.text)}, []*token.Location{it.loc})
				break
			}
		}
	case "mro":
		items := p.collectList()
		if len(items) > 0 {
			if alg, err := mro.ParseAlgorithm(items[0].text); err == nil {
				p.namespace(modTok.Source).Algorithm = alg
			}
		}
	}
}

// parseConstant handles "use constant NAME => ..." and
// "use constant { NAME => ..., ... }".
func (p *parser) parseConstant(modTok *token.Token) {
	if !p.src.AcceptType(token.BRACE_L) {
		switch tok := p.src.Peek(); tok.Type {
		case token.WORD:
			p.src.Scan()
			p.addCallable(tok.Text, mro.Constant, tok.Source)
		case token.QUOTE_OPEN:
			p.src.Scan()
			if p.src.AcceptType(token.STRING) {
				p.addCallable(p.src.Token.Text, mro.Constant, p.src.Token.Source)
			}
		}
		p.collectList()
		return
	}
	depth := 1
	var key *token.Token
	for depth > 0 && p.src.Scan() {
		tok := p.src.Token
		switch tok.Type {
		case token.BRACE_L, token.BRACKET_L, token.PAREN_L:
			depth++
			key = nil
		case token.BRACE_R, token.BRACKET_R, token.PAREN_R:
			depth--
			key = nil
		case token.WORD, token.STRING:
			if depth == 1 {
				key = tok
			}
		case token.QUOTE_OPEN, token.QUOTE_CLOSE:
		case token.FAT_COMMA:
			if depth == 1 && key != nil {
				p.addCallable(key.Text, mro.Constant, key.Source)
			}
			key = nil
		default:
			key = nil
		}
	}
	p.collectList()
}

func (p *parser) parseVariable(tok *token.Token) {
	text := tok.Text
	switch {
	case isISA(text):
		if !p.src.AcceptText(token.OPERATOR, "=") {
			return
		}
		ns := p.isaTarget(tok)
		names, locs := packageNames(p.collectList())
		ns.setParents(names, locs)
	case strings.HasPrefix(text, "*") && len(text) > 1:
		if p.src.Peek().Type == token.OPERATOR && p.src.Peek().Text == "=" {
			p.addCallable(text[1:], mro.Glob, tok.Source)
		}
	}
}

// parseGlobBlock handles *{"Pkg::name"} = ...
func (p *parser) parseGlobBlock() {
	if !p.src.AcceptType(token.BRACE_L) {
		return
	}
	p.depth++
	if !p.src.AcceptType(token.QUOTE_OPEN) {
		return
	}
	if !p.src.AcceptType(token.STRING) {
		return
	}
	name := p.src.Token
	if !p.src.AcceptType(token.QUOTE_CLOSE) {
		return
	}
	if !p.src.AcceptType(token.BRACE_R) {
		return
	}
	p.closeBrace()
	if !p.src.AcceptText(token.OPERATOR, "=") {
		return
	}
	if strings.ContainsAny(name.Text, "$@") || !packageNameRegexp.MatchString(name.Text) {
		return
	}
	p.addCallable(name.Text, mro.Glob, name.Source)
}

func (p *parser) parsePushISA(push bool) {
	p.src.AcceptType(token.PAREN_L)
	v := p.src.Peek()
	if v.Type != token.VARIABLE || !isISA(v.Text) {
		return
	}
	p.src.Scan()
	if !p.src.AcceptType(token.COMMA) {
		return
	}
	ns := p.isaTarget(v)
	names, locs := packageNames(p.collectList())
	if push {
		ns.appendParents(names, locs)
	} else {
		ns.prependParents(names, locs)
	}
}

func (p *parser) isaTarget(v *token.Token) *Namespace {
	if v.Text == "@ISA" {
		return p.namespace(v.Source)
	}
	name := mro.Canonical(strings.TrimSuffix(v.Text[1:], "ISA"))
	return p.namespaceNamed(name, v.Source)
}

// collectList reads the rest of a statement and returns its strings, quoted
// words, barewords and dashed options.  Values nested in braces are
// skipped.  A closing brace of the enclosing block ends the list without
// being consumed.
func (p *parser) collectList() []item {
	var items []item
	depth, braces := 0, 0
	for {
		switch tok := p.src.Peek(); tok.Type {
		case token.EOF:
			return items
		case token.SEMICOLON:
			if depth == 0 {
				p.src.Scan()
				return items
			}
		case token.BRACE_R:
			if depth == 0 {
				return items
			}
		}
		p.src.Scan()
		tok := p.src.Token
		switch tok.Type {
		case token.BRACE_L:
			depth++
			braces++
		case token.BRACE_R:
			depth--
			braces--
		case token.PAREN_L, token.BRACKET_L:
			depth++
		case token.PAREN_R, token.BRACKET_R:
			if depth > 0 {
				depth--
			}
		}
		if braces > 0 {
			continue
		}
		switch tok.Type {
		case token.STRING:
			items = append(items, item{strings.TrimSpace(tok.Text), tok.Source})
		case token.WORD_LIST:
			for _, w := range strings.Fields(tok.Text) {
				items = append(items, item{w, tok.Source})
			}
		case token.WORD:
			items = append(items, item{tok.Text, tok.Source})
		case token.OPERATOR:
			if tok.Text == "-" && p.src.PeekType() == token.WORD {
				p.src.Scan()
				items = append(items, item{"-" + p.src.Token.Text, tok.Source})
			}
		}
	}
}

func (p *parser) skipTo(typ token.Type) {
	for p.src.Scan() {
		if p.src.Token.Type == typ {
			return
		}
	}
}

// packageNames returns the canonical package names among items, skipping
// options and anything which is not a literal name.
func packageNames(items []item) ([]string, []*token.Location) {
	var names []string
	var locs []*token.Location
	for _, it := range items {
		if strings.HasPrefix(it.text, "-") || !packageNameRegexp.MatchString(it.text) {
			continue
		}
		names = append(names, mro.Canonical(it.text))
		locs = append(locs, it.loc)
	}
	return names, locs
}

func isISA(text string) bool {
	return text == "@ISA" || strings.HasPrefix(text, "@") && strings.HasSuffix(text, "::ISA")
}

func isVersionWord(text string) bool {
	return len(text) > 1 && text[0] == 'v' && text[1] >= '0' && text[1] <= '9'
}

func hasDeprecatedTag(comments []*token.Token) bool {
	for _, c := range comments {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "#"))
		if strings.HasPrefix(text, "@deprecated") {
			return true
		}
	}
	return false
}
