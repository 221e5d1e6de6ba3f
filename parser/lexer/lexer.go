// Copyright © 2018 The ELPS authors

package lexer

import (
	"bytes"
	"strings"

	"github.com/luthersystems/perlmro/parser/token"
)

// operators are tried in order, so longer operators precede their prefixes.
var operators = []string{
	"<=>", "**=", "||=", "&&=", "//=", "<<=", ">>=", "...",
	"==", "!=", "<=", ">=", "=~", "!~", "&&", "||", "//", "..",
	"++", "--", "**", "+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=",
	"<<", ">>", "::",
	"=", "+", "-", "*", "/", "%", ".", "<", ">", "!", "~", "\\", "?", ":", "&", "|", "^",
}

// specialVarChars may follow $ to form a punctuation variable like $@ or $/.
const specialVarChars = "&`'+!@/\\,;.<>|\"?:*-~=%0[]"

var quoteOps = map[string]QuoteKind{
	"q":  QuoteSingle,
	"qq": QuoteDouble,
	"qx": QuoteBacktick,
	"qw": QuoteWords,
	"m":  QuoteMatch,
	"qr": QuoteRegex,
	"s":  QuoteSubst,
	"tr": QuoteTrans,
	"y":  QuoteTrans,
}

// termWords are barewords which are complete operands.
var termWords = map[string]bool{
	"__PACKAGE__": true,
	"__FILE__":    true,
	"__LINE__":    true,
	"__SUB__":     true,
	"time":        true,
	"wantarray":   true,
}

type lexFn func(*machine) token.Type

var modeLexers = [...]lexFn{
	ModeCode:        (*machine).lexCode,
	ModeQuoteOpen:   (*machine).lexQuoteOpen,
	ModeQuoteBody:   (*machine).lexQuoteBody,
	ModeQuoteClose:  (*machine).lexQuoteClose,
	ModeSecondOpen:  (*machine).lexQuoteOpen,
	ModeModifiers:   (*machine).lexModifiers,
	ModeHeredocBody: (*machine).lexHeredocBody,
}

// machine lexes a single token.
type machine struct {
	s            *token.Scanner
	st           State
	prev         Context // context before the current token
	unterminated bool
}

// Next lexes the token at the beginning of input, given the state left by the
// previous token.  Next never fails: unrecognized text becomes a
// token.INVALID token and a literal cut off by the end of input is returned
// with Result.Unterminated set.  The returned length is positive unless the
// type is token.EOF.
func Next(st State, input []byte) Result {
	if len(input) == 0 {
		return Result{
			Type:         token.EOF,
			State:        st,
			Unterminated: st.Mode != ModeCode || len(st.Heredocs) > 0,
		}
	}
	m := &machine{s: token.NewScanner("", input), st: st}
	lex := (*machine).lexCode
	if int(st.Mode) < len(modeLexers) {
		lex = modeLexers[st.Mode]
	}
	typ := lex(m)
	if m.s.Len() == 0 {
		m.s.ScanRune()
		typ = token.INVALID
		m.st = st
	}
	n := m.s.Len()
	m.st.MidLine = input[n-1] != '\n'
	return Result{
		Type:         typ,
		Len:          n,
		State:        m.st,
		Unterminated: m.unterminated,
	}
}

// Lexer produces located tokens from a Scanner by repeatedly calling Next.
type Lexer struct {
	scanner *token.Scanner
	state   State
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// State returns the state following the last token read.
func (lex *Lexer) State() State {
	return lex.state
}

// ReadToken returns the next token.  At the end of input ReadToken returns
// an EOF token on every call.
func (lex *Lexer) ReadToken() *token.Token {
	res := Next(lex.state, lex.scanner.Remaining())
	lex.scanner.Advance(res.Len)
	tok := lex.scanner.EmitToken(res.Type)
	tok.Unterminated = res.Unterminated
	lex.state = res.State
	return tok
}

// Tokenize returns every token in src, ending with an EOF token.
func Tokenize(file string, src []byte) []*token.Token {
	lex := New(token.NewScanner(file, src))
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (m *machine) lexCode() token.Type {
	s := m.s
	c, _ := s.Peek()
	switch {
	case isSpace(c):
		return m.lexWhitespace()
	case c == '#':
		s.AcceptSeq(func(c rune) bool { return c != '\n' })
		return token.COMMENT
	case c == '=' && !m.st.MidLine && isLetterByte(s.PeekByte(1)):
		return m.lexPod()
	}

	m.prev = m.st.Context
	m.st.Context = ContextNone
	value := m.st.Expect == ExpectValue
	switch {
	case c == '$' || c == '@':
		return m.lexVariable()
	case (c == '%' || c == '&' || c == '*') && value:
		if typ, ok := m.lexSigil(); ok {
			return typ
		}
	case isDigit(c) || (c == '.' && value && isDigitByte(s.PeekByte(1))):
		return m.lexNumber()
	case isWordStartByte(s.PeekByte(0)) || c >= 0x80 && isWordRune(c):
		return m.lexWord()
	case c == ':' && s.PeekByte(1) == ':' && isWordStartByte(s.PeekByte(2)):
		return m.lexWord()
	case c == '\'':
		return m.openQuote(QuoteSingle)
	case c == '"':
		return m.openQuote(QuoteDouble)
	case c == '`':
		return m.openQuote(QuoteBacktick)
	case c == '/' && value:
		return m.openQuote(QuoteMatch)
	case c == '<' && value:
		if s.PeekByte(1) == '<' {
			if typ, ok := m.lexHeredocOpener(); ok {
				return typ
			}
		} else if typ, ok := m.lexReadline(); ok {
			return typ
		}
	}
	return m.lexOperator()
}

func (m *machine) lexWhitespace() token.Type {
	for {
		c, ok := m.s.Peek()
		if !ok || !isSpace(c) {
			break
		}
		m.s.ScanRune()
		if c == '\n' && len(m.st.Heredocs) > 0 {
			m.st.Mode = ModeHeredocBody
			break
		}
	}
	return token.WHITESPACE
}

// lexPod consumes a POD block through its =cut line.
func (m *machine) lexPod() token.Type {
	s := m.s
	s.AcceptLine()
	for !s.EOF() {
		cut := s.HasPrefix("=cut") && !isWordByte(s.PeekByte(4))
		s.AcceptLine()
		if cut {
			break
		}
	}
	return token.POD
}

func (m *machine) scanIdent() {
	for {
		m.s.AcceptSeq(isWordRune)
		if !m.s.HasPrefix("::") {
			return
		}
		m.s.Advance(2)
	}
}

func (m *machine) lexWord() token.Type {
	s := m.s
	m.scanIdent()
	word := s.Text()
	m.st.Expect = ExpectValue

	if word == "__END__" || word == "__DATA__" {
		s.Advance(len(s.Remaining()))
		return token.DATA
	}
	if m.followedBy("=>") {
		m.st.Expect = ExpectOperator
		return token.WORD
	}
	switch m.prev {
	case ContextArrow:
		m.st.Expect = ExpectOperator
		return token.WORD
	case ContextSub:
		m.st.Context = ContextProto
		return token.WORD
	case ContextName:
		return token.WORD
	}
	if kind, ok := quoteOps[word]; ok && m.delimiterFollows() {
		m.st.Mode = ModeQuoteOpen
		m.st.Quote = Quote{Kind: kind, Part: 1}
		return token.QUOTE_OP
	}
	switch word {
	case "sub":
		m.st.Context = ContextSub
	case "package", "use", "no", "require":
		m.st.Context = ContextName
	default:
		if termWords[word] {
			m.st.Expect = ExpectOperator
		}
	}
	return token.WORD
}

// followedBy reports whether lit follows the current token after optional
// whitespace.
func (m *machine) followedBy(lit string) bool {
	rest := m.s.Remaining()
	i := skipSpaceBytes(rest, 0)
	return bytes.HasPrefix(rest[i:], []byte(lit))
}

// delimiterFollows reports whether the text after a quote-like operator name
// opens a literal.
func (m *machine) delimiterFollows() bool {
	rest := m.s.Remaining()
	i := skipSpaceBytes(rest, 0)
	if i >= len(rest) {
		return false
	}
	c := rest[i]
	switch {
	case c == '=' && i+1 < len(rest) && rest[i+1] == '>':
		return false
	case c == ',' || c == ';' || c == ')' || c == '}' || c == ']' || c == '>':
		return false
	case isWordByte(c) || c >= 0x80:
		return false
	case i > 0 && (c == '=' || c == '#'):
		return false
	}
	return true
}

func (m *machine) lexVariable() token.Type {
	s := m.s
	sigil, _ := s.Peek()
	s.ScanRune()
	n := s.PeekByte(0)
	m.st.Expect = ExpectOperator

	if sigil == '$' && n == '#' {
		n2 := s.PeekByte(1)
		s.Advance(1)
		switch {
		case n2 == '{' || n2 == '$':
			m.st.Expect = ExpectValue
			return token.CAST
		case isWordStartByte(n2):
			m.scanIdent()
		}
		return token.VARIABLE
	}
	switch {
	case n == '{':
		if sigil == '$' && s.PeekByte(1) == '^' {
			if end := bytes.IndexByte(s.Remaining(), '}'); end > 0 && isCaretName(s.Remaining()[2:end]) {
				s.Advance(end + 1)
				return token.VARIABLE
			}
		}
		m.st.Expect = ExpectValue
		return token.CAST
	case n == '$':
		n2 := s.PeekByte(1)
		if sigil == '$' && !(isWordStartByte(n2) || n2 == '{' || n2 == '$' || n2 == ':') {
			s.Advance(1)
			return token.VARIABLE
		}
		m.st.Expect = ExpectValue
		return token.CAST
	case isWordStartByte(n) || (n == ':' && s.PeekByte(1) == ':'):
		m.scanIdent()
	case isDigitByte(n):
		s.AcceptSeqDigit()
	case n == '^' && 'A' <= s.PeekByte(1) && s.PeekByte(1) <= 'Z':
		s.Advance(2)
	case sigil == '$' && n != 0 && strings.IndexByte(specialVarChars, n) >= 0:
		s.Advance(1)
	case sigil == '@' && (n == '-' || n == '+'):
		s.Advance(1)
	default:
		m.st.Expect = ExpectValue
		return token.INVALID
	}
	return token.VARIABLE
}

// lexSigil lexes a hash, code or glob sigil in value position.
func (m *machine) lexSigil() (token.Type, bool) {
	s := m.s
	c := s.PeekByte(0)
	n := s.PeekByte(1)
	switch {
	case n == '{' || n == '$':
		s.Advance(1)
		return token.CAST, true
	case isWordStartByte(n) || (n == ':' && s.PeekByte(2) == ':'):
		s.Advance(1)
		m.scanIdent()
	case c == '%' && (n == '+' || n == '-' || n == '!'):
		s.Advance(2)
	case c == '%' && n == '^' && 'A' <= s.PeekByte(2) && s.PeekByte(2) <= 'Z':
		s.Advance(3)
	default:
		return 0, false
	}
	m.st.Expect = ExpectOperator
	return token.VARIABLE, true
}

func (m *machine) lexNumber() token.Type {
	s := m.s
	m.st.Expect = ExpectOperator
	isNum := func(c rune) bool { return isDigit(c) || c == '_' }
	switch {
	case s.AcceptString("0x") || s.AcceptString("0X"):
		s.AcceptSeq(func(c rune) bool { return isHexDigit(c) || c == '_' })
		return token.NUMBER
	case s.AcceptString("0b") || s.AcceptString("0B"):
		s.AcceptSeq(func(c rune) bool { return c == '0' || c == '1' || c == '_' })
		return token.NUMBER
	}
	s.AcceptSeq(isNum)
	if s.PeekByte(0) == '.' && s.PeekByte(1) != '.' {
		s.Advance(1)
		s.AcceptSeq(isNum)
	}
	if e := s.PeekByte(0); e == 'e' || e == 'E' {
		d := s.PeekByte(1)
		switch {
		case isDigitByte(d):
			s.Advance(1)
		case (d == '+' || d == '-') && isDigitByte(s.PeekByte(2)):
			s.Advance(2)
		default:
			return token.NUMBER
		}
		s.AcceptSeq(isNum)
	}
	return token.NUMBER
}

func (m *machine) lexReadline() (token.Type, bool) {
	rest := m.s.Remaining()
	i := 1
	if i < len(rest) && rest[i] == '$' {
		i++
	}
	for i < len(rest) && (isWordByte(rest[i]) || rest[i] == ':') {
		i++
	}
	if i >= len(rest) || rest[i] != '>' {
		return 0, false
	}
	m.s.Advance(i + 1)
	m.st.Expect = ExpectOperator
	return token.READLINE, true
}

func (m *machine) lexPrototype() token.Type {
	s := m.s
	s.AcceptSeq(func(c rune) bool { return c != ')' })
	if !s.AcceptRune(')') {
		m.unterminated = true
	}
	m.st.Expect = ExpectValue
	return token.PROTOTYPE
}

func (m *machine) lexOperator() token.Type {
	s := m.s
	c, _ := s.Peek()
	punct := func(typ token.Type, expect Expect) token.Type {
		s.ScanRune()
		m.st.Expect = expect
		return typ
	}
	switch c {
	case '(':
		if m.prev == ContextSub || m.prev == ContextProto {
			return m.lexPrototype()
		}
		return punct(token.PAREN_L, ExpectValue)
	case ')':
		return punct(token.PAREN_R, ExpectOperator)
	case '[':
		return punct(token.BRACKET_L, ExpectValue)
	case ']':
		return punct(token.BRACKET_R, ExpectOperator)
	case '{':
		return punct(token.BRACE_L, ExpectValue)
	case '}':
		return punct(token.BRACE_R, ExpectOperator)
	case ',':
		return punct(token.COMMA, ExpectValue)
	case ';':
		return punct(token.SEMICOLON, ExpectValue)
	}
	switch {
	case s.AcceptString("->"):
		m.st.Context = ContextArrow
		m.st.Expect = ExpectValue
		return token.ARROW
	case s.AcceptString("=>"):
		m.st.Expect = ExpectValue
		return token.FAT_COMMA
	case c == '-' && m.st.Expect == ExpectValue && isLetterByte(s.PeekByte(1)) &&
		!isWordByte(s.PeekByte(2)) && !m.fatCommaAt(2):
		// file test operator such as -e or -d
		s.Advance(2)
		return token.OPERATOR
	}
	for _, op := range operators {
		if s.AcceptString(op) {
			if op != "++" && op != "--" {
				m.st.Expect = ExpectValue
			}
			return token.OPERATOR
		}
	}
	s.ScanRune()
	return token.INVALID
}

func (m *machine) fatCommaAt(off int) bool {
	rest := m.s.Remaining()
	if off > len(rest) {
		return false
	}
	i := skipSpaceBytes(rest, off)
	return bytes.HasPrefix(rest[i:], []byte("=>"))
}

func skipSpaceBytes(b []byte, i int) int {
	for i < len(b) && isSpaceByte(b[i]) {
		i++
	}
	return i
}

func isCaretName(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !isWordByte(c) {
			return false
		}
	}
	return true
}

func isSpace(c rune) bool {
	return c < 0x80 && isSpaceByte(byte(c))
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isDigitByte(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isLetterByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isWordStartByte(c byte) bool {
	return isLetterByte(c) || c == '_'
}

func isWordByte(c byte) bool {
	return isWordStartByte(c) || isDigitByte(c)
}

func isWordRune(c rune) bool {
	if c < 0x80 {
		return isWordByte(byte(c))
	}
	return c != 0xFFFD
}
