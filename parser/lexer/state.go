// Copyright © 2024 The ELPS authors

package lexer

import "github.com/luthersystems/perlmro/parser/token"

// Mode is the lexing mode of a State.
type Mode uint8

const (
	// ModeCode lexes ordinary Perl code.
	ModeCode Mode = iota
	// ModeQuoteOpen expects the opening delimiter of a quote-like operator.
	ModeQuoteOpen
	// ModeQuoteBody lexes the content of a quoted literal.
	ModeQuoteBody
	// ModeQuoteClose expects the closing delimiter of a quoted literal.
	ModeQuoteClose
	// ModeSecondOpen expects the opening delimiter of the second part of
	// s{}{} or tr{}{}.
	ModeSecondOpen
	// ModeModifiers expects the trailing flags of a regex or
	// transliteration.
	ModeModifiers
	// ModeHeredocBody lexes the lines of the oldest pending heredoc.
	ModeHeredocBody
)

var modeStrings = [...]string{
	ModeCode:        "code",
	ModeQuoteOpen:   "quote-open",
	ModeQuoteBody:   "quote-body",
	ModeQuoteClose:  "quote-close",
	ModeSecondOpen:  "second-open",
	ModeModifiers:   "modifiers",
	ModeHeredocBody: "heredoc-body",
}

func (m Mode) String() string {
	if int(m) < len(modeStrings) {
		return modeStrings[m]
	}
	return "invalid"
}

// Expect tells whether the next code token is an operand or an operator.
// It decides between division and a match, and between a shift and a
// heredoc.
type Expect uint8

const (
	ExpectValue Expect = iota
	ExpectOperator
)

func (e Expect) String() string {
	if e == ExpectOperator {
		return "operator"
	}
	return "value"
}

// Context records the keyword preceding the current word position.
type Context uint8

const (
	ContextNone Context = iota
	// ContextArrow follows "->"; the next word is a method name.
	ContextArrow
	// ContextSub follows "sub"; the next word is a subroutine name.
	ContextSub
	// ContextProto follows "sub NAME"; a parenthesis starts a prototype.
	ContextProto
	// ContextName follows package, use, no or require.
	ContextName
)

// QuoteKind identifies the construct owning a quoted literal.
type QuoteKind uint8

const (
	QuoteNone QuoteKind = iota
	QuoteSingle             // '...' and q
	QuoteDouble             // "..." and qq
	QuoteBacktick           // `...` and qx
	QuoteWords              // qw
	QuoteMatch              // /.../ and m
	QuoteRegex              // qr
	QuoteSubst              // s
	QuoteTrans              // tr and y
)

// twoPart reports whether the construct has a second delimited part.
func (k QuoteKind) twoPart() bool {
	return k == QuoteSubst || k == QuoteTrans
}

func (k QuoteKind) hasModifiers() bool {
	switch k {
	case QuoteMatch, QuoteRegex, QuoteSubst, QuoteTrans:
		return true
	}
	return false
}

// contentType is the token type emitted for the body of part 1 or 2.
func (k QuoteKind) contentType(part int) token.Type {
	switch k {
	case QuoteWords:
		return token.WORD_LIST
	case QuoteMatch, QuoteRegex:
		return token.REGEX
	case QuoteSubst:
		if part == 2 {
			return token.REPLACEMENT
		}
		return token.REGEX
	case QuoteTrans:
		return token.TRANSLITERATION
	}
	return token.STRING
}

// Quote is the active quoted literal.
type Quote struct {
	Kind  QuoteKind
	Part  int // 1 or 2
	Open  rune
	Close rune
	Depth int // nesting depth of paired delimiters inside the body
}

func (q Quote) paired() bool {
	return q.Open != q.Close
}

// Heredoc is a heredoc whose opener has been lexed but whose body has not.
type Heredoc struct {
	Marker       string
	Indented     bool // <<~
	Interpolated bool
}

// State is the complete lexer state carried between tokens.  The zero State
// is the state at the start of a file.  A State is a value; a State returned
// by Next never shares mutable memory with its input.
type State struct {
	Mode    Mode
	Expect  Expect
	Context Context
	// MidLine is false when the next byte begins a line.
	MidLine bool
	Quote   Quote
	// Heredocs are pending heredoc bodies, oldest first.
	Heredocs []Heredoc
}

func (st State) pushHeredoc(h Heredoc) State {
	hs := make([]Heredoc, len(st.Heredocs), len(st.Heredocs)+1)
	copy(hs, st.Heredocs)
	st.Heredocs = append(hs, h)
	return st
}

func (st State) popHeredoc() State {
	if len(st.Heredocs) <= 1 {
		st.Heredocs = nil
		return st
	}
	st.Heredocs = st.Heredocs[1:len(st.Heredocs):len(st.Heredocs)]
	return st
}

// Result is the outcome of one call to Next.
type Result struct {
	Type token.Type
	// Len is the number of input bytes the token covers.  Len is zero only
	// for token.EOF.
	Len   int
	State State
	// Unterminated is set when the token ran into the end of input before
	// its closing delimiter or heredoc terminator.
	Unterminated bool
}
