// Copyright © 2024 The ELPS authors

package lexer

import "github.com/luthersystems/perlmro/parser/token"

// closers maps each paired opening delimiter to its closing delimiter.
var closers = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

func closerFor(open rune) rune {
	if c, ok := closers[open]; ok {
		return c
	}
	return open
}

// openQuote lexes the opening delimiter of a string or match that has no
// operator word.
func (m *machine) openQuote(kind QuoteKind) token.Type {
	c, _ := m.s.Peek()
	m.s.ScanRune()
	m.st.Quote = Quote{Kind: kind, Part: 1, Open: c, Close: closerFor(c)}
	m.st.Mode = ModeQuoteBody
	return token.QUOTE_OPEN
}

// lexQuoteOpen lexes the opening delimiter following a quote-like operator
// or, in ModeSecondOpen, the delimiter opening the second part of s{}{}.
// Whitespace may precede the delimiter.  Comments may only precede a second
// part.
func (m *machine) lexQuoteOpen() token.Type {
	s := m.s
	c, _ := s.Peek()
	switch {
	case isSpace(c):
		s.AcceptSeq(isSpace)
		return token.WHITESPACE
	case c == '#' && m.st.Mode == ModeSecondOpen:
		s.AcceptSeq(func(c rune) bool { return c != '\n' })
		return token.COMMENT
	}
	s.ScanRune()
	m.st.Quote.Open = c
	m.st.Quote.Close = closerFor(c)
	m.st.Quote.Depth = 0
	m.st.Mode = ModeQuoteBody
	return token.QUOTE_OPEN
}

// lexQuoteBody lexes literal content up to the closing delimiter at nesting
// depth zero.  Backslash escapes the following character.
func (m *machine) lexQuoteBody() token.Type {
	s := m.s
	q := &m.st.Quote
	typ := q.Kind.contentType(q.Part)
	for {
		c, ok := s.Peek()
		if !ok {
			m.unterminated = true
			m.closeQuote()
			return typ
		}
		if c == '\\' {
			s.ScanRune()
			s.ScanRune()
			continue
		}
		if q.paired() && c == q.Open {
			q.Depth++
		} else if c == q.Close {
			if q.Depth == 0 {
				break
			}
			q.Depth--
		}
		s.ScanRune()
	}
	if s.Len() == 0 {
		return m.lexQuoteClose()
	}
	m.st.Mode = ModeQuoteClose
	return typ
}

func (m *machine) lexQuoteClose() token.Type {
	s := m.s
	s.ScanRune()
	q := m.st.Quote
	switch {
	case q.Kind.twoPart() && q.Part == 1:
		m.st.Quote.Part = 2
		m.st.Quote.Depth = 0
		if q.paired() {
			m.st.Mode = ModeSecondOpen
		} else {
			// the closing delimiter also opens the second part
			m.st.Mode = ModeQuoteBody
		}
	case q.Kind.hasModifiers() && isLetterByte(s.PeekByte(0)):
		m.st.Mode = ModeModifiers
	default:
		m.closeQuote()
	}
	return token.QUOTE_CLOSE
}

func (m *machine) lexModifiers() token.Type {
	m.s.AcceptSeq(func(c rune) bool { return c < 0x80 && isLetterByte(byte(c)) })
	m.closeQuote()
	return token.REGEX_MODIFIERS
}

func (m *machine) closeQuote() {
	m.st.Mode = ModeCode
	m.st.Quote = Quote{}
	m.st.Expect = ExpectOperator
}
