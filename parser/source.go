// Copyright © 2018 The ELPS authors

package parser

import (
	"github.com/luthersystems/perlmro/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer.  When no more tokens can be generated ReadToken
// returns a token with type token.EOF.
type TokenStream interface {
	ReadToken() *token.Token
}

// TokenSlice is a TokenStream over lexed tokens.
type TokenSlice []*token.Token

// ReadToken implements TokenStream.
func (s *TokenSlice) ReadToken() *token.Token {
	if len(*s) == 0 {
		return &token.Token{Type: token.EOF, Source: &token.Location{Pos: -1}}
	}
	tok := (*s)[0]
	if tok.Type != token.EOF {
		*s = (*s)[1:]
	}
	return tok
}

// TokenSource adds one token lookahead to a TokenStream and hides trivia.
// Unterminated tokens seen along the way are reported to the observer.
type TokenSource struct {
	lex     TokenStream
	Token   *token.Token
	peek    *token.Token
	leading []*token.Token // comments preceding peek
	// Comments holds the comments preceding Token.
	Comments []*token.Token

	observe func(*token.Token)
}

func NewTokenSource(stream TokenStream) *TokenSource {
	return &TokenSource{lex: stream}
}

func (s *TokenSource) Peek() *token.Token {
	if s.peek != nil {
		return s.peek
	}
	s.leading = nil
	for {
		tok := s.lex.ReadToken()
		if tok.Unterminated && s.observe != nil {
			s.observe(tok)
		}
		if tok.Type == token.COMMENT {
			s.leading = append(s.leading, tok)
		}
		if !tok.Type.IsTrivia() {
			s.peek = tok
			return tok
		}
	}
}

// PeekType returns the type of the next token.
func (s *TokenSource) PeekType() token.Type {
	return s.Peek().Type
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

// AcceptText scans the next token if it has type typ and text text.
func (s *TokenSource) AcceptText(typ token.Type, text string) bool {
	return s.Accept(func(tok *token.Token) bool {
		return tok.Type == typ && tok.Text == text
	})
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		s.Comments = s.leading
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.Comments = s.leading
	s.peek = nil
}
