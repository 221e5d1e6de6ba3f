// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
	// Unterminated is set on a literal or heredoc that reached the end of
	// input before its closing delimiter.
	Unterminated bool
}

func (tok *Token) String() string {
	return fmt.Sprintf("%v %q", tok.Type, tok.Text)
}

type Type uint

// Type constants used by the Perl lexer.
const (
	INVALID Type = iota
	EOF

	// Trivia
	WHITESPACE
	COMMENT
	POD
	DATA

	// Atoms
	WORD
	VARIABLE
	CAST // a sigil applied to a block or another variable: @{ $$ %$
	NUMBER
	PROTOTYPE
	READLINE

	// Quote-like literals
	QUOTE_OP
	QUOTE_OPEN
	QUOTE_CLOSE
	STRING
	WORD_LIST
	REGEX
	REPLACEMENT
	TRANSLITERATION
	REGEX_MODIFIERS

	// Heredocs
	HEREDOC_OPENER
	HEREDOC_BODY
	HEREDOC_END

	// Operators & punctuation
	OPERATOR
	ARROW
	FAT_COMMA
	COMMA
	SEMICOLON
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R
	BRACKET_L
	BRACKET_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:         "invalid",
		EOF:             "EOF",
		WHITESPACE:      "whitespace",
		COMMENT:         "comment",
		POD:             "pod",
		DATA:            "data",
		WORD:            "word",
		VARIABLE:        "variable",
		CAST:            "cast",
		NUMBER:          "number",
		PROTOTYPE:       "prototype",
		READLINE:        "readline",
		QUOTE_OP:        "quote-op",
		QUOTE_OPEN:      "quote-open",
		QUOTE_CLOSE:     "quote-close",
		STRING:          "string",
		WORD_LIST:       "word-list",
		REGEX:           "regex",
		REPLACEMENT:     "replacement",
		TRANSLITERATION: "transliteration",
		REGEX_MODIFIERS: "regex-modifiers",
		HEREDOC_OPENER:  "heredoc-opener",
		HEREDOC_BODY:    "heredoc-body",
		HEREDOC_END:     "heredoc-end",
		OPERATOR:        "operator",
		ARROW:           "->",
		FAT_COMMA:       "=>",
		COMMA:           ",",
		SEMICOLON:       ";",
		PAREN_L:         "(",
		PAREN_R:         ")",
		BRACE_L:         "{",
		BRACE_R:         "}",
		BRACKET_L:       "[",
		BRACKET_R:       "]",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsTrivia reports whether tokens of type typ carry no syntax.
func (typ Type) IsTrivia() bool {
	return typ == WHITESPACE || typ == COMMENT || typ == POD
}

// IsLiteralContent reports whether typ is the body of a quote-like literal or
// heredoc.
func (typ Type) IsLiteralContent() bool {
	switch typ {
	case STRING, WORD_LIST, REGEX, REPLACEMENT, TRANSLITERATION, HEREDOC_BODY:
		return true
	}
	return false
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
