// Copyright © 2018 The ELPS authors

package token

import (
	"bytes"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from an in-memory source.
// Invalid utf-8 bytes are scanned as single runes with value
// utf8.RuneError so that scanning always makes progress.
type Scanner struct {
	file string
	path string
	src  []byte

	start     int // start of the current token
	startLine int
	startCol  int
	pos       int // next byte to be scanned
	line      int
	col       int
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(file string, src []byte) *Scanner {
	return &Scanner{
		file:      file,
		src:       src,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// ReadScanner reads r to completion and returns a Scanner over its contents.
func ReadScanner(file string, r io.Reader) (*Scanner, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return NewScanner(file, src), nil
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.pos])
}

// Len returns the number of bytes scanned for the current token.
func (s *Scanner) Len() int {
	return s.pos - s.start
}

// Pos returns the offset of the next byte to be scanned.
func (s *Scanner) Pos() int {
	return s.pos
}

// Remaining returns the unscanned input.  The returned slice must not be
// modified.
func (s *Scanner) Remaining() []byte {
	return s.src[s.pos:]
}

// HasPrefix reports whether the unscanned input begins with prefix.
func (s *Scanner) HasPrefix(prefix string) bool {
	return bytes.HasPrefix(s.src[s.pos:], []byte(prefix))
}

// Peek returns the next rune to be scanned.  Peek returns a false second value
// at the end of input.
func (s *Scanner) Peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	c, _ := utf8.DecodeRune(s.src[s.pos:])
	return c, true
}

// PeekByte returns the byte n positions past the next one, or 0 beyond the
// end of input.
func (s *Scanner) PeekByte(n int) byte {
	if s.pos+n >= len(s.src) || s.pos+n < 0 {
		return 0
	}
	return s.src[s.pos+n]
}

// ScanRune scans one rune into the current token.  ScanRune returns false at
// the end of input.
func (s *Scanner) ScanRune() bool {
	if s.pos >= len(s.src) {
		return false
	}
	c, n := utf8.DecodeRune(s.src[s.pos:])
	s.pos += n
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return true
}

// Advance scans n bytes into the current token, stopping at the end of input.
func (s *Scanner) Advance(n int) {
	end := s.pos + n
	if end > len(s.src) {
		end = len(s.src)
	}
	for s.pos < end {
		s.ScanRune()
	}
}

// EOF reports whether the input is exhausted.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

// Accept scans the next rune if fn reports true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune()
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(peek rune) bool { return peek == c })
}

// AcceptSeq scans runes while fn reports true and returns the number
// scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(func(c rune) bool { return '0' <= c && c <= '9' })
}

func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(unicode.IsSpace)
}

// AcceptString scans literal if the input begins with it.  Nothing is scanned
// when the input does not match.
func (s *Scanner) AcceptString(literal string) bool {
	if !s.HasPrefix(literal) {
		return false
	}
	s.Advance(len(literal))
	return true
}

// AcceptLine scans through the next newline, or to the end of input.
func (s *Scanner) AcceptLine() int {
	rest := s.src[s.pos:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		s.Advance(len(rest))
		return len(rest)
	}
	s.Advance(i + 1)
	return i + 1
}

// LocStart returns a Location referencing the beginning of the current token,
// just beyond the end of the previous token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}
