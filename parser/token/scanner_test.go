// Copyright © 2018 The ELPS authors

package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEOF(t *testing.T) {
	s := NewScanner("test", []byte("xxxxxxxxxx"))
	for i := 0; i < 10; i++ {
		assert.True(t, s.ScanRune(), "rune %d", i)
	}
	tok := s.EmitToken(WORD)
	assert.Equal(t, "xxxxxxxxxx", tok.Text)
	for i := 0; i < 3; i++ {
		tok := s.EmitToken(EOF)
		assert.Equal(t, "", tok.Text)
		assert.False(t, s.ScanRune())
		assert.True(t, s.EOF())
	}
}

func TestScannerAcceptSeq(t *testing.T) {
	s := NewScanner("", []byte("xxxxxxxxxx"))
	assert.Equal(t, 10, s.AcceptSeq(func(c rune) bool { return true }))
	s.Ignore()
	assert.False(t, s.Accept(func(c rune) bool { return true }))
	assert.True(t, s.EOF())
}

func TestScannerLocations(t *testing.T) {
	s := NewScanner("lib/Foo.pm", []byte("package Foo;\nsub bar {}\n"))
	s.SetPath("/abs/lib/Foo.pm")

	assert.True(t, s.AcceptString("package"))
	tok := s.EmitToken(WORD)
	assert.Equal(t, &Location{File: "lib/Foo.pm", Path: "/abs/lib/Foo.pm", Pos: 0, Line: 1, Col: 1}, tok.Source)

	s.AcceptLine()
	s.Ignore()
	assert.True(t, s.AcceptString("sub"))
	s.AcceptSeqSpace()
	s.Ignore()
	s.AcceptSeq(func(c rune) bool { return c != ' ' })
	tok = s.EmitToken(WORD)
	assert.Equal(t, "bar", tok.Text)
	assert.Equal(t, "lib/Foo.pm:2:5", tok.Source.String())
	assert.Equal(t, 17, tok.Source.Pos)
}

func TestScannerAcceptString(t *testing.T) {
	s := NewScanner("", []byte("qw(a b)"))
	assert.False(t, s.AcceptString("qq"))
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.AcceptString("qw"))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.HasPrefix("(a"))
	assert.Equal(t, byte('a'), s.PeekByte(1))
	assert.Equal(t, byte(0), s.PeekByte(100))
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("", []byte{'a', 0xff, 'b'})
	n := 0
	for s.ScanRune() {
		n++
	}
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, s.Len())
}

func TestScannerMultibyte(t *testing.T) {
	s := NewScanner("", []byte("é\nx"))
	s.AcceptLine()
	s.Ignore()
	require.True(t, s.AcceptRune('x'))
	tok := s.EmitToken(WORD)
	assert.Equal(t, 2, tok.Source.Line)
	assert.Equal(t, 1, tok.Source.Col)
	assert.Equal(t, 3, tok.Source.Pos)
}

func TestReadScanner(t *testing.T) {
	s, err := ReadScanner("stdin", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.AcceptSeq(func(c rune) bool { return true }))
	assert.Equal(t, "abc", s.Text())
}
