// Copyright © 2024 The ELPS authors

package lexer

import (
	"bytes"

	"github.com/luthersystems/perlmro/parser/token"
)

// lexHeredocOpener lexes <<ID, <<"ID", <<'ID' and the indented <<~ forms.
// The body is lexed after the next newline in code.
func (m *machine) lexHeredocOpener() (token.Type, bool) {
	rest := m.s.Remaining()[2:]
	h := Heredoc{Interpolated: true}
	i := 0
	if i < len(rest) && rest[i] == '~' {
		h.Indented = true
		i++
	}
	switch {
	case i < len(rest) && (rest[i] == '"' || rest[i] == '\''):
		q := rest[i]
		end := bytes.IndexByte(rest[i+1:], q)
		if end < 0 || bytes.IndexByte(rest[i+1:i+1+end], '\n') >= 0 {
			return 0, false
		}
		h.Marker = string(rest[i+1 : i+1+end])
		h.Interpolated = q == '"'
		i += end + 2
	case i < len(rest) && isWordStartByte(rest[i]):
		j := i
		for j < len(rest) && isWordByte(rest[j]) {
			j++
		}
		h.Marker = string(rest[i:j])
		i = j
	default:
		return 0, false
	}
	m.s.Advance(2 + i)
	m.st = m.st.pushHeredoc(h)
	m.st.Expect = ExpectOperator
	return token.HEREDOC_OPENER, true
}

// terminates reports whether line (without its newline) ends the heredoc.
func (h Heredoc) terminates(line []byte) bool {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if h.Indented {
		line = bytes.TrimLeft(line, " \t")
	}
	return string(line) == h.Marker
}

// lexHeredocBody lexes the body of the oldest pending heredoc as one token
// and its terminator line as a second token.  A heredoc without a terminator
// takes the rest of the input.
func (m *machine) lexHeredocBody() token.Type {
	s := m.s
	if len(m.st.Heredocs) == 0 {
		m.st.Mode = ModeCode
		return m.lexCode()
	}
	h := m.st.Heredocs[0]
	rest := s.Remaining()
	off := 0
	for off < len(rest) {
		line := rest[off:]
		end := bytes.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if h.terminates(line) {
			if off > 0 {
				s.Advance(off)
				return token.HEREDOC_BODY
			}
			n := len(line)
			if n == 0 {
				// an empty terminator line, as in <<""
				n = 1
			}
			s.Advance(n)
			m.st = m.st.popHeredoc()
			m.st.Mode = ModeCode
			if rest[n-1] == '\n' && len(m.st.Heredocs) > 0 {
				m.st.Mode = ModeHeredocBody
			}
			return token.HEREDOC_END
		}
		if end < 0 {
			break
		}
		off += end + 1
	}
	s.Advance(len(rest))
	m.unterminated = true
	m.st.Heredocs = nil
	m.st.Mode = ModeCode
	return token.HEREDOC_BODY
}
