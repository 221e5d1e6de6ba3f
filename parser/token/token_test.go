// Copyright © 2018 The ELPS authors

package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for tok := Type(0); tok < numTokenTypes; tok++ {
		str := tok.String()
		t.Log(str)
		if str == "" {
			t.Errorf("token type %x has empty string value", tok)
			continue
		}
		if used[str] {
			t.Errorf("token type string used twice: %v", tok)
		}
		used[str] = true
	}
	assert.Equal(t, "invalid", numTokenTypes.String())
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{File: "a.pm", Pos: -1}, "a.pm"},
		{Location{File: "a.pm", Pos: 4}, "a.pm[4]"},
		{Location{File: "a.pm", Pos: 4, Line: 2}, "a.pm:2"},
		{Location{File: "a.pm", Pos: 4, Line: 2, Col: 3}, "a.pm:2:3"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.loc.String())
	}
}

func TestLocationError(t *testing.T) {
	cause := errors.New("unterminated string")
	err := &LocationError{Err: cause, Source: &Location{File: "a.pm", Line: 1, Col: 9}}
	assert.Equal(t, "a.pm:1:9: unterminated string", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestTypeClasses(t *testing.T) {
	assert.True(t, COMMENT.IsTrivia())
	assert.False(t, WORD.IsTrivia())
	assert.True(t, HEREDOC_BODY.IsLiteralContent())
	assert.False(t, QUOTE_OPEN.IsLiteralContent())
}
