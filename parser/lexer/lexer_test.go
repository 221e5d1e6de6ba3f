// Copyright © 2018 The ELPS authors

package lexer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/luthersystems/perlmro/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	typ  token.Type
	text string
}

func t_(typ token.Type, text string) tok {
	return tok{typ, text}
}

// lexTypes returns the non-whitespace tokens of input, without EOF.
func lexTypes(t *testing.T, input string) []tok {
	t.Helper()
	var toks []tok
	lex := New(token.NewScanner("test", []byte(input)))
	for i := 0; ; i++ {
		if i > 10*len(input)+10 {
			t.Fatalf("apparent infinite scanning loop: %q", input)
		}
		x := lex.ReadToken()
		if x.Type == token.EOF {
			return toks
		}
		if x.Type == token.WHITESPACE {
			continue
		}
		toks = append(toks, tok{x.Type, x.Text})
	}
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []tok
	}{
		{``, nil},
		{`$x / 2`, []tok{
			t_(token.VARIABLE, "$x"),
			t_(token.OPERATOR, "/"),
			t_(token.NUMBER, "2"),
		}},
		{`split /,/, $s`, []tok{
			t_(token.WORD, "split"),
			t_(token.QUOTE_OPEN, "/"),
			t_(token.REGEX, ","),
			t_(token.QUOTE_CLOSE, "/"),
			t_(token.COMMA, ","),
			t_(token.VARIABLE, "$s"),
		}},
		{`$x //= 1`, []tok{
			t_(token.VARIABLE, "$x"),
			t_(token.OPERATOR, "//="),
			t_(token.NUMBER, "1"),
		}},
		{`$x =~ m#a/b#i`, []tok{
			t_(token.VARIABLE, "$x"),
			t_(token.OPERATOR, "=~"),
			t_(token.QUOTE_OP, "m"),
			t_(token.QUOTE_OPEN, "#"),
			t_(token.REGEX, "a/b"),
			t_(token.QUOTE_CLOSE, "#"),
			t_(token.REGEX_MODIFIERS, "i"),
		}},
		{`q{a{b}c}`, []tok{
			t_(token.QUOTE_OP, "q"),
			t_(token.QUOTE_OPEN, "{"),
			t_(token.STRING, "a{b}c"),
			t_(token.QUOTE_CLOSE, "}"),
		}},
		{`qw [a [b] c];`, []tok{
			t_(token.QUOTE_OP, "qw"),
			t_(token.QUOTE_OPEN, "["),
			t_(token.WORD_LIST, "a [b] c"),
			t_(token.QUOTE_CLOSE, "]"),
			t_(token.SEMICOLON, ";"),
		}},
		{`s{foo}{bar}gr`, []tok{
			t_(token.QUOTE_OP, "s"),
			t_(token.QUOTE_OPEN, "{"),
			t_(token.REGEX, "foo"),
			t_(token.QUOTE_CLOSE, "}"),
			t_(token.QUOTE_OPEN, "{"),
			t_(token.REPLACEMENT, "bar"),
			t_(token.QUOTE_CLOSE, "}"),
			t_(token.REGEX_MODIFIERS, "gr"),
		}},
		{"s(a) # note\n [b]", []tok{
			t_(token.QUOTE_OP, "s"),
			t_(token.QUOTE_OPEN, "("),
			t_(token.REGEX, "a"),
			t_(token.QUOTE_CLOSE, ")"),
			t_(token.COMMENT, "# note"),
			t_(token.QUOTE_OPEN, "["),
			t_(token.REPLACEMENT, "b"),
			t_(token.QUOTE_CLOSE, "]"),
		}},
		{`s/a\/b/c/g;`, []tok{
			t_(token.QUOTE_OP, "s"),
			t_(token.QUOTE_OPEN, "/"),
			t_(token.REGEX, `a\/b`),
			t_(token.QUOTE_CLOSE, "/"),
			t_(token.REPLACEMENT, "c"),
			t_(token.QUOTE_CLOSE, "/"),
			t_(token.REGEX_MODIFIERS, "g"),
			t_(token.SEMICOLON, ";"),
		}},
		{`tr/a-z//`, []tok{
			t_(token.QUOTE_OP, "tr"),
			t_(token.QUOTE_OPEN, "/"),
			t_(token.TRANSLITERATION, "a-z"),
			t_(token.QUOTE_CLOSE, "/"),
			t_(token.QUOTE_CLOSE, "/"),
		}},
		{`y => 1, s => 2`, []tok{
			t_(token.WORD, "y"),
			t_(token.FAT_COMMA, "=>"),
			t_(token.NUMBER, "1"),
			t_(token.COMMA, ","),
			t_(token.WORD, "s"),
			t_(token.FAT_COMMA, "=>"),
			t_(token.NUMBER, "2"),
		}},
		{`$obj->s(1)`, []tok{
			t_(token.VARIABLE, "$obj"),
			t_(token.ARROW, "->"),
			t_(token.WORD, "s"),
			t_(token.PAREN_L, "("),
			t_(token.NUMBER, "1"),
			t_(token.PAREN_R, ")"),
		}},
		{`$h{s} / $h{y}`, []tok{
			t_(token.VARIABLE, "$h"),
			t_(token.BRACE_L, "{"),
			t_(token.WORD, "s"),
			t_(token.BRACE_R, "}"),
			t_(token.OPERATOR, "/"),
			t_(token.VARIABLE, "$h"),
			t_(token.BRACE_L, "{"),
			t_(token.WORD, "y"),
			t_(token.BRACE_R, "}"),
		}},
		{`"a\"b" . 'c'`, []tok{
			t_(token.QUOTE_OPEN, `"`),
			t_(token.STRING, `a\"b`),
			t_(token.QUOTE_CLOSE, `"`),
			t_(token.OPERATOR, "."),
			t_(token.QUOTE_OPEN, `'`),
			t_(token.STRING, "c"),
			t_(token.QUOTE_CLOSE, `'`),
		}},
		{`""`, []tok{
			t_(token.QUOTE_OPEN, `"`),
			t_(token.QUOTE_CLOSE, `"`),
		}},
		{`$x << 2`, []tok{
			t_(token.VARIABLE, "$x"),
			t_(token.OPERATOR, "<<"),
			t_(token.NUMBER, "2"),
		}},
		{"=pod\n\nfoo\n=cut\nsub x {}", []tok{
			t_(token.POD, "=pod\n\nfoo\n=cut\n"),
			t_(token.WORD, "sub"),
			t_(token.WORD, "x"),
			t_(token.BRACE_L, "{"),
			t_(token.BRACE_R, "}"),
		}},
		{"1;\n__END__\nraw $stuff {", []tok{
			t_(token.NUMBER, "1"),
			t_(token.SEMICOLON, ";"),
			t_(token.DATA, "__END__\nraw $stuff {"),
		}},
		{"# c\n$x", []tok{
			t_(token.COMMENT, "# c"),
			t_(token.VARIABLE, "$x"),
		}},
		{`sub foo($$) { }`, []tok{
			t_(token.WORD, "sub"),
			t_(token.WORD, "foo"),
			t_(token.PROTOTYPE, "($$)"),
			t_(token.BRACE_L, "{"),
			t_(token.BRACE_R, "}"),
		}},
		{`0x1f 1_000 3.14 1e-3 1..10`, []tok{
			t_(token.NUMBER, "0x1f"),
			t_(token.NUMBER, "1_000"),
			t_(token.NUMBER, "3.14"),
			t_(token.NUMBER, "1e-3"),
			t_(token.NUMBER, "1"),
			t_(token.OPERATOR, ".."),
			t_(token.NUMBER, "10"),
		}},
		{`-e $file`, []tok{
			t_(token.OPERATOR, "-e"),
			t_(token.VARIABLE, "$file"),
		}},
		{`my $l = <STDIN>;`, []tok{
			t_(token.WORD, "my"),
			t_(token.VARIABLE, "$l"),
			t_(token.OPERATOR, "="),
			t_(token.READLINE, "<STDIN>"),
			t_(token.SEMICOLON, ";"),
		}},
		{`use parent -norequire, 'Foo::Bar';`, []tok{
			t_(token.WORD, "use"),
			t_(token.WORD, "parent"),
			t_(token.OPERATOR, "-"),
			t_(token.WORD, "norequire"),
			t_(token.COMMA, ","),
			t_(token.QUOTE_OPEN, "'"),
			t_(token.STRING, "Foo::Bar"),
			t_(token.QUOTE_CLOSE, "'"),
			t_(token.SEMICOLON, ";"),
		}},
		{`package ::Foo::Bar::;`, []tok{
			t_(token.WORD, "package"),
			t_(token.WORD, "::Foo::Bar::"),
			t_(token.SEMICOLON, ";"),
		}},
		{`sub s { }`, []tok{
			t_(token.WORD, "sub"),
			t_(token.WORD, "s"),
			t_(token.BRACE_L, "{"),
			t_(token.BRACE_R, "}"),
		}},
		{`$x++ / 2`, []tok{
			t_(token.VARIABLE, "$x"),
			t_(token.OPERATOR, "++"),
			t_(token.OPERATOR, "/"),
			t_(token.NUMBER, "2"),
		}},
		{`__PACKAGE__->new`, []tok{
			t_(token.WORD, "__PACKAGE__"),
			t_(token.ARROW, "->"),
			t_(token.WORD, "new"),
		}},
	}
	for i, test := range tests {
		assert.Equal(t, test.tokens, lexTypes(t, test.input), "test %d: %q", i, test.input)
	}
}

func TestLexerVariables(t *testing.T) {
	tests := []struct {
		input string
		first tok
	}{
		{`$x`, t_(token.VARIABLE, "$x")},
		{`$Foo::bar`, t_(token.VARIABLE, "$Foo::bar")},
		{`$::main_var`, t_(token.VARIABLE, "$::main_var")},
		{`@ISA`, t_(token.VARIABLE, "@ISA")},
		{`@Foo::ISA`, t_(token.VARIABLE, "@Foo::ISA")},
		{`@_`, t_(token.VARIABLE, "@_")},
		{`$_`, t_(token.VARIABLE, "$_")},
		{`$@`, t_(token.VARIABLE, "$@")},
		{`$0`, t_(token.VARIABLE, "$0")},
		{`$1`, t_(token.VARIABLE, "$1")},
		{`$^W`, t_(token.VARIABLE, "$^W")},
		{`${^WARNING_BITS}`, t_(token.VARIABLE, "${^WARNING_BITS}")},
		{`$#array`, t_(token.VARIABLE, "$#array")},
		{`$#{$r}`, t_(token.CAST, "$#")},
		{`$#$r`, t_(token.CAST, "$#")},
		{`@{$r}`, t_(token.CAST, "@")},
		{`$$r`, t_(token.CAST, "$")},
		{`$$;`, t_(token.VARIABLE, "$$")},
		{`%h`, t_(token.VARIABLE, "%h")},
		{`%$h`, t_(token.CAST, "%")},
		{`%+`, t_(token.VARIABLE, "%+")},
		{`*STDOUT`, t_(token.VARIABLE, "*STDOUT")},
		{`*{"Foo::bar"}`, t_(token.CAST, "*")},
		{`&foo`, t_(token.VARIABLE, "&foo")},
		{`&$code`, t_(token.CAST, "&")},
	}
	for _, test := range tests {
		toks := lexTypes(t, test.input)
		require.NotEmpty(t, toks, test.input)
		assert.Equal(t, test.first, toks[0], test.input)
	}
}

func TestLexerOperatorSigils(t *testing.T) {
	assert.Equal(t, []tok{
		t_(token.VARIABLE, "$a"),
		t_(token.OPERATOR, "%"),
		t_(token.VARIABLE, "$b"),
		t_(token.OPERATOR, "&&"),
		t_(token.VARIABLE, "$c"),
		t_(token.OPERATOR, "**"),
		t_(token.NUMBER, "2"),
	}, lexTypes(t, `$a % $b && $c ** 2`))
}

func TestLexerHeredoc(t *testing.T) {
	toks := Tokenize("test", []byte("<<END\nfoo\nEND\n"))
	var types []token.Type
	for _, x := range toks {
		if x.Type != token.WHITESPACE {
			types = append(types, x.Type)
		}
	}
	assert.Equal(t, []token.Type{
		token.HEREDOC_OPENER,
		token.HEREDOC_BODY,
		token.HEREDOC_END,
		token.EOF,
	}, types)
	assert.Equal(t, "<<END", toks[0].Text)
	assert.Equal(t, "foo\n", toks[2].Text)
	assert.Equal(t, "END", toks[3].Text)
	for _, x := range toks {
		assert.False(t, x.Unterminated, x.String())
	}
}

func TestLexerHeredocForms(t *testing.T) {
	input := "print <<A, <<~\"B\", <<'C';\nx\nA\n  y $v\n  B\n\\n\nC\n$z"
	assert.Equal(t, []tok{
		t_(token.WORD, "print"),
		t_(token.HEREDOC_OPENER, "<<A"),
		t_(token.COMMA, ","),
		t_(token.HEREDOC_OPENER, `<<~"B"`),
		t_(token.COMMA, ","),
		t_(token.HEREDOC_OPENER, "<<'C'"),
		t_(token.SEMICOLON, ";"),
		t_(token.HEREDOC_BODY, "x\n"),
		t_(token.HEREDOC_END, "A"),
		t_(token.HEREDOC_BODY, "  y $v\n"),
		t_(token.HEREDOC_END, "  B"),
		t_(token.HEREDOC_BODY, "\\n\n"),
		t_(token.HEREDOC_END, "C"),
		t_(token.VARIABLE, "$z"),
	}, lexTypes(t, input))
}

func TestLexerHeredocState(t *testing.T) {
	res := Next(State{}, []byte(`<<~"EOT";`))
	require.Equal(t, token.HEREDOC_OPENER, res.Type)
	assert.Equal(t, 8, res.Len)
	assert.Equal(t, []Heredoc{{Marker: "EOT", Indented: true, Interpolated: true}}, res.State.Heredocs)
	assert.Equal(t, ExpectOperator, res.State.Expect)

	// The empty body is skipped; the terminator follows the newline.
	st := res.State
	res = Next(st, []byte(";\nEOT\n"))
	assert.Equal(t, token.SEMICOLON, res.Type)
	res = Next(res.State, []byte("\nEOT\n"))
	assert.Equal(t, token.WHITESPACE, res.Type)
	assert.Equal(t, 1, res.Len)
	assert.Equal(t, ModeHeredocBody, res.State.Mode)
	res = Next(res.State, []byte("EOT\n"))
	assert.Equal(t, token.HEREDOC_END, res.Type)
	assert.Empty(t, res.State.Heredocs)
	assert.Equal(t, ModeCode, res.State.Mode)

	// The original state is untouched.
	assert.Len(t, st.Heredocs, 1)
}

func TestLexerShiftIsNotHeredoc(t *testing.T) {
	res := Next(State{Expect: ExpectOperator}, []byte("<<END"))
	assert.Equal(t, token.OPERATOR, res.Type)
	assert.Equal(t, 2, res.Len)
	assert.Empty(t, res.State.Heredocs)
}

func TestLexerUnterminated(t *testing.T) {
	tests := []struct {
		input string
		typ   token.Type
		text  string
	}{
		{"q{abc", token.STRING, "abc"},
		{"qq(a(b)", token.STRING, "a(b)"},
		{`"abc\`, token.STRING, `abc\`},
		{"s/a/b", token.REPLACEMENT, "b"},
		{"<<END\nabc\n", token.HEREDOC_BODY, "abc\n"},
		{"sub foo ($", token.PROTOTYPE, "($"},
	}
	for _, test := range tests {
		toks := Tokenize("test", []byte(test.input))
		require.True(t, len(toks) >= 2, test.input)
		last := toks[len(toks)-2]
		assert.Equal(t, test.typ, last.Type, test.input)
		assert.Equal(t, test.text, last.Text, test.input)
		assert.True(t, last.Unterminated, test.input)
		assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
	}

	// A literal cut off right after its opening delimiter ends in an
	// unterminated EOF.
	toks := Tokenize("test", []byte("q{"))
	assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
	assert.True(t, toks[len(toks)-1].Unterminated)
}

func TestLexerNestedDelimiters(t *testing.T) {
	tests := []struct {
		op, open, close, body string
	}{
		{"q", "{", "}", "a {b {c}} d"},
		{"qq", "(", ")", "(x) (y (z))"},
		{"qw", "[", "]", "a [b] [[c]]"},
		{"q", "<", ">", "<<a>>"},
	}
	for _, test := range tests {
		input := test.op + test.open + test.body + test.close + ";"
		var content *token.Token
		lex := New(token.NewScanner("test", []byte(input)))
		for {
			x := lex.ReadToken()
			if x.Type.IsLiteralContent() {
				content = x
			}
			if x.Type == token.QUOTE_CLOSE {
				assert.Equal(t, 0, lex.State().Quote.Depth, input)
				assert.Equal(t, ModeCode, lex.State().Mode, input)
			}
			if x.Type == token.EOF {
				break
			}
		}
		require.NotNil(t, content, input)
		assert.Equal(t, test.body, content.Text, input)
		assert.Equal(t, len(test.op)+len(test.open), content.Source.Pos, input)
	}
}

func TestLexerLocations(t *testing.T) {
	toks := Tokenize("a.pl", []byte("my $x;\nq{a\nb} $y"))
	var y *token.Token
	for _, x := range toks {
		if x.Text == "$y" {
			y = x
		}
	}
	require.NotNil(t, y)
	assert.Equal(t, "a.pl:3:4", y.Source.String())
}

func TestNextProgress(t *testing.T) {
	inputs := []string{
		"\xff\xfe$",
		"@",
		"$",
		"<<",
		"<<\"unterminated",
		"s{a}",
		"tr{a}{b",
		"m",
		"=",
		"=head1",
		"${^",
		"\x00\x01",
		strings.Repeat("{", 20),
	}
	r := rand.New(rand.NewSource(7))
	const alphabet = "qsmy/{}()[]<>'\"`\\#$@%&*=~-\n \t<<ENDx0_:;,"
	for i := 0; i < 200; i++ {
		b := make([]byte, r.Intn(40))
		for j := range b {
			b[j] = alphabet[r.Intn(len(alphabet))]
		}
		inputs = append(inputs, string(b))
	}
	for _, input := range inputs {
		var st State
		rest := []byte(input)
		for steps := 0; ; steps++ {
			require.Less(t, steps, len(input)+2, "no progress lexing %q", input)
			res := Next(st, rest)
			if res.Type == token.EOF {
				assert.Equal(t, 0, res.Len)
				break
			}
			require.Positive(t, res.Len, "zero length %v lexing %q", res.Type, input)
			rest = rest[res.Len:]
			st = res.State
		}
	}
}

func TestNextIsPure(t *testing.T) {
	st := State{Expect: ExpectValue}
	input := []byte("s{a}{b}g; $x")
	a := Next(st, input)
	b := Next(st, input)
	assert.Equal(t, a, b)
	assert.Equal(t, "s{a}{b}g; $x", string(input))
}
