package mdhavers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokenizeBasics(t *testing.T) {
	toks, err := NewLexer(`ken x = 1 + 2`).Tokenize()
	require.NoError(t, err)
	kinds := make([]TokKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokKind{TokKen, TokIdent, TokEq, TokInt, TokPlus, TokInt, TokEOF}, kinds)
}

func TestLexerEverySpanIsPositive(t *testing.T) {
	toks, err := NewLexer("ken x = 1\nblether x\n").Tokenize()
	require.NoError(t, err)
	for _, tok := range toks {
		assert.GreaterOrEqual(t, tok.Span.Line, 1, "token %v missing a span", tok)
		assert.GreaterOrEqual(t, tok.Span.Column, 1, "token %v missing a span", tok)
	}
}

func TestLexerNewlineIsStatementTerminator(t *testing.T) {
	toks, err := NewLexer("ken x = 1\nken y = 2").Tokenize()
	require.NoError(t, err)
	var sawNewline bool
	for _, tok := range toks {
		if tok.Kind == TokNewline {
			sawNewline = true
		}
	}
	assert.True(t, sawNewline)
}

func TestLexerNewlineSuppressedInsideBrackets(t *testing.T) {
	toks, err := NewLexer("[1,\n2,\n3]").Tokenize()
	require.NoError(t, err)
	for _, tok := range toks {
		assert.NotEqual(t, TokNewline, tok.Kind)
	}
}

func TestLexerRejectsBareExponent(t *testing.T) {
	_, err := NewLexer("1e").Tokenize()
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLexerFloatAndIntLiterals(t *testing.T) {
	toks, err := NewLexer("1 1.5 1e3 1.5e-2").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 5) // 4 literals + EOF
	assert.Equal(t, TokInt, toks[0].Kind)
	assert.Equal(t, TokFloat, toks[1].Kind)
	assert.Equal(t, TokFloat, toks[2].Kind)
	assert.Equal(t, TokFloat, toks[3].Kind)
	assert.InDelta(t, 1.5e-2, toks[3].FVal, 1e-12)
}

func TestLexerStringEscapes(t *testing.T) {
	toks, err := NewLexer(`"a\nb\tc\"d"`).Tokenize()
	require.NoError(t, err)
	require.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "a\nb\tc\"d", toks[0].Lit)
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"unterminated`).Tokenize()
	require.Error(t, err)
}

func TestLexerKeywords(t *testing.T) {
	toks, err := NewLexer("ken dae gin ither whiles fer gie blether keek whan fetch tae hae_a_bash gin_it_gangs_wrang hurl mak_siccar aye nae naething").Tokenize()
	require.NoError(t, err)
	want := []TokKind{
		TokKen, TokDae, TokGin, TokIther, TokWhiles, TokFer, TokGie, TokBlether,
		TokKeek, TokWhan, TokFetch, TokTae, TokHaeABash, TokGinItGangsWrang,
		TokHurl, TokMakSiccar, TokAye, TokNae, TokNaething, TokEOF,
	}
	got := make([]TokKind, 0, len(toks))
	for _, tok := range toks {
		got = append(got, tok.Kind)
	}
	assert.Equal(t, want, got)
}
