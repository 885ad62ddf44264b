package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tast-lang/tast/internal/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeGraphHeader(t *testing.T) {
	toks, err := Tokenize("flow.tast", `graph Checkout {`)
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.KeywordGraph, token.Ident, token.LBrace, token.EOF}, kinds(toks))
	assert.Equal(t, "Checkout", toks[1].Text)
}

func TestTokenizeSkipsComments(t *testing.T) {
	toks, err := Tokenize("flow.tast", "# a comment\nnode Foo")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.Newline, token.KeywordNode, token.Ident, token.EOF}, kinds(toks))
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize("flow.tast", `"line one\nline two \"quoted\""`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "line one\nline two \"quoted\"", toks[0].Text)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := Tokenize("flow.tast", `"unterminated`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string literal")
}

func TestTokenizeFreeTextWithParams(t *testing.T) {
	toks, err := Tokenize("flow.tast", "given a user <user_id> exists\n")
	require.NoError(t, err)

	// given, then free text + param tokens, then newline, then EOF.
	require.True(t, len(toks) >= 4)
	assert.Equal(t, token.KeywordGiven, toks[0].Kind)

	var free []string
	var params []string
	for _, tok := range toks[1:] {
		switch tok.Kind {
		case token.FreeText:
			free = append(free, tok.Text)
		case token.Param:
			params = append(params, tok.Text)
		}
	}
	assert.Equal(t, []string{"user_id"}, params)
	// Fragments keep the spaces on both sides of the parameter so the
	// original step text reconstructs verbatim around it.
	assert.Contains(t, free, "a user ")
	assert.Contains(t, free, " exists")
}

func TestTokenizeFreeTextStopsBeforeBrace(t *testing.T) {
	toks, err := Tokenize("flow.tast", "then the order total is <amount> {\n  currency: \"USD\"\n}")
	require.NoError(t, err)

	assert.Equal(t, token.KeywordThen, toks[0].Kind)

	foundBrace := false
	for _, tok := range toks {
		if tok.Kind == token.LBrace {
			foundBrace = true
		}
		if tok.Kind == token.FreeText {
			assert.NotContains(t, tok.Text, "{")
		}
	}
	assert.True(t, foundBrace)
}

func TestTokenizeAndButKeywordsTriggerFreeText(t *testing.T) {
	toks, err := Tokenize("flow.tast", "and the cart is empty\nbut the user is banned\n")
	require.NoError(t, err)
	assert.Equal(t, token.KeywordAnd, toks[0].Kind)
	var sawBut bool
	for _, tok := range toks {
		if tok.Kind == token.KeywordBut {
			sawBut = true
		}
	}
	assert.True(t, sawBut)
}

func TestTokenizeNumberLiteral(t *testing.T) {
	toks, err := Tokenize("flow.tast", "42 3.14")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, "3.14", toks[1].Text)
}

func TestTokenizeArrowAndPunctuation(t *testing.T) {
	toks, err := Tokenize("flow.tast", "A -> B, C.D: [tag]")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.Ident, token.Arrow, token.Ident, token.Comma, token.Ident, token.Dot, token.Ident,
		token.Colon, token.LBracket, token.Ident, token.RBracket, token.EOF,
	}, kinds(toks))
}

func TestTokenizeSpanTracksLineAndColumn(t *testing.T) {
	toks, err := Tokenize("flow.tast", "graph A {\n  node B\n}")
	require.NoError(t, err)
	var nodeTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.KeywordNode {
			nodeTok = tok
		}
	}
	assert.Equal(t, 2, nodeTok.Span.Line)
	assert.Equal(t, 3, nodeTok.Span.Column)
}
