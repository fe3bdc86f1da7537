package mapdraft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizerBasics(t *testing.T) {
	tok := newTokenizer("{\n\"classname\" \"worldspawn\"\n( -16 0 0.5 ) [ 1 0 0 0 ]\n}\n")

	expected := []struct {
		typ  tokenType
		text string
		line int
	}{
		{tokenOBrace, "{", 1},
		{tokenString, "classname", 2},
		{tokenString, "worldspawn", 2},
		{tokenOParen, "(", 3},
		{tokenWord, "-16", 3},
		{tokenWord, "0", 3},
		{tokenWord, "0.5", 3},
		{tokenCParen, ")", 3},
		{tokenOBracket, "[", 3},
		{tokenWord, "1", 3},
		{tokenWord, "0", 3},
		{tokenWord, "0", 3},
		{tokenWord, "0", 3},
		{tokenCBracket, "]", 3},
		{tokenCBrace, "}", 4},
		{tokenEOF, "", 5},
	}
	for i, want := range expected {
		got := tok.next()
		assert.Equal(t, want.typ, got.typ, "token %d", i)
		assert.Equal(t, want.text, got.text, "token %d", i)
		assert.Equal(t, want.line, got.line, "token %d", i)
	}
}

func TestTokenizerComments(t *testing.T) {
	tok := newTokenizer("// Format: Valve\n{ // trailing\n}\n")

	first := tok.next()
	assert.Equal(t, tokenComment, first.typ)
	assert.Equal(t, "Format: Valve", first.text)

	assert.Equal(t, tokenOBrace, tok.nextNonComment().typ)
	assert.Equal(t, tokenCBrace, tok.nextNonComment().typ)
	assert.Equal(t, tokenEOF, tok.nextNonComment().typ)
}

func TestTokenizerPeek(t *testing.T) {
	tok := newTokenizer("// note\nhello")
	assert.Equal(t, tokenWord, tok.peekNonComment().typ)
	got := tok.nextNonComment()
	assert.Equal(t, "hello", got.text)
	assert.Equal(t, tokenEOF, tok.peek().typ)
}

func TestTokenizerMaterialNamesWithSlashes(t *testing.T) {
	tok := newTokenizer("e1m1/b_pv_v1a1 0")
	got := tok.next()
	assert.Equal(t, tokenWord, got.typ)
	assert.Equal(t, "e1m1/b_pv_v1a1", got.text)
}

func TestTokenizerUnterminatedString(t *testing.T) {
	tok := newTokenizer("\"open\nnext")
	got := tok.next()
	assert.Equal(t, tokenString, got.typ)
	assert.Equal(t, "open", got.text)
	assert.Equal(t, "next", tok.next().text)
}

func TestTokenizerEscapedStrings(t *testing.T) {
	tok := newTokenizer(`"say \"hello\"" "back\\slash" "plain"`)

	got := tok.next()
	assert.Equal(t, tokenString, got.typ)
	assert.Equal(t, `say "hello"`, got.text)

	assert.Equal(t, `back\slash`, tok.next().text)
	assert.Equal(t, "plain", tok.next().text)
	assert.Equal(t, tokenEOF, tok.next().typ)
}

func TestTokenizerUnknownEscapeStaysLiteral(t *testing.T) {
	tok := newTokenizer(`"tab\there"`)
	got := tok.next()
	assert.Equal(t, tokenString, got.typ)
	assert.Equal(t, `tab\there`, got.text)
}
