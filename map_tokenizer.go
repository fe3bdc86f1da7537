package mapdraft

import (
	"strings"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenOBrace
	tokenCBrace
	tokenOParen
	tokenCParen
	tokenOBracket
	tokenCBracket
	tokenString
	tokenWord
	tokenComment
)

func (t tokenType) String() string {
	switch t {
	case tokenOBrace:
		return "'{'"
	case tokenCBrace:
		return "'}'"
	case tokenOParen:
		return "'('"
	case tokenCParen:
		return "')'"
	case tokenOBracket:
		return "'['"
	case tokenCBracket:
		return "']'"
	case tokenString:
		return "string"
	case tokenWord:
		return "word"
	case tokenComment:
		return "comment"
	default:
		return "end of input"
	}
}

type token struct {
	typ  tokenType
	text string
	line int // 1-based
}

// tokenizer splits map source into braces, brackets, parens, quoted strings
// and bare words, tracking line numbers for node file positions.
type tokenizer struct {
	input  string
	pos    int
	line   int
	peeked *token
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{input: input, line: 1}
}

func (t *tokenizer) peek() token {
	if t.peeked == nil {
		tok := t.scan()
		t.peeked = &tok
	}
	return *t.peeked
}

func (t *tokenizer) next() token {
	if t.peeked != nil {
		tok := *t.peeked
		t.peeked = nil
		return tok
	}
	return t.scan()
}

// nextNonComment skips comment tokens.
func (t *tokenizer) nextNonComment() token {
	for {
		tok := t.next()
		if tok.typ != tokenComment {
			return tok
		}
	}
}

func (t *tokenizer) peekNonComment() token {
	for {
		tok := t.peek()
		if tok.typ != tokenComment {
			return tok
		}
		t.next()
	}
}

func (t *tokenizer) scan() token {
	t.skipWhitespace()
	if t.pos >= len(t.input) {
		return token{typ: tokenEOF, line: t.line}
	}

	start := t.pos
	line := t.line
	switch c := t.input[t.pos]; c {
	case '{':
		t.pos++
		return token{typ: tokenOBrace, text: "{", line: line}
	case '}':
		t.pos++
		return token{typ: tokenCBrace, text: "}", line: line}
	case '(':
		t.pos++
		return token{typ: tokenOParen, text: "(", line: line}
	case ')':
		t.pos++
		return token{typ: tokenCParen, text: ")", line: line}
	case '[':
		t.pos++
		return token{typ: tokenOBracket, text: "[", line: line}
	case ']':
		t.pos++
		return token{typ: tokenCBracket, text: "]", line: line}
	case '"':
		t.pos++
		textStart := t.pos
		escaped := false
		for t.pos < len(t.input) && t.input[t.pos] != '"' && t.input[t.pos] != '\n' {
			if t.input[t.pos] == '\\' && t.pos+1 < len(t.input) &&
				(t.input[t.pos+1] == '"' || t.input[t.pos+1] == '\\') {
				escaped = true
				t.pos++
			}
			t.pos++
		}
		text := t.input[textStart:t.pos]
		if escaped {
			text = unescapePropertyText(text)
		}
		if t.pos < len(t.input) && t.input[t.pos] == '"' {
			t.pos++
		}
		return token{typ: tokenString, text: text, line: line}
	case '/':
		if t.pos+1 < len(t.input) && t.input[t.pos+1] == '/' {
			t.pos += 2
			textStart := t.pos
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.pos++
			}
			return token{typ: tokenComment, text: strings.TrimSpace(t.input[textStart:t.pos]), line: line}
		}
		fallthrough
	default:
		for t.pos < len(t.input) && !isWordBreak(t.input[t.pos]) {
			t.pos++
		}
		return token{typ: tokenWord, text: t.input[start:t.pos], line: line}
	}
}

func (t *tokenizer) skipWhitespace() {
	for t.pos < len(t.input) {
		switch t.input[t.pos] {
		case '\n':
			t.line++
			t.pos++
		case ' ', '\t', '\r':
			t.pos++
		default:
			return
		}
	}
}

// unescapePropertyText resolves the backslash escapes the writer emits for
// quotes and backslashes. Any other backslash stays literal.
func unescapePropertyText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isWordBreak(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '(', ')', '[', ']', '"':
		return true
	}
	return false
}
