package save

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind classifies a lexical unit of the gamestate text.
type TokenKind uint8

const (
	TokenString TokenKind = iota
	TokenInteger
	TokenFloat
	TokenEqual
	TokenBraceOpen
	TokenBraceClose
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenString:
		return "string"
	case TokenInteger:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenEqual:
		return "="
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenEOF:
		return "EOF"
	default:
		return "unknown"
	}
}

// IsLiteral reports whether the token carries a scalar value.
func (k TokenKind) IsLiteral() bool {
	return k == TokenString || k == TokenInteger || k == TokenFloat
}

// Token is one lexical unit. Literal tokens carry their parsed value; Line is
// the 1-based line of the token's first character, or -1 for the synthetic
// EOF token.
type Token struct {
	Kind  TokenKind
	Text  string
	Int   int64
	Float float64
	Line  int
}

func (t Token) String() string {
	switch t.Kind {
	case TokenString:
		return fmt.Sprintf("string %q", t.Text)
	case TokenInteger, TokenFloat:
		return fmt.Sprintf("%s %s", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// Tokenizer splits gamestate text into tokens. It never fails: units that fit
// no numeric shape come out as strings, so any input produces a token stream
// ending in EOF. Malformed structure is the parser's concern.
type Tokenizer struct {
	src  string
	pos  int
	line int
}

func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src, line: 1}
}

// Next returns the next token. After the input is exhausted it returns the
// EOF token on every call.
func (t *Tokenizer) Next() Token {
	t.skipSpace()
	if t.pos >= len(t.src) {
		return Token{Kind: TokenEOF, Line: -1}
	}
	line := t.line
	switch c := t.src[t.pos]; c {
	case '=':
		t.pos++
		return Token{Kind: TokenEqual, Text: "=", Line: line}
	case '{':
		t.pos++
		return Token{Kind: TokenBraceOpen, Text: "{", Line: line}
	case '}':
		t.pos++
		return Token{Kind: TokenBraceClose, Text: "}", Line: line}
	case '"':
		return t.scanQuoted(line)
	default:
		return t.scanBare(line)
	}
}

func (t *Tokenizer) skipSpace() {
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ', '\t', '\r':
			t.pos++
		case '\n':
			t.line++
			t.pos++
		default:
			return
		}
	}
}

// scanQuoted consumes a quoted string. A quote preceded by a backslash does
// not terminate the string; the backslash is kept verbatim, matching the game
// files which never unescape. Newlines are legal inside quotes. An unclosed
// quote runs to the end of input.
func (t *Tokenizer) scanQuoted(line int) Token {
	start := t.pos
	t.pos++ // opening quote
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case '\\':
			if t.pos+1 < len(t.src) && t.src[t.pos+1] == '"' {
				t.pos += 2
				continue
			}
			t.pos++
		case '"':
			t.pos++
			return Token{Kind: TokenString, Text: strings.Trim(t.src[start:t.pos], `"`), Line: line}
		case '\n':
			t.line++
			t.pos++
		default:
			t.pos++
		}
	}
	return Token{Kind: TokenString, Text: strings.Trim(t.src[start:], `"`), Line: line}
}

// scanBare consumes a run of characters up to the next whitespace, brace,
// equals sign or quote, then classifies it as integer, float or string.
func (t *Tokenizer) scanBare(line int) Token {
	start := t.pos
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ', '\t', '\r', '\n', '=', '{', '}', '"':
			return classify(t.src[start:t.pos], line)
		}
		t.pos++
	}
	return classify(t.src[start:], line)
}

func classify(text string, line int) Token {
	if looksLikeInt(text) {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Token{Kind: TokenInteger, Text: text, Int: n, Line: line}
		}
		// Out of int64 range, keep it as a float.
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Token{Kind: TokenFloat, Text: text, Float: f, Line: line}
		}
	}
	if looksLikeFloat(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Token{Kind: TokenFloat, Text: text, Float: f, Line: line}
		}
	}
	return Token{Kind: TokenString, Text: text, Line: line}
}

// looksLikeInt matches an optional sign followed by one or more digits.
func looksLikeInt(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// looksLikeFloat matches an optional sign, digits, a decimal point, optional
// fraction digits and an optional exponent.
func looksLikeFloat(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if digits == 0 || i >= len(s) || s[i] != '.' {
		return false
	}
	i++
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == len(s) {
		return true
	}
	if s[i] != 'e' && s[i] != 'E' {
		return false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Tokenize scans the whole input at once. The returned slice always ends with
// the EOF token.
func Tokenize(src string) []Token {
	tk := NewTokenizer(src)
	var tokens []Token
	for {
		tok := tk.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}
