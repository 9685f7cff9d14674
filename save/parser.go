// Package save parses the text gamestate found inside Stellaris save files
// into a generic value tree. The format is a whitespace-separated sequence of
// key=value pairs where a value is a quoted or bare scalar or a braced body,
// and a braced body is either a list of values or another key-value sequence.
// Which of the two a body is can only be told by looking one token past the
// opening brace.
package save

import (
	"fmt"
)

// DefaultMaxNestingDepth bounds how deeply braced bodies may nest. Real saves
// stay below a few dozen levels; bodies nested past the bound are skipped to
// their closing brace and recorded as an empty list rather than failing the
// whole snapshot.
const DefaultMaxNestingDepth = 500

// FormatError reports a token sequence that violates the gamestate grammar.
// It aborts the snapshot being parsed; nothing of the tree is returned.
type FormatError struct {
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func formatErrorf(line int, format string, args ...any) error {
	return &FormatError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Parser turns a token stream into a value tree. It keeps a single token of
// lookahead, which is all the grammar needs.
type Parser struct {
	// MaxNestingDepth overrides DefaultMaxNestingDepth when set before Parse.
	MaxNestingDepth int

	tokens  *Tokenizer
	look    Token
	hasLook bool
	depth   int
}

func NewParser(src string) *Parser {
	return &Parser{MaxNestingDepth: DefaultMaxNestingDepth, tokens: NewTokenizer(src)}
}

// Parse is a convenience wrapper that parses a complete gamestate string.
func Parse(src string) (*Object, error) {
	return NewParser(src).Parse()
}

// Parse consumes the whole token stream and returns the top-level object.
// The top level of a gamestate is a key-value sequence without surrounding
// braces, terminated by the end of input.
func (p *Parser) Parse() (*Object, error) {
	return p.parseKeyValueList(p.next())
}

func (p *Parser) peek() Token {
	if !p.hasLook {
		p.look = p.tokens.Next()
		p.hasLook = true
	}
	return p.look
}

func (p *Parser) next() Token {
	if p.hasLook {
		p.hasLook = false
		return p.look
	}
	return p.tokens.Next()
}

// parseKeyValuePair reads one key=value pair. The key must be a string or
// integer token, with one exception: some saves contain the malformed
// sequence "event_id=scope={...}" where the value after the first equals sign
// is missing. Seeing an equals sign in key position therefore substitutes the
// key "unknown_key" and continues, which turns that sequence into
// event_id="scope", unknown_key={...}.
func (p *Parser) parseKeyValuePair() (Key, Value, error) {
	keyToken := p.peek()
	var key Key
	switch keyToken.Kind {
	case TokenString:
		p.next()
		key = StringKey(keyToken.Text)
	case TokenInteger:
		p.next()
		key = NumKey(keyToken.Int)
	case TokenEqual:
		key = StringKey("unknown_key")
	default:
		return Key{}, Value{}, formatErrorf(keyToken.Line, "expected string or integer as key, found %s", keyToken)
	}
	eq := p.next()
	if eq.Kind != TokenEqual {
		return Key{}, Value{}, formatErrorf(eq.Line, "expected =, found %s (key was %s)", eq, keyToken)
	}
	value, err := p.parseValue()
	if err != nil {
		return Key{}, Value{}, err
	}
	return key, value, nil
}

func (p *Parser) parseValue() (Value, error) {
	next := p.peek()
	switch {
	case next.Kind.IsLiteral():
		return p.parseLiteral()
	case next.Kind == TokenBraceOpen:
		return p.parseBody()
	default:
		return Value{}, formatErrorf(next.Line, "expected literal or { for composite object or list, found %s", next)
	}
}

// parseBody parses a braced body, deciding between list and object by one
// token of lookahead: a brace directly after the opening brace means a list
// of composite objects (or an empty list), a literal followed by = means an
// object, and a literal followed by another literal or the closing brace
// means a list of literals.
func (p *Parser) parseBody() (Value, error) {
	brace := p.next()
	if brace.Kind != TokenBraceOpen {
		return Value{}, formatErrorf(brace.Line, "expected {, found %s", brace)
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth() {
		if err := p.skipBody(brace.Line); err != nil {
			return Value{}, err
		}
		return ListValue(nil), nil
	}
	switch p.peek().Kind {
	case TokenBraceOpen:
		return p.parseList(nil)
	case TokenBraceClose:
		p.next()
		return ListValue(nil), nil
	}
	first := p.next()
	switch next := p.peek(); {
	case next.Kind == TokenEqual:
		obj, err := p.parseKeyValueList(first)
		if err != nil {
			return Value{}, err
		}
		return ObjectValue(obj), nil
	case next.Kind.IsLiteral() || next.Kind == TokenBraceClose:
		seed := literalValue(first)
		return p.parseList(&seed)
	default:
		return Value{}, formatErrorf(next.Line, "unexpected token %s", next)
	}
}

// parseKeyValueList reads key=value pairs into an object, starting from an
// already-consumed first key. It stops at a closing brace or at the end of
// input; the top level of a save relies on the latter.
func (p *Parser) parseKeyValueList(firstKey Token) (*Object, error) {
	eq := p.next()
	if eq.Kind != TokenEqual {
		return nil, formatErrorf(eq.Line, "expected =, found %s", eq)
	}
	firstValue, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	obj := NewObject()
	obj.Add(keyFromToken(firstKey), firstValue)
	for {
		next := p.peek()
		if next.Kind == TokenBraceClose || next.Kind == TokenEOF {
			p.next()
			return obj, nil
		}
		key, value, err := p.parseKeyValuePair()
		if err != nil {
			return nil, err
		}
		obj.Add(key, value)
	}
}

func (p *Parser) parseList(seed *Value) (Value, error) {
	var elems []Value
	if seed != nil {
		elems = append(elems, *seed)
	}
	for p.peek().Kind != TokenBraceClose {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	p.next()
	return ListValue(elems), nil
}

func (p *Parser) parseLiteral() (Value, error) {
	tok := p.next()
	if !tok.Kind.IsLiteral() {
		return Value{}, formatErrorf(tok.Line, "expected literal, found %s", tok)
	}
	return literalValue(tok), nil
}

// skipBody discards tokens until the brace that closes the body currently
// being read. The opening brace has already been consumed.
func (p *Parser) skipBody(openLine int) error {
	balance := 1
	for {
		switch tok := p.next(); tok.Kind {
		case TokenBraceOpen:
			balance++
		case TokenBraceClose:
			balance--
			if balance == 0 {
				return nil
			}
		case TokenEOF:
			return formatErrorf(openLine, "input ended inside a body nested deeper than %d levels", p.maxDepth())
		}
	}
}

func (p *Parser) maxDepth() int {
	if p.MaxNestingDepth > 0 {
		return p.MaxNestingDepth
	}
	return DefaultMaxNestingDepth
}

func keyFromToken(tok Token) Key {
	if tok.Kind == TokenInteger {
		return NumKey(tok.Int)
	}
	return StringKey(tok.Text)
}

func literalValue(tok Token) Value {
	switch tok.Kind {
	case TokenInteger:
		return IntValue(tok.Int)
	case TokenFloat:
		return FloatValue(tok.Float)
	default:
		return StringValue(tok.Text)
	}
}
