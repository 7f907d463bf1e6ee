package literal

import (
	"strings"
)

// MaxDepth bounds container nesting so hostile input cannot exhaust the
// stack.
const MaxDepth = 64

// Parse reads a command parameter body, the text between the parentheses
// of an invocation, and returns its keyword arguments. Only name=literal
// pairs are accepted. Empty input yields an empty mapping.
func Parse(raw string) (Args, error) {
	args := Args{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}

	toks, err := tokenize(raw)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	for p.peek().kind != tokEOF {
		tok := p.peek()
		switch {
		case tok.kind == tokOp && (tok.text == "*" || tok.text == "**"):
			return nil, syntaxErrorf(tok.pos, "only keyword arguments are supported")
		case tok.kind == tokIdent && p.peekAt(1).kind == tokAssign:
		case tok.kind == tokComma:
			return nil, syntaxErrorf(tok.pos, "invalid syntax")
		default:
			return nil, syntaxErrorf(tok.pos, "only keyword arguments are supported")
		}

		name := p.advance().text
		if reserved[name] {
			return nil, syntaxErrorf(tok.pos, "keyword %q cannot be used as an argument name", name)
		}
		p.advance() // '='
		if _, dup := args[name]; dup {
			return nil, syntaxErrorf(tok.pos, "keyword argument repeated: %s", name)
		}
		val, err := p.value(0)
		if err != nil {
			return nil, err
		}
		args[name] = val

		switch next := p.peek(); next.kind {
		case tokEOF:
		case tokComma:
			p.advance()
		default:
			return nil, p.unexpected(next)
		}
	}
	return args, nil
}

// ParseValue parses a single literal, e.g. a parameter default.
func ParseValue(raw string) (Value, error) {
	toks, err := tokenize(raw)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return Value{}, syntaxErrorf(0, "empty literal")
	}
	v, err := p.value(0)
	if err != nil {
		return Value{}, err
	}
	if next := p.peek(); next.kind != tokEOF {
		return Value{}, p.unexpected(next)
	}
	return v, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

// unexpected explains why a token cannot follow a complete literal.
func (p *parser) unexpected(tok token) error {
	switch tok.kind {
	case tokPlus, tokMinus, tokOp:
		return syntaxErrorf(tok.pos, "operator %q is not allowed in a literal", tok.text)
	case tokDot:
		return syntaxErrorf(tok.pos, "attribute access is not allowed in a literal")
	case tokLParen:
		return syntaxErrorf(tok.pos, "calls are not allowed in a literal")
	case tokLBrack:
		return syntaxErrorf(tok.pos, "subscripts are not allowed in a literal")
	case tokAssign:
		return syntaxErrorf(tok.pos, "unexpected '='")
	case tokEOF:
		return syntaxErrorf(tok.pos, "unexpected end of input")
	case tokIdent:
		if tok.text == "if" || tok.text == "for" || tok.text == "and" || tok.text == "or" || tok.text == "in" || tok.text == "is" || tok.text == "not" {
			return syntaxErrorf(tok.pos, "expression %q is not allowed in a literal", tok.text)
		}
	}
	return syntaxErrorf(tok.pos, "invalid syntax near %q", tok.text)
}

// reserved words cannot name a keyword argument.
var reserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

var constants = map[string]Value{
	"None":  Null(),
	"null":  Null(),
	"True":  Bool(true),
	"true":  Bool(true),
	"False": Bool(false),
	"false": Bool(false),
}

func (p *parser) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, syntaxErrorf(p.peek().pos, "literal nested deeper than %d levels", MaxDepth)
	}
	tok := p.advance()
	switch tok.kind {
	case tokInt, tokFloat:
		if tok.minInt {
			return Value{}, syntaxErrorf(tok.pos, "integer literal %q out of range", tok.text)
		}
		return tok.val, nil
	case tokPlus, tokMinus:
		num := p.advance()
		if num.kind != tokInt && num.kind != tokFloat {
			return Value{}, syntaxErrorf(tok.pos, "unary %q is only allowed before a number", tok.text)
		}
		if num.minInt {
			if tok.kind == tokPlus {
				return Value{}, syntaxErrorf(num.pos, "integer literal %q out of range", num.text)
			}
			return num.val, nil
		}
		if tok.kind == tokPlus {
			return num.val, nil
		}
		if i, ok := num.val.AsInt(); ok {
			return Int(-i), nil
		}
		f, _ := num.val.AsFloat()
		return Float(-f), nil
	case tokString:
		var b strings.Builder
		s, _ := tok.val.AsString()
		b.WriteString(s)
		for p.peek().kind == tokString {
			more, _ := p.advance().val.AsString()
			b.WriteString(more)
		}
		return String(b.String()), nil
	case tokIdent:
		if v, ok := constants[tok.text]; ok {
			return v, nil
		}
		switch p.peek().kind {
		case tokLParen:
			return Value{}, syntaxErrorf(tok.pos, "call to %q is not allowed in a literal", tok.text)
		case tokDot:
			return Value{}, syntaxErrorf(tok.pos, "attribute access on %q is not allowed in a literal", tok.text)
		}
		return Value{}, syntaxErrorf(tok.pos, "name %q is not a literal", tok.text)
	case tokLBrack:
		items, err := p.sequence(tokRBrack, depth)
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case tokLParen:
		return p.tuple(tok, depth)
	case tokLBrace:
		return p.braced(tok, depth)
	case tokEOF:
		return Value{}, syntaxErrorf(tok.pos, "missing value")
	default:
		return Value{}, syntaxErrorf(tok.pos, "invalid syntax near %q", tok.text)
	}
}

// sequence reads comma separated values up to and including the closing
// token.
func (p *parser) sequence(closing tokenKind, depth int) ([]Value, error) {
	items := []Value{}
	for {
		if p.peek().kind == closing {
			p.advance()
			return items, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		switch next := p.peek(); next.kind {
		case tokComma:
			p.advance()
		case closing:
		default:
			return nil, p.unexpected(next)
		}
	}
}

// tuple handles "(...)": a parenthesised value unless a comma makes it a
// tuple, which becomes a List.
func (p *parser) tuple(open token, depth int) (Value, error) {
	if p.peek().kind == tokRParen {
		p.advance()
		return List(), nil
	}
	first, err := p.value(depth + 1)
	if err != nil {
		return Value{}, err
	}
	switch next := p.peek(); next.kind {
	case tokRParen:
		p.advance()
		return first, nil
	case tokComma:
		p.advance()
		rest, err := p.sequence(tokRParen, depth)
		if err != nil {
			return Value{}, err
		}
		return List(append([]Value{first}, rest...)...), nil
	case tokEOF:
		return Value{}, syntaxErrorf(open.pos, "'(' was never closed")
	default:
		return Value{}, p.unexpected(next)
	}
}

// braced handles "{...}": an empty map, a map, or a set.
func (p *parser) braced(open token, depth int) (Value, error) {
	if p.peek().kind == tokRBrace {
		p.advance()
		v, _ := NewMap()
		return v, nil
	}
	first, err := p.value(depth + 1)
	if err != nil {
		return Value{}, err
	}

	if p.peek().kind != tokColon {
		if !first.Hashable() {
			return Value{}, syntaxErrorf(open.pos, "unhashable type: '%s'", first.Kind())
		}
		members := []Value{first}
		if p.peek().kind == tokComma {
			p.advance()
			rest, err := p.sequence(tokRBrace, depth)
			if err != nil {
				return Value{}, err
			}
			members = append(members, rest...)
		} else if next := p.peek(); next.kind == tokRBrace {
			p.advance()
		} else {
			return Value{}, p.unexpected(next)
		}
		set, err := NewSet(members...)
		if err != nil {
			return Value{}, syntaxErrorf(open.pos, "%s", err.Error())
		}
		return set, nil
	}

	var pairs []Pair
	key := first
	for {
		if p.peek().kind != tokColon {
			return Value{}, p.unexpected(p.peek())
		}
		p.advance()
		val, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		if !key.Hashable() {
			return Value{}, syntaxErrorf(open.pos, "unhashable type: '%s'", key.Kind())
		}
		pairs = append(pairs, Pair{Key: key, Value: val})

		next := p.peek()
		if next.kind == tokComma {
			p.advance()
			next = p.peek()
		} else if next.kind != tokRBrace {
			return Value{}, p.unexpected(next)
		}
		if next.kind == tokRBrace {
			p.advance()
			break
		}
		key, err = p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
	}
	m, err := NewMap(pairs...)
	if err != nil {
		return Value{}, syntaxErrorf(open.pos, "%s", err.Error())
	}
	return m, nil
}
