package literal

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokAssign
	tokPlus
	tokMinus
	tokDot
	tokOp // any other operator; always rejected by the parser
)

type token struct {
	kind tokenKind
	pos  int
	text string
	val  Value
	// minInt marks an integer of magnitude 1<<63, valid only when negated.
	minInt bool
}

// lexer turns a parameter body into tokens. It never interprets
// identifiers; that is left to the parser.
type lexer struct {
	src string
	cur int
}

const operatorChars = "*/%@<>=!&|^~;"

var punctuation = map[byte]tokenKind{
	'(': tokLParen, ')': tokRParen,
	'[': tokLBrack, ']': tokRBrack,
	'{': tokLBrace, '}': tokRBrace,
	',': tokComma, '+': tokPlus, '-': tokMinus,
}

func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) peekByte(n int) (byte, bool) {
	if l.cur+n >= len(l.src) {
		return 0, false
	}
	return l.src[l.cur+n], true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentPart(b byte) bool { return isIdentStart(b) || isDigit(b) }

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *lexer) next() (token, error) {
	for l.cur < len(l.src) && isSpace(l.src[l.cur]) {
		l.cur++
	}
	start := l.cur
	if l.cur >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.cur]
	switch {
	case isIdentStart(c):
		for l.cur < len(l.src) && isIdentPart(l.src[l.cur]) {
			l.cur++
		}
		word := l.src[start:l.cur]
		if q, ok := l.peekByte(0); ok && (q == '\'' || q == '"') && isStringPrefix(word) {
			return l.prefixedString(start, word)
		}
		return token{kind: tokIdent, pos: start, text: word}, nil
	case isDigit(c):
		return l.number(start)
	case c == '.':
		if d, ok := l.peekByte(1); ok && isDigit(d) {
			return l.number(start)
		}
		l.cur++
		return token{kind: tokDot, pos: start, text: "."}, nil
	case c == '\'' || c == '"':
		s, err := l.stringBody(false)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, pos: start, text: l.src[start:l.cur], val: String(s)}, nil
	}

	if kind, ok := punctuation[c]; ok {
		l.cur++
		if (c == '+' || c == '-') && l.cur < len(l.src) && l.src[l.cur] == '=' {
			l.cur++
			return token{kind: tokOp, pos: start, text: l.src[start:l.cur]}, nil
		}
		if c == '-' && l.cur < len(l.src) && l.src[l.cur] == '>' {
			l.cur++
			return token{kind: tokOp, pos: start, text: "->"}, nil
		}
		return token{kind: kind, pos: start, text: string(c)}, nil
	}
	if c == ':' {
		l.cur++
		if l.cur < len(l.src) && l.src[l.cur] == '=' {
			l.cur++
			return token{kind: tokOp, pos: start, text: ":="}, nil
		}
		return token{kind: tokColon, pos: start, text: ":"}, nil
	}
	if strings.IndexByte(operatorChars, c) >= 0 {
		for l.cur < len(l.src) && l.cur-start < 3 && strings.IndexByte(operatorChars, l.src[l.cur]) >= 0 {
			l.cur++
		}
		text := l.src[start:l.cur]
		if text == "=" {
			return token{kind: tokAssign, pos: start, text: text}, nil
		}
		return token{kind: tokOp, pos: start, text: text}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.cur:])
	return token{}, syntaxErrorf(start, "unexpected character %q", r)
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (l *lexer) prefixedString(start int, prefix string) (token, error) {
	p := strings.ToLower(prefix)
	if strings.Contains(p, "f") {
		return token{}, syntaxErrorf(start, "f-strings are not literals")
	}
	if strings.Contains(p, "b") {
		return token{}, syntaxErrorf(start, "bytes literals are not supported")
	}
	s, err := l.stringBody(strings.Contains(p, "r"))
	if err != nil {
		return token{}, err
	}
	return token{kind: tokString, pos: start, text: l.src[start:l.cur], val: String(s)}, nil
}

// stringBody scans a quoted string starting at l.cur and returns its
// decoded contents.
func (l *lexer) stringBody(raw bool) (string, error) {
	start := l.cur
	q := l.src[l.cur]
	delim := string(q)
	if strings.HasPrefix(l.src[l.cur:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	triple := len(delim) == 3
	l.cur += len(delim)

	var out strings.Builder
	for {
		if l.cur >= len(l.src) {
			return "", syntaxErrorf(start, "unterminated string literal")
		}
		if strings.HasPrefix(l.src[l.cur:], delim) {
			l.cur += len(delim)
			return out.String(), nil
		}
		c := l.src[l.cur]
		if c == '\n' && !triple {
			return "", syntaxErrorf(start, "unterminated string literal")
		}
		if c != '\\' {
			out.WriteByte(c)
			l.cur++
			continue
		}
		if l.cur+1 >= len(l.src) {
			return "", syntaxErrorf(start, "unterminated string literal")
		}
		if raw {
			out.WriteByte('\\')
			out.WriteByte(l.src[l.cur+1])
			l.cur += 2
			continue
		}
		if err := l.escape(&out); err != nil {
			return "", err
		}
	}
}

// escape decodes one backslash escape at l.cur.
func (l *lexer) escape(out *strings.Builder) error {
	at := l.cur
	e := l.src[l.cur+1]
	l.cur += 2
	switch e {
	case '\n':
	case '\\', '\'', '"':
		out.WriteByte(e)
	case 'a':
		out.WriteByte('\a')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case 't':
		out.WriteByte('\t')
	case 'v':
		out.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		end := at + 2
		for end < len(l.src) && end < at+4 && l.src[end] >= '0' && l.src[end] <= '7' {
			end++
		}
		v, _ := strconv.ParseUint(l.src[at+1:end], 8, 32)
		out.WriteRune(rune(v))
		l.cur = end
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
		if l.cur+width > len(l.src) {
			return syntaxErrorf(at, "truncated \\%c escape", e)
		}
		digits := l.src[l.cur : l.cur+width]
		for i := 0; i < width; i++ {
			if !isHex(digits[i]) {
				return syntaxErrorf(at, "truncated \\%c escape", e)
			}
		}
		v, _ := strconv.ParseUint(digits, 16, 32)
		if v > utf8.MaxRune {
			return syntaxErrorf(at, "illegal Unicode character in \\U escape")
		}
		writeCodePoint(out, rune(v))
		l.cur += width
	case 'N':
		return syntaxErrorf(at, "named unicode escapes are not supported")
	default:
		out.WriteByte('\\')
		out.WriteByte(e)
	}
	return nil
}

// writeCodePoint appends r as UTF-8. Lone surrogates, which UTF-8 cannot
// hold, are written in their generalized three-byte form so they survive
// to rendering.
func writeCodePoint(out *strings.Builder, r rune) {
	if r < surrogateMin || r > surrogateMax {
		out.WriteRune(r)
		return
	}
	out.WriteByte(byte(0xE0 | r>>12))
	out.WriteByte(byte(0x80 | (r>>6)&0x3F))
	out.WriteByte(byte(0x80 | r&0x3F))
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// number scans an int or float literal starting at l.cur.
func (l *lexer) number(start int) (token, error) {
	src := l.src
	if src[l.cur] == '0' && l.cur+1 < len(src) && strings.IndexByte("xXoObB", src[l.cur+1]) >= 0 {
		return l.prefixedInt(start)
	}

	digits := func() {
		for l.cur < len(src) && (isDigit(src[l.cur]) || src[l.cur] == '_') {
			l.cur++
		}
	}
	isFloat := false
	digits()
	if l.cur < len(src) && src[l.cur] == '.' {
		isFloat = true
		l.cur++
		digits()
	}
	if l.cur < len(src) && (src[l.cur] == 'e' || src[l.cur] == 'E') {
		isFloat = true
		l.cur++
		if l.cur < len(src) && (src[l.cur] == '+' || src[l.cur] == '-') {
			l.cur++
		}
		expStart := l.cur
		digits()
		if l.cur == expStart {
			return token{}, syntaxErrorf(start, "invalid float literal %q", src[start:l.cur])
		}
	}
	if l.cur < len(src) && (src[l.cur] == 'j' || src[l.cur] == 'J') {
		return token{}, syntaxErrorf(start, "complex literals are not supported")
	}
	if l.cur < len(src) && (isIdentPart(src[l.cur]) || src[l.cur] == '.') {
		return token{}, syntaxErrorf(start, "invalid number literal %q", src[start:l.cur+1])
	}

	text := src[start:l.cur]
	clean, ok := stripUnderscores(text, isDigit)
	if !ok {
		return token{}, syntaxErrorf(start, "invalid underscore in number literal %q", text)
	}
	if isFloat {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil && !isRangeErr(err) {
			return token{}, syntaxErrorf(start, "invalid float literal %q", text)
		}
		return token{kind: tokFloat, pos: start, text: text, val: Float(f)}, nil
	}
	if len(clean) > 1 && clean[0] == '0' && strings.Trim(clean, "0") != "" {
		return token{}, syntaxErrorf(start, "leading zeros in decimal integer literals are not permitted")
	}
	u, err := strconv.ParseUint(clean, 10, 64)
	if err != nil || u > 1<<63 {
		return token{}, syntaxErrorf(start, "integer literal %q out of range", text)
	}
	return intToken(start, text, u), nil
}

func (l *lexer) prefixedInt(start int) (token, error) {
	src := l.src
	base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[src[l.cur+1]|0x20]
	l.cur += 2
	bodyStart := l.cur
	for l.cur < len(src) && (isIdentPart(src[l.cur])) {
		l.cur++
	}
	text := src[start:l.cur]
	body := src[bodyStart:l.cur]
	// An underscore may directly follow the base prefix.
	body = strings.TrimPrefix(body, "_")
	clean, ok := stripUnderscores(body, isHex)
	if !ok || clean == "" {
		return token{}, syntaxErrorf(start, "invalid number literal %q", text)
	}
	u, err := strconv.ParseUint(clean, base, 64)
	if err != nil {
		if isRangeErr(err) {
			return token{}, syntaxErrorf(start, "integer literal %q out of range", text)
		}
		return token{}, syntaxErrorf(start, "invalid digit in number literal %q", text)
	}
	if u > 1<<63 {
		return token{}, syntaxErrorf(start, "integer literal %q out of range", text)
	}
	return intToken(start, text, u), nil
}

func intToken(pos int, text string, u uint64) token {
	if u == 1<<63 {
		return token{kind: tokInt, pos: pos, text: text, val: Int(math.MinInt64), minInt: true}
	}
	return token{kind: tokInt, pos: pos, text: text, val: Int(int64(u))}
}

// stripUnderscores removes digit-group separators, which are only legal
// between two digits.
func stripUnderscores(s string, digit func(byte) bool) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !digit(s[i-1]) || !digit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
