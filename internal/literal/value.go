// Package literal implements the closed value model and the restricted
// literal grammar used for command arguments.
//
// Nothing in this package evaluates expressions: the parser recognises
// constant literals and literal containers and rejects every other
// construct with a SyntaxError.
package literal

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindSet
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "dict"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged union over null, bool, int, float, string, list, set
// and map. The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	items []Value
	pairs []Pair
}

// Pair is one key/value entry of a map Value.
type Pair struct {
	Key   Value
	Value Value
}

// Args maps keyword names to their parsed values.
type Args map[string]Value

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List builds an ordered sequence.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// NewSet builds a set, dropping duplicates and keeping first-insertion
// order. Members must be hashable.
func NewSet(items ...Value) (Value, error) {
	seen := make(map[string]struct{}, len(items))
	out := make([]Value, 0, len(items))
	for _, item := range items {
		if !item.Hashable() {
			return Value{}, fmt.Errorf("unhashable type: '%s'", item.kind)
		}
		k := item.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return Value{kind: KindSet, items: out}, nil
}

// NewMap builds a map. Keys must be hashable; a repeated key keeps the
// position of its first occurrence and the value of its last.
func NewMap(pairs ...Pair) (Value, error) {
	index := make(map[string]int, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if !p.Key.Hashable() {
			return Value{}, fmt.Errorf("unhashable type: '%s'", p.Key.kind)
		}
		k := p.Key.key()
		if pos, dup := index[k]; dup {
			out[pos].Value = p.Value
			continue
		}
		index[k] = len(out)
		out = append(out, p)
	}
	return Value{kind: KindMap, pairs: out}, nil
}

// MapOf builds a string-keyed map with keys in sorted order.
func MapOf(entries map[string]Value) Value {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: String(k), Value: entries[k]})
	}
	return Value{kind: KindMap, pairs: pairs}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload as a float; ints are widened.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Items returns the members of a list or set.
func (v Value) Items() []Value {
	if v.kind != KindList && v.kind != KindSet {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Pairs returns the entries of a map in order.
func (v Value) Pairs() []Pair {
	if v.kind != KindMap {
		return nil
	}
	cp := make([]Pair, len(v.pairs))
	copy(cp, v.pairs)
	return cp
}

// Len returns the number of members of a container, or the byte length
// of a string.
func (v Value) Len() int {
	switch v.kind {
	case KindList, KindSet:
		return len(v.items)
	case KindMap:
		return len(v.pairs)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Get looks up key in a map value.
func (v Value) Get(key Value) (Value, bool) {
	if v.kind != KindMap || !key.Hashable() {
		return Value{}, false
	}
	k := key.key()
	for _, p := range v.pairs {
		if p.Key.key() == k {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Contains reports set membership.
func (v Value) Contains(member Value) bool {
	if v.kind != KindSet || !member.Hashable() {
		return false
	}
	k := member.key()
	for _, item := range v.items {
		if item.key() == k {
			return true
		}
	}
	return false
}

// Hashable reports whether v may be a set member or map key.
func (v Value) Hashable() bool {
	switch v.kind {
	case KindList, KindSet, KindMap:
		return false
	default:
		return true
	}
}

// Equal compares structurally. Bools, ints and floats compare
// numerically, so True equals 1.
func (v Value) Equal(o Value) bool {
	if v.isNumber() && o.isNumber() {
		if v.kind == KindFloat || o.kind == KindFloat {
			return v.number() == o.number()
		}
		return v.integer() == o.integer()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(v.items) != len(o.items) {
			return false
		}
		for _, item := range v.items {
			if !o.Contains(item) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for _, p := range v.pairs {
			other, ok := o.Get(p.Key)
			if !ok || !other.Equal(p.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// isNumber includes bools, which compare and hash as 0 and 1.
func (v Value) isNumber() bool {
	return v.kind == KindBool || v.kind == KindInt || v.kind == KindFloat
}

func (v Value) integer() int64 {
	if v.kind == KindBool {
		if v.b {
			return 1
		}
		return 0
	}
	return v.i
}

func (v Value) number() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.integer())
}

// key is the identity used for set and map membership. Bools and
// integral floats share the key of the equal int.
func (v Value) key() string {
	switch v.kind {
	case KindBool:
		return "n:" + strconv.FormatInt(v.integer(), 10)
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63 {
			return "n:" + strconv.FormatInt(int64(v.f), 10)
		}
		return "f:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10)
	default:
		return v.kind.String() + ":" + v.Repr()
	}
}

// String renders the text substituted for a command result: strings
// render raw, every other value renders as its literal form.
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}
	return v.Repr()
}

// Repr renders v in the literal grammar accepted by Parse.
func (v Value) Repr() string {
	var b strings.Builder
	v.writeRepr(&b)
	return b.String()
}

func (v Value) writeRepr(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("None")
	case KindBool:
		if v.b {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.f))
	case KindString:
		b.WriteString(quote(v.s))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeRepr(b)
		}
		b.WriteByte(']')
	case KindSet:
		if len(v.items) == 0 {
			b.WriteString("set()")
			return
		}
		b.WriteByte('{')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeRepr(b)
		}
		b.WriteByte('}')
	case KindMap:
		b.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			p.Key.writeRepr(b)
			b.WriteString(": ")
			p.Value.writeRepr(b)
		}
		b.WriteByte('}')
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	// Scientific notation only for very small or very large magnitudes.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quote produces a single-quoted literal unless the text holds a single
// quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			if cp, ok := surrogateAt(s[i:]); ok {
				fmt.Fprintf(&b, `\u%04x`, cp)
				i += 3
				continue
			}
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case !strconv.IsPrint(r):
			if r <= 0xffff {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// surrogateAt decodes a lone surrogate written by writeCodePoint at the
// start of s.
func surrogateAt(s string) (rune, bool) {
	if len(s) < 3 || s[0] != 0xED || s[1] < 0xA0 || s[1] > 0xBF || s[2]&0xC0 != 0x80 {
		return 0, false
	}
	return rune(s[0]&0x0F)<<12 | rune(s[1]&0x3F)<<6 | rune(s[2]&0x3F), true
}

// Native converts v to plain Go values: nil, bool, int64, float64,
// string, []any for lists and sets, and map[string]any for maps whose keys
// are all strings (other maps become []any of [key, value] pairs).
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList, KindSet:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		allStrings := true
		for _, p := range v.pairs {
			if p.Key.kind != KindString {
				allStrings = false
				break
			}
		}
		if allStrings {
			out := make(map[string]any, len(v.pairs))
			for _, p := range v.pairs {
				out[p.Key.s] = p.Value.Native()
			}
			return out
		}
		out := make([]any, len(v.pairs))
		for i, p := range v.pairs {
			out[i] = []any{p.Key.Native(), p.Value.Native()}
		}
		return out
	}
	return nil
}

// FromNative converts plain Go values into a Value. Unsupported types
// yield an error.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			conv, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = conv
		}
		return List(items...), nil
	case map[string]any:
		entries := make(map[string]Value, len(t))
		for k, item := range t {
			conv, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}
			entries[k] = conv
		}
		return MapOf(entries), nil
	default:
		return Value{}, fmt.Errorf("unsupported native type %T", x)
	}
}
