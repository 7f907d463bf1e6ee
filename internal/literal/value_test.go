package literal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	set, err := NewSet(Int(1), Int(2))
	require.NoError(t, err)
	emptySet, err := NewSet()
	require.NoError(t, err)
	m, err := NewMap(Pair{Key: String("a"), Value: Int(1)}, Pair{Key: Int(2), Value: Null()})
	require.NoError(t, err)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "None"},
		{"true", Bool(true), "True"},
		{"int", Int(-3), "-3"},
		{"float", Float(2), "2.0"},
		{"float frac", Float(0.1), "0.1"},
		{"float exp", Float(1e21), "1e+21"},
		{"float large", Float(1234567), "1234567.0"},
		{"float small", Float(0.00001), "1e-05"},
		{"inf", Float(math.Inf(1)), "inf"},
		{"string raw", String("3:00 PM"), "3:00 PM"},
		{"list", List(String("a"), Int(1)), "['a', 1]"},
		{"nested quote", List(String("it's")), `["it's"]`},
		{"escapes", List(String("a\nb\\")), `['a\nb\\']`},
		{"invalid utf8", List(String("a\xffb")), `['a\xffb']`},
		{"replacement char kept", List(String("\ufffd")), "['\ufffd']"},
		{"set", set, "{1, 2}"},
		{"empty set", emptySet, "set()"},
		{"map", m, "{'a': 1, 2: None}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestReprParsesBack(t *testing.T) {
	inner, err := NewMap(Pair{Key: String("k"), Value: List(Float(1.5), Bool(false))})
	require.NoError(t, err)
	original := List(Int(1), String("quote ' and \" both"), inner, Null())

	parsed, err := ParseValue(original.Repr())
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed), "got %s", parsed.Repr())
}

func TestSetAndMapIdentity(t *testing.T) {
	set, err := NewSet(Int(1), Float(1.0), String("1"))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	bools, err := NewSet(Int(1), Bool(true), Bool(false), Float(0))
	require.NoError(t, err)
	assert.Equal(t, "{1, False}", bools.Repr())
	assert.True(t, bools.Contains(Bool(true)))

	m, err := NewMap(Pair{Key: Bool(true), Value: String("a")}, Pair{Key: Int(1), Value: String("b")})
	require.NoError(t, err)
	assert.Equal(t, "{True: 'b'}", m.Repr())
	got, ok := m.Get(Float(1))
	require.True(t, ok)
	assert.Equal(t, String("b"), got)

	_, err = NewSet(List())
	require.Error(t, err)

	_, err = NewMap(Pair{Key: MapOf(nil), Value: Null()})
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	assert.True(t, Int(2).Equal(Float(2)))
	assert.True(t, Bool(true).Equal(Int(1)))
	assert.True(t, Bool(false).Equal(Float(0)))
	assert.False(t, Bool(true).Equal(Int(2)))
	assert.False(t, Bool(true).Equal(Bool(false)))
	assert.False(t, String("a").Equal(List(String("a"))))

	a, _ := NewSet(Int(1), Int(2))
	b, _ := NewSet(Int(2), Int(1))
	assert.True(t, a.Equal(b))

	x := MapOf(map[string]Value{"a": Int(1), "b": Int(2)})
	y, _ := NewMap(Pair{Key: String("b"), Value: Int(2)}, Pair{Key: String("a"), Value: Int(1)})
	assert.True(t, x.Equal(y))
}

func TestNativeRoundTrip(t *testing.T) {
	native := map[string]any{
		"name":  "x",
		"count": int64(3),
		"tags":  []any{"a", true, nil, 1.5},
	}
	v, err := FromNative(native)
	require.NoError(t, err)
	assert.Equal(t, native, v.Native())

	mixed, _ := NewMap(Pair{Key: Int(1), Value: String("one")})
	assert.Equal(t, []any{[]any{int64(1), "one"}}, mixed.Native())

	_, err = FromNative(struct{}{})
	require.Error(t, err)
}

func TestAccessors(t *testing.T) {
	f, ok := Int(4).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	_, ok = String("x").AsInt()
	assert.False(t, ok)

	assert.Nil(t, Int(1).Items())
	assert.Nil(t, Int(1).Pairs())
	assert.True(t, Null().IsNull())
	assert.Equal(t, "dict", KindMap.String())
}
