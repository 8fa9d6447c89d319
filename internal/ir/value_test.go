package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(0.5)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(IRNull{}))
	assert.False(t, Truthy(IRBool(false)))
	assert.True(t, Truthy(IRBool(true)))
	assert.True(t, Truthy(IRInt(0)))
	assert.True(t, Truthy(IRString("")))
	assert.True(t, Truthy(IRObject{}))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b IRValue
		want bool
	}{
		{"int int", IRInt(3), IRInt(3), true},
		{"int float", IRInt(3), IRFloat(3), true},
		{"float differs", IRFloat(3.5), IRInt(3), false},
		{"string", IRString("x"), IRString("x"), true},
		{"string vs int", IRString("3"), IRInt(3), false},
		{"null vs nil", IRNull{}, nil, true},
		{"null vs false", IRNull{}, IRBool(false), false},
		{"array", IRArray{IRInt(1), IRString("a")}, IRArray{IRFloat(1), IRString("a")}, true},
		{"array length", IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(2)}, false},
		{"object", IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1)}, true},
		{"object missing key", IRObject{"a": IRInt(1)}, IRObject{"b": IRInt(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestCompare(t *testing.T) {
	c, ok := Compare(IRInt(2), IRFloat(2.5))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(IRString("b"), IRString("a"))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare(IRFloat(4), IRInt(4))
	require.True(t, ok)
	assert.Equal(t, 0, c)

	_, ok = Compare(IRString("1"), IRInt(1))
	assert.False(t, ok)

	_, ok = Compare(IRNull{}, IRInt(1))
	assert.False(t, ok)
}

func TestCompareLargeIntegers(t *testing.T) {
	const big = int64(1) << 53 // 9007199254740992

	assert.False(t, Equal(IRInt(big), IRInt(big+1)))
	assert.True(t, Equal(IRInt(big+1), IRInt(big+1)))

	c, ok := Compare(IRInt(big), IRInt(big+1))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(IRInt(math.MaxInt64), IRInt(math.MaxInt64-1))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	// float64(big+1) rounds to big; the mixed comparison must not.
	assert.True(t, Equal(IRFloat(float64(big)), IRInt(big)))
	assert.False(t, Equal(IRFloat(float64(big)), IRInt(big+1)))
	c, ok = Compare(IRFloat(float64(big)), IRInt(big+1))
	require.True(t, ok)
	assert.Equal(t, -1, c)
	c, ok = Compare(IRInt(big+1), IRFloat(float64(big)))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = Compare(IRFloat(math.Inf(1)), IRInt(math.MaxInt64))
	require.True(t, ok)
	assert.Equal(t, 1, c)
}

func TestCompareNaN(t *testing.T) {
	nan := IRFloat(math.NaN())
	_, ok := Compare(nan, IRInt(1))
	assert.False(t, ok)
	_, ok = Compare(IRFloat(1), nan)
	assert.False(t, ok)
	assert.False(t, Equal(nan, nan))
}

func TestLookup(t *testing.T) {
	frame := IRObject{
		"turn": IRObject{
			"text":     IRString("hi"),
			"entities": IRArray{IRObject{"type": IRString("city")}},
			"missing":  IRNull{},
		},
	}

	v, ok := frame.Lookup("turn.text")
	require.True(t, ok)
	assert.Equal(t, IRString("hi"), v)

	v, ok = frame.Lookup("turn.entities.0.type")
	require.True(t, ok)
	assert.Equal(t, IRString("city"), v)

	v, ok = frame.Lookup("turn.missing")
	require.True(t, ok, "explicit null is found")
	assert.Equal(t, IRNull{}, v)

	_, ok = frame.Lookup("turn.entities.3")
	assert.False(t, ok)

	_, ok = frame.Lookup("turn.text.length")
	assert.False(t, ok)

	_, ok = frame.Lookup("nope")
	assert.False(t, ok)
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"a": 1,
		"b": 2.5,
		"c": []any{"x", true, nil},
		"d": map[any]any{"nested": int64(7)},
	})
	require.NoError(t, err)

	want := IRObject{
		"a": IRInt(1),
		"b": IRFloat(2.5),
		"c": IRArray{IRString("x"), IRBool(true), IRNull{}},
		"d": IRObject{"nested": IRInt(7)},
	}
	assert.Equal(t, want, v)
}

func TestFromGoRejects(t *testing.T) {
	_, err := FromGo(map[any]any{1: "x"})
	assert.Error(t, err)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}

func TestUnmarshalIRValueNumbers(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"i": 3, "f": 0.25, "e": 1e3}`))
	require.NoError(t, err)

	obj := v.(IRObject)
	assert.Equal(t, IRInt(3), obj["i"])
	assert.Equal(t, IRFloat(0.25), obj["f"])
	assert.Equal(t, IRFloat(1000), obj["e"])
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{"z": IRInt(1), "a": IRArray{IRFloat(1.5), IRNull{}}}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1.5,null],"z":1}`, string(data))

	var back IRObject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "3.0", FormatFloat(3))
	assert.Equal(t, "0.8", FormatFloat(0.8))
	assert.Equal(t, "-2.5", FormatFloat(-2.5))
	assert.Equal(t, "1e+21", FormatFloat(1e21))
}
