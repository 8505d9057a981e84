package types

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindInt, Int(3).Kind())
	assert.Equal(t, KindFloat, Float(1.5).Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindMap, Map(Attributes{"a": Int(1)}).Kind())

	var zero Value
	assert.True(t, zero.IsNil())
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, "hi", FromAny("hi").Str())
	assert.EqualValues(t, 7, FromAny(7).Int64())
	assert.EqualValues(t, 7, FromAny(int64(7)).Int64())
	assert.InDelta(t, 2.5, FromAny(2.5).Float64(), 1e-9)
	assert.True(t, FromAny(true).Boolean())

	nested := FromAny(map[string]interface{}{"rows": 5})
	require.Equal(t, KindMap, nested.Kind())
	assert.EqualValues(t, 5, nested.MapVal()["rows"].Int64())
}

func TestFloat64CoercesInts(t *testing.T) {
	assert.InDelta(t, 3.0, Int(3).Float64(), 1e-9)
}

func TestValueJSONRoundTrip(t *testing.T) {
	attrs := Attributes{
		"name":   String("weekly-plan"),
		"rows":   Int(5),
		"ratio":  Float(0.75),
		"active": Bool(true),
		"nested": Map(Attributes{"inner": String("v")}),
	}

	raw, err := sonic.Marshal(attrs)
	require.NoError(t, err)

	var decoded Attributes
	require.NoError(t, sonic.Unmarshal(raw, &decoded))

	assert.Equal(t, "weekly-plan", decoded["name"].Str())
	assert.EqualValues(t, 5, decoded["rows"].Int64())
	assert.InDelta(t, 0.75, decoded["ratio"].Float64(), 1e-9)
	assert.True(t, decoded["active"].Boolean())
	assert.Equal(t, "v", decoded["nested"].MapVal()["inner"].Str())
}

func TestAttributesCloneIsDeep(t *testing.T) {
	orig := Attributes{"m": Map(Attributes{"k": Int(1)})}
	clone := orig.Clone()

	clone["m"].MapVal()["k"] = Int(2)
	assert.EqualValues(t, 1, orig["m"].MapVal()["k"].Int64())
}

func TestAttributesMerge(t *testing.T) {
	dst := Attributes{"a": Int(1), "b": Int(2)}
	dst.Merge(Attributes{"b": Int(20), "c": Int(3)})

	assert.EqualValues(t, 1, dst["a"].Int64())
	assert.EqualValues(t, 20, dst["b"].Int64(), "incoming keys win")
	assert.EqualValues(t, 3, dst["c"].Int64())
}

func TestFromMapAndBack(t *testing.T) {
	in := map[string]interface{}{"user": "u1", "count": 3}
	attrs := FromMap(in)

	out := attrs.ToMap()
	assert.Equal(t, "u1", out["user"])
	assert.EqualValues(t, 3, out["count"])
}
