package mdhavers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthyFalsyValues(t *testing.T) {
	falsy := []Value{
		BoolValue(false),
		NilValue(),
		IntValue(0),
		FloatValue(0.0),
		StringValue(""),
		NewList(nil),
		NewDict(),
		NewBytes(0),
	}
	for _, v := range falsy {
		assert.False(t, v.Truthy(), "expected %s (%s) to be falsy", v.String(), v.Kind())
	}
	truthy := []Value{
		BoolValue(true),
		IntValue(1),
		IntValue(-1),
		FloatValue(0.1),
		StringValue("x"),
		NewList([]Value{IntValue(1)}),
	}
	for _, v := range truthy {
		assert.True(t, v.Truthy(), "expected %s (%s) to be truthy", v.String(), v.Kind())
	}
}

func TestEqualityNaNNeverEqualsItself(t *testing.T) {
	nan := FloatValue(math.NaN())
	assert.False(t, Equal(nan, nan))
}

func TestEqualityStructuralForLists(t *testing.T) {
	a := NewList([]Value{IntValue(1), StringValue("x")})
	b := NewList([]Value{IntValue(1), StringValue("x")})
	assert.True(t, Equal(a, b))
	assert.False(t, Identical(a, b), "equal but distinct lists must not be identical")
}

func TestIdentityAliasesSharedContainer(t *testing.T) {
	a := NewList([]Value{IntValue(1)})
	b := a
	assert.True(t, Identical(a, b))
	b.List().Items[0] = IntValue(99)
	assert.Equal(t, int64(99), a.List().Items[0].AsInt(), "aliasing a List must share the backing store")
}

func TestEqualityDictOrderIndependent(t *testing.T) {
	a := NewDict()
	a.Dict().Set("x", IntValue(1))
	a.Dict().Set("y", IntValue(2))
	b := NewDict()
	b.Dict().Set("y", IntValue(2))
	b.Dict().Set("x", IntValue(1))
	assert.True(t, Equal(a, b))
}

func TestDictPreservesInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Dict().Set("z", IntValue(1))
	d.Dict().Set("a", IntValue(2))
	d.Dict().Set("m", IntValue(3))
	assert.Equal(t, []string{"z", "a", "m"}, d.Dict().Keys())
}

func TestCompareIncomparableWithNaN(t *testing.T) {
	_, ok := Compare(FloatValue(math.NaN()), IntValue(1))
	assert.False(t, ok)
}

func TestCompareIntAndFloat(t *testing.T) {
	cmp, ok := Compare(IntValue(1), FloatValue(1.5))
	assert.True(t, ok)
	assert.Equal(t, -1, cmp)
}

func TestRangeLenHalfOpenAndInclusive(t *testing.T) {
	assert.Equal(t, int64(3), RangeVal{Lo: 1, Hi: 4}.Len())
	assert.Equal(t, int64(3), RangeVal{Lo: 1, Hi: 3, Inclusive: true}.Len())
	assert.Equal(t, int64(0), RangeVal{Lo: 5, Hi: 2}.Len())
}

func TestAtomicCAS(t *testing.T) {
	a := NewAtomic(1).Atomic()
	assert.True(t, a.CAS(1, 2))
	assert.Equal(t, int64(2), a.Load())
	assert.False(t, a.CAS(1, 3))
	assert.Equal(t, int64(2), a.Load())
}

func TestChannelCapacityZeroIsUnboundedSendThenRecv(t *testing.T) {
	ch := NewChannel(0).Channel()
	ch.Send(IntValue(42))
	v, ok := ch.Recv()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v.AsInt())
}

func TestStringValueFormatting(t *testing.T) {
	assert.Equal(t, "aye", BoolValue(true).String())
	assert.Equal(t, "nae", BoolValue(false).String())
	assert.Equal(t, "naething", NilValue().String())
	assert.Equal(t, "3.5", FloatValue(3.5).String())
	assert.Equal(t, "3.0", FloatValue(3.0).String())
}
