package simd

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/Mike-Leo-Smith/embree/types"
)

func TestArithmetic(t *testing.T) {
	a := Float4{1, 2, 3, 4}
	b := Float4{4, 3, 2, 1}

	assert.Equal(t, Float4{5, 5, 5, 5}, a.Add(b))
	assert.Equal(t, Float4{-3, -1, 1, 3}, a.Sub(b))
	assert.Equal(t, Float4{4, 6, 6, 4}, a.Mul(b))
	assert.Equal(t, Float4{2, 4, 6, 8}, a.Scale(2))
	assert.Equal(t, Float4{1, 2, 2, 1}, a.Min(b))
	assert.Equal(t, Float4{4, 3, 3, 4}, a.Max(b))
	assert.Equal(t, Float4{1, 2, 3, 4}, Float4{-1, 2, -3, 4}.Abs())
	assert.Equal(t, Float4{1, 0.5, 0.25, -1}, Float4{1, 2, 4, -1}.Rcp())
}

func TestMinMaxIgnoreNaN(t *testing.T) {
	nan := math32.NaN()
	a := Float4{1, 1, 1, 1}
	b := Float4{nan, nan, nan, nan}

	// With NaN on the right operand the comparison fails and the left
	// value survives; slab tests rely on this to keep NaN lanes from
	// shrinking or growing the interval.
	assert.Equal(t, a, a.Min(b))
	assert.Equal(t, a, a.Max(b))
}

func TestSignTransfer(t *testing.T) {
	a := Float4{1, -2, 3, -4}

	signs := a.SignMask()
	assert.Equal(t, [Width]uint32{0, 0x80000000, 0, 0x80000000}, signs)

	// Transferring a lane's own sign onto it yields the absolute value.
	assert.Equal(t, Float4{1, 2, 3, 4}, a.XorSign(signs))
	// A second transfer restores the original.
	assert.Equal(t, a, a.XorSign(signs).XorSign(signs))
}

func TestCompareAndSelect(t *testing.T) {
	a := Float4{1, 2, 3, 4}
	b := Float4{2, 2, 2, 2}

	assert.Equal(t, Bool4{false, false, true, true}, a.Gt(b))
	assert.Equal(t, Bool4{false, true, true, true}, a.Ge(b))
	assert.Equal(t, Bool4{true, false, false, false}, a.Lt(b))
	assert.Equal(t, Bool4{true, true, false, false}, a.Le(b))
	assert.Equal(t, Bool4{true, false, true, true}, a.Ne(b))

	m := Bool4{true, false, true, false}
	assert.Equal(t, Float4{1, 2, 3, 2}, SelectF(m, a, b))
}

func TestBoolOps(t *testing.T) {
	m := Bool4{true, true, false, false}
	n := Bool4{true, false, true, false}

	assert.Equal(t, Bool4{true, false, false, false}, m.And(n))
	assert.Equal(t, Bool4{true, true, true, false}, m.Or(n))
	assert.Equal(t, Bool4{false, true, false, false}, m.AndNot(n))

	assert.True(t, m.Any())
	assert.False(t, m.All())
	assert.False(t, m.None())
	assert.True(t, Bool4{}.None())
	assert.True(t, Bool4{true, true, true, true}.All())

	m.Clear(0)
	assert.Equal(t, Bool4{false, true, false, false}, m)
}

func TestSelectMin(t *testing.T) {
	vals := Float4{4, 1, 3, 2}

	lane, ok := SelectMin(Bool4{true, true, true, true}, vals)
	assert.True(t, ok)
	assert.Equal(t, 1, lane)

	// Masked-out lanes never win even when they hold the smallest value.
	lane, ok = SelectMin(Bool4{true, false, true, true}, vals)
	assert.True(t, ok)
	assert.Equal(t, 3, lane)

	_, ok = SelectMin(Bool4{}, vals)
	assert.False(t, ok)
}

func TestVec3x4(t *testing.T) {
	var a Vec3x4
	for i := 0; i < Width; i++ {
		a.SetLane(i, types.Vec3{float32(i), float32(i + 1), float32(i + 2)})
	}
	assert.Equal(t, types.Vec3{2, 3, 4}, a.Lane(2))

	x := SplatV(types.Vec3{1, 0, 0})
	y := SplatV(types.Vec3{0, 1, 0})
	z := x.Cross(y)
	for i := 0; i < Width; i++ {
		assert.Equal(t, types.Vec3{0, 0, 1}, z.Lane(i))
	}

	assert.Equal(t, SplatF(0), x.Dot(y))
	assert.Equal(t, SplatF(1), x.Dot(x))
	assert.Equal(t, SplatV(types.Vec3{1, 1, 0}), x.Add(y))
	assert.Equal(t, SplatV(types.Vec3{1, -1, 0}), x.Sub(y))
}
