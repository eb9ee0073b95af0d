// Package simd provides fixed-width lane vectors for the traversal and
// intersection kernels. The algorithms are written once against these types;
// Width is the lane count they are instantiated for.
package simd

import (
	"math"

	"github.com/chewxy/math32"
)

// Lane count of the vector types in this package.
const Width = 4

// A Float4 holds one float32 per lane.
type Float4 [Width]float32

// A Bool4 holds one validity flag per lane.
type Bool4 [Width]bool

// Broadcast a scalar to all lanes.
func SplatF(v float32) Float4 {
	return Float4{v, v, v, v}
}

func (a Float4) Add(b Float4) Float4 {
	return Float4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a Float4) Sub(b Float4) Float4 {
	return Float4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func (a Float4) Mul(b Float4) Float4 {
	return Float4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func (a Float4) Scale(s float32) Float4 {
	return Float4{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

// Lane-wise minimum. NaN lanes resolve to the left operand, which makes NaN
// non-constraining in the slab tests.
func (a Float4) Min(b Float4) Float4 {
	out := a
	for i := 0; i < Width; i++ {
		if b[i] < out[i] {
			out[i] = b[i]
		}
	}
	return out
}

// Lane-wise maximum.
func (a Float4) Max(b Float4) Float4 {
	out := a
	for i := 0; i < Width; i++ {
		if b[i] > out[i] {
			out[i] = b[i]
		}
	}
	return out
}

// Lane-wise absolute value.
func (a Float4) Abs() Float4 {
	return Float4{math32.Abs(a[0]), math32.Abs(a[1]), math32.Abs(a[2]), math32.Abs(a[3])}
}

// Lane-wise reciprocal.
func (a Float4) Rcp() Float4 {
	return Float4{1 / a[0], 1 / a[1], 1 / a[2], 1 / a[3]}
}

// SignMask extracts the sign bit of every lane.
func (a Float4) SignMask() [Width]uint32 {
	var out [Width]uint32
	for i := 0; i < Width; i++ {
		out[i] = math.Float32bits(a[i]) & 0x80000000
	}
	return out
}

// XorSign flips the sign of every lane whose matching mask bit is set. This
// is the sign-transfer trick the Moeller-Trumbore test uses to keep the
// numerators comparable without dividing by the denominator first.
func (a Float4) XorSign(signs [Width]uint32) Float4 {
	var out Float4
	for i := 0; i < Width; i++ {
		out[i] = math.Float32frombits(math.Float32bits(a[i]) ^ signs[i])
	}
	return out
}

func (a Float4) Gt(b Float4) Bool4 {
	return Bool4{a[0] > b[0], a[1] > b[1], a[2] > b[2], a[3] > b[3]}
}

func (a Float4) Ge(b Float4) Bool4 {
	return Bool4{a[0] >= b[0], a[1] >= b[1], a[2] >= b[2], a[3] >= b[3]}
}

func (a Float4) Lt(b Float4) Bool4 {
	return Bool4{a[0] < b[0], a[1] < b[1], a[2] < b[2], a[3] < b[3]}
}

func (a Float4) Le(b Float4) Bool4 {
	return Bool4{a[0] <= b[0], a[1] <= b[1], a[2] <= b[2], a[3] <= b[3]}
}

func (a Float4) Ne(b Float4) Bool4 {
	return Bool4{a[0] != b[0], a[1] != b[1], a[2] != b[2], a[3] != b[3]}
}

// SelectF picks a[i] where m[i] is set and b[i] elsewhere.
func SelectF(m Bool4, a, b Float4) Float4 {
	out := b
	for i := 0; i < Width; i++ {
		if m[i] {
			out[i] = a[i]
		}
	}
	return out
}

func (m Bool4) And(n Bool4) Bool4 {
	return Bool4{m[0] && n[0], m[1] && n[1], m[2] && n[2], m[3] && n[3]}
}

func (m Bool4) Or(n Bool4) Bool4 {
	return Bool4{m[0] || n[0], m[1] || n[1], m[2] || n[2], m[3] || n[3]}
}

func (m Bool4) AndNot(n Bool4) Bool4 {
	return Bool4{m[0] && !n[0], m[1] && !n[1], m[2] && !n[2], m[3] && !n[3]}
}

// Any reports whether at least one lane is set.
func (m Bool4) Any() bool {
	return m[0] || m[1] || m[2] || m[3]
}

// None reports whether no lane is set.
func (m Bool4) None() bool {
	return !m.Any()
}

// All reports whether every lane is set.
func (m Bool4) All() bool {
	return m[0] && m[1] && m[2] && m[3]
}

// Clear resets lane i.
func (m *Bool4) Clear(i int) {
	m[i] = false
}

// SelectMin returns the active lane holding the smallest value. ok is false
// when no lane is active.
func SelectMin(m Bool4, t Float4) (lane int, ok bool) {
	lane = -1
	best := math32.Inf(1)
	for i := 0; i < Width; i++ {
		if m[i] && t[i] <= best {
			best = t[i]
			lane = i
		}
	}
	return lane, lane >= 0
}
