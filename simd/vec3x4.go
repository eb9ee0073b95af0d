package simd

import "github.com/Mike-Leo-Smith/embree/types"

// A Vec3x4 is a bundle of Width 3D vectors in structure-of-arrays layout, so
// that per-component arithmetic runs across all lanes at once.
type Vec3x4 struct {
	X, Y, Z Float4
}

// Broadcast a single vector to all lanes.
func SplatV(v types.Vec3) Vec3x4 {
	return Vec3x4{X: SplatF(v[0]), Y: SplatF(v[1]), Z: SplatF(v[2])}
}

// Lane extracts the vector stored in lane i.
func (a Vec3x4) Lane(i int) types.Vec3 {
	return types.Vec3{a.X[i], a.Y[i], a.Z[i]}
}

// SetLane stores v into lane i.
func (a *Vec3x4) SetLane(i int, v types.Vec3) {
	a.X[i] = v[0]
	a.Y[i] = v[1]
	a.Z[i] = v[2]
}

func (a Vec3x4) Add(b Vec3x4) Vec3x4 {
	return Vec3x4{a.X.Add(b.X), a.Y.Add(b.Y), a.Z.Add(b.Z)}
}

func (a Vec3x4) Sub(b Vec3x4) Vec3x4 {
	return Vec3x4{a.X.Sub(b.X), a.Y.Sub(b.Y), a.Z.Sub(b.Z)}
}

// Dot computes one dot product per lane.
func (a Vec3x4) Dot(b Vec3x4) Float4 {
	return a.X.Mul(b.X).Add(a.Y.Mul(b.Y)).Add(a.Z.Mul(b.Z))
}

// Cross computes one cross product per lane.
func (a Vec3x4) Cross(b Vec3x4) Vec3x4 {
	return Vec3x4{
		X: a.Y.Mul(b.Z).Sub(a.Z.Mul(b.Y)),
		Y: a.Z.Mul(b.X).Sub(a.X.Mul(b.Z)),
		Z: a.X.Mul(b.Y).Sub(a.Y.Mul(b.X)),
	}
}
