package types

// A LinSpace3 is a 3x3 linear transform stored as three row vectors so that
// transforming a point is three dot products.
type LinSpace3 struct {
	Rx, Ry, Rz Vec3
}

// The identity transform.
func LinSpaceIdent() LinSpace3 {
	return LinSpace3{
		Rx: Vec3{1, 0, 0},
		Ry: Vec3{0, 1, 0},
		Rz: Vec3{0, 0, 1},
	}
}

// Build an orthonormal frame whose third row is the given unit vector. The
// other two rows span the perpendicular plane; their orientation within that
// plane is arbitrary but deterministic.
func FrameFromUnitZ(n Vec3) LinSpace3 {
	// Pick the world axis least aligned with n as the seed for the first row.
	seed := Vec3{1, 0, 0}
	if n.MaxDim() == 0 {
		seed = Vec3{0, 1, 0}
	}
	rx := seed.Cross(n).Normalize()
	ry := n.Cross(rx)
	return LinSpace3{Rx: rx, Ry: ry, Rz: n}
}

// Transform a vector.
func (l LinSpace3) XfmVec(v Vec3) Vec3 {
	return Vec3{l.Rx.Dot(v), l.Ry.Dot(v), l.Rz.Dot(v)}
}

// Transpose the transform. For orthonormal frames this is the inverse.
func (l LinSpace3) Transpose() LinSpace3 {
	return LinSpace3{
		Rx: Vec3{l.Rx[0], l.Ry[0], l.Rz[0]},
		Ry: Vec3{l.Rx[1], l.Ry[1], l.Rz[1]},
		Rz: Vec3{l.Rx[2], l.Ry[2], l.Rz[2]},
	}
}

// Scale each row with the corresponding component of s.
func (l LinSpace3) ScaleRows(s Vec3) LinSpace3 {
	return LinSpace3{
		Rx: l.Rx.Mul(s[0]),
		Ry: l.Ry.Mul(s[1]),
		Rz: l.Rz.Mul(s[2]),
	}
}
