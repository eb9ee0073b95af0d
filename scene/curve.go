package scene

import "github.com/Mike-Leo-Smith/embree/types"

// A CurveSegment is one cubic Bezier hair segment. Control points carry the
// local hair radius in their w component.
type CurveSegment struct {
	P0, P1, P2, P3 types.Vec4

	GeomID uint32
	PrimID uint32
}

// Eval returns the curve position and radius at parameter t in [0,1].
func (c *CurveSegment) Eval(t float32) (types.Vec3, float32) {
	t1 := 1 - t
	b0 := t1 * t1 * t1
	b1 := 3 * t * t1 * t1
	b2 := 3 * t * t * t1
	b3 := t * t * t
	p := c.P0.Mul(b0)
	p = types.Vec4{
		p[0] + b1*c.P1[0] + b2*c.P2[0] + b3*c.P3[0],
		p[1] + b1*c.P1[1] + b2*c.P2[1] + b3*c.P3[1],
		p[2] + b1*c.P1[2] + b2*c.P2[2] + b3*c.P3[2],
		p[3] + b1*c.P1[3] + b2*c.P2[3] + b3*c.P3[3],
	}
	return p.Vec3(), p[3]
}

// EvalDeriv returns the curve tangent at parameter t.
func (c *CurveSegment) EvalDeriv(t float32) types.Vec3 {
	t1 := 1 - t
	d0 := 3 * t1 * t1
	d1 := 6 * t * t1
	d2 := 3 * t * t
	e0 := c.P1.Vec3().Sub(c.P0.Vec3()).Mul(d0)
	e1 := c.P2.Vec3().Sub(c.P1.Vec3()).Mul(d1)
	e2 := c.P3.Vec3().Sub(c.P2.Vec3()).Mul(d2)
	return e0.Add(e1).Add(e2)
}

// Direction returns the coarse segment direction used when deriving an
// oriented bounding frame.
func (c *CurveSegment) Direction() types.Vec3 {
	return c.P3.Vec3().Sub(c.P0.Vec3())
}

// Bounds returns conservative world bounds: the control hull grown by the
// largest radius.
func (c *CurveSegment) Bounds() (min, max types.Vec3) {
	min = c.P0.Vec3()
	max = min
	r := c.P0[3]
	for _, p := range [3]types.Vec4{c.P1, c.P2, c.P3} {
		min = types.MinVec3(min, p.Vec3())
		max = types.MaxVec3(max, p.Vec3())
		if p[3] > r {
			r = p[3]
		}
	}
	rv := types.Vec3{r, r, r}
	return min.Sub(rv), max.Add(rv)
}
