package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Mike-Leo-Smith/embree/types"
)

// Stores the ray directions at the four corners of the camera frustum. It is
// used as a shortcut for generating per pixel rays via interpolation of the
// corner rays. Corner order: top-left, top-right, bottom-left, bottom-right.
type Frustum [4]types.Vec3

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type generates the primary rays for a frame.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	Frustum Frustum

	// Vertical camera FOV in degrees.
	FOV float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Setup the frustum corner rays for the given aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	forward := c.LookAt.Sub(c.Position).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)

	halfH := math32.Tan(c.FOV * math32.Pi / 360)
	halfW := halfH * aspect

	c.Frustum[0] = forward.Add(up.Mul(halfH)).Sub(right.Mul(halfW))
	c.Frustum[1] = forward.Add(up.Mul(halfH)).Add(right.Mul(halfW))
	c.Frustum[2] = forward.Sub(up.Mul(halfH)).Sub(right.Mul(halfW))
	c.Frustum[3] = forward.Sub(up.Mul(halfH)).Add(right.Mul(halfW))
}

// PrimaryRay returns the origin and normalized direction of the ray through
// pixel (x, y) of a frameW x frameH frame.
func (c *Camera) PrimaryRay(x, y, frameW, frameH int) (types.Vec3, types.Vec3) {
	u := (float32(x) + 0.5) / float32(frameW)
	v := (float32(y) + 0.5) / float32(frameH)

	top := c.Frustum[0].Add(c.Frustum[1].Sub(c.Frustum[0]).Mul(u))
	bottom := c.Frustum[2].Add(c.Frustum[3].Sub(c.Frustum[2]).Mul(u))
	return c.Position, top.Add(bottom.Sub(top).Mul(v)).Normalize()
}
