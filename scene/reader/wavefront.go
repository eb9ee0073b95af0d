// Package reader loads wavefront object files into the primitive lists the
// hierarchy builder consumes. Only the geometry statements are interpreted;
// shading statements (materials, normals, uv sets) are skipped.
//
// Two extension statements are recognized next to the standard ones:
//
//	camera_fov / camera_eye / camera_look / camera_up   scene camera setup
//	hair x0 y0 z0 r0 x1 y1 z1 r1 x2 y2 z2 r2 x3 y3 z3 r3   one Bezier segment
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Mike-Leo-Smith/embree/builder"
	"github.com/Mike-Leo-Smith/embree/log"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/types"
)

var logger = log.New("reader")

// A Scene is the parsed content of an object file: the primitive lists to
// hand to the builder plus the camera defined by the extension statements.
type Scene struct {
	Quads  []builder.Quad
	Curves []scene.CurveSegment

	Camera *scene.Camera
}

type wavefrontReader struct {
	out *Scene

	vertexList []types.Vec3

	// Output geometry id; advanced by each g/o statement.
	curGeomID  uint32
	geomDirty  bool
	nextPrimID uint32
}

// ReadFile parses the object file at path.
func ReadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reader: %v", err)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses an object file from r. name is used for error reporting.
func Read(r io.Reader, name string) (*Scene, error) {
	wf := &wavefrontReader{
		out: &Scene{Camera: scene.NewCamera(45)},
	}
	if err := wf.parse(r, name); err != nil {
		return nil, err
	}
	logger.Debugf("%s: %d quads, %d curves\n", name, len(wf.out.Quads), len(wf.out.Curves))
	return wf.out, nil
}

func (wf *wavefrontReader) parse(r io.Reader, name string) error {
	lineNum := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "v":
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				wf.vertexList = append(wf.vertexList, v)
			}
		case "f":
			err = wf.parseFace(tokens)
		case "g", "o":
			// Each named object gets its own geometry id.
			wf.advanceGeom()
		case "hair":
			err = wf.parseHair(tokens)
		case "camera_fov":
			wf.out.Camera.FOV, err = parseFloat32(tokens)
		case "camera_eye":
			wf.out.Camera.Position, err = parseVec3(tokens)
		case "camera_look":
			wf.out.Camera.LookAt, err = parseVec3(tokens)
		case "camera_up":
			wf.out.Camera.Up, err = parseVec3(tokens)
		default:
			// Shading statements and includes are not interpreted.
		}
		if err != nil {
			return fmt.Errorf("%s: line %d: %v", name, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

func (wf *wavefrontReader) advanceGeom() {
	if wf.geomDirty {
		wf.curGeomID++
		wf.nextPrimID = 0
		wf.geomDirty = false
	}
}

// parseFace emits one quad for 4-vertex faces and fan-triangulates larger
// polygons.
func (wf *wavefrontReader) parseFace(tokens []string) error {
	if len(tokens) < 4 {
		return fmt.Errorf(`"f" requires at least 3 vertices; got %d`, len(tokens)-1)
	}

	verts := make([]types.Vec3, len(tokens)-1)
	for i, token := range tokens[1:] {
		// Vertex references look like v, v/vt, v/vt/vn or v//vn; only the
		// vertex index matters here.
		indexToken := strings.SplitN(token, "/", 2)[0]
		index, err := strconv.Atoi(indexToken)
		if err != nil {
			return fmt.Errorf("invalid vertex reference %q", token)
		}

		// Positive indices are 1-based; negative ones count from the end of
		// the current vertex list.
		switch {
		case index > 0 && index <= len(wf.vertexList):
			verts[i] = wf.vertexList[index-1]
		case index < 0 && -index <= len(wf.vertexList):
			verts[i] = wf.vertexList[len(wf.vertexList)+index]
		default:
			return fmt.Errorf("vertex reference %d out of range", index)
		}
	}

	wf.geomDirty = true
	if len(verts) == 4 {
		wf.out.Quads = append(wf.out.Quads, builder.Quad{
			V0: verts[0], V1: verts[1], V2: verts[2], V3: verts[3],
			GeomID: wf.curGeomID, PrimID: wf.nextPrimID,
		})
		wf.nextPrimID++
		return nil
	}
	for i := 2; i < len(verts); i++ {
		wf.out.Quads = append(wf.out.Quads, builder.Triangle(verts[0], verts[i-1], verts[i], wf.curGeomID, wf.nextPrimID))
		wf.nextPrimID++
	}
	return nil
}

func (wf *wavefrontReader) parseHair(tokens []string) error {
	if len(tokens) != 17 {
		return fmt.Errorf(`"hair" requires 16 values; got %d`, len(tokens)-1)
	}

	var vals [16]float32
	for i, token := range tokens[1:] {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q", token)
		}
		vals[i] = float32(v)
	}

	wf.geomDirty = true
	wf.out.Curves = append(wf.out.Curves, scene.CurveSegment{
		P0:     types.Vec4{vals[0], vals[1], vals[2], vals[3]},
		P1:     types.Vec4{vals[4], vals[5], vals[6], vals[7]},
		P2:     types.Vec4{vals[8], vals[9], vals[10], vals[11]},
		P3:     types.Vec4{vals[12], vals[13], vals[14], vals[15]},
		GeomID: wf.curGeomID,
		PrimID: wf.nextPrimID,
	})
	wf.nextPrimID++
	return nil
}

func parseFloat32(tokens []string) (float32, error) {
	if len(tokens) != 2 {
		return 0, fmt.Errorf(`"%s" requires 1 value; got %d`, tokens[0], len(tokens)-1)
	}
	v, err := strconv.ParseFloat(tokens[1], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", tokens[1])
	}
	return float32(v), nil
}

func parseVec3(tokens []string) (types.Vec3, error) {
	if len(tokens) != 4 {
		return types.Vec3{}, fmt.Errorf(`"%s" requires 3 values; got %d`, tokens[0], len(tokens)-1)
	}
	var out types.Vec3
	for i, token := range tokens[1:] {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("invalid value %q", token)
		}
		out[i] = float32(v)
	}
	return out, nil
}
