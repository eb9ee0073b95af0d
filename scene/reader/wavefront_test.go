package reader

import (
	"strings"
	"testing"

	"github.com/Mike-Leo-Smith/embree/types"
)

func TestReadTrianglesAndQuads(t *testing.T) {
	payload := `
# comment
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
f 1 2 3 4
f 1 2 5
`
	sc, err := Read(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Quads) != 2 {
		t.Fatalf("parsed %d quads, want 2", len(sc.Quads))
	}

	q := sc.Quads[0]
	if q.V0 != (types.Vec3{0, 0, 0}) || q.V2 != (types.Vec3{1, 1, 0}) {
		t.Fatalf("quad vertices wrong: %+v", q)
	}
	if q.GeomID != 0 || q.PrimID != 0 {
		t.Fatalf("quad ids (%d, %d)", q.GeomID, q.PrimID)
	}

	// A 3-vertex face repeats its last vertex.
	tri := sc.Quads[1]
	if tri.V2 != tri.V3 {
		t.Fatalf("triangle not stored with repeated vertex: %+v", tri)
	}
	if tri.PrimID != 1 {
		t.Fatalf("triangle prim id %d, want 1", tri.PrimID)
	}
}

func TestReadPolygonFan(t *testing.T) {
	payload := `
v 0 0 0
v 2 0 0
v 3 1 0
v 2 2 0
v 0 2 0
f 1 2 3 4 5
`
	sc, err := Read(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Quads) != 3 {
		t.Fatalf("pentagon should fan into 3 triangles, got %d", len(sc.Quads))
	}
	for _, q := range sc.Quads {
		if q.V0 != (types.Vec3{0, 0, 0}) {
			t.Fatalf("fan apex wrong: %+v", q)
		}
	}
}

func TestReadNegativeAndSlashedIndices(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3/1/1 -2/2/2 -1/3/3
`
	sc, err := Read(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Quads) != 1 {
		t.Fatalf("parsed %d quads, want 1", len(sc.Quads))
	}
	if sc.Quads[0].V1 != (types.Vec3{1, 0, 0}) {
		t.Fatalf("negative index resolved wrong: %+v", sc.Quads[0])
	}
}

func TestGeometryIDsPerObject(t *testing.T) {
	payload := `
o first
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
o second
f 1 2 3
f 1 2 3
`
	sc, err := Read(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Quads) != 3 {
		t.Fatalf("parsed %d quads, want 3", len(sc.Quads))
	}
	if sc.Quads[0].GeomID != 0 || sc.Quads[1].GeomID != 1 || sc.Quads[2].GeomID != 1 {
		t.Fatalf("geometry ids: %d %d %d", sc.Quads[0].GeomID, sc.Quads[1].GeomID, sc.Quads[2].GeomID)
	}
	if sc.Quads[1].PrimID != 0 || sc.Quads[2].PrimID != 1 {
		t.Fatal("prim ids should restart per object")
	}
}

func TestCameraAndHairStatements(t *testing.T) {
	payload := `
camera_fov 60
camera_eye 1 2 3
camera_look 0 0 0
hair 0 0 0 0.1  0.3 0 0 0.1  0.6 0 0 0.1  1 0 0 0.1
`
	sc, err := Read(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}
	if sc.Camera.FOV != 60 || sc.Camera.Position != (types.Vec3{1, 2, 3}) {
		t.Fatalf("camera parsed wrong: %+v", sc.Camera)
	}
	if len(sc.Curves) != 1 {
		t.Fatalf("parsed %d curves, want 1", len(sc.Curves))
	}
	if sc.Curves[0].P3 != (types.Vec4{1, 0, 0, 0.1}) {
		t.Fatalf("curve control point wrong: %+v", sc.Curves[0])
	}
}

func TestParseErrors(t *testing.T) {
	for _, payload := range []string{
		"v 1 2",
		"f 1 2 9",
		"f 1 2",
		"hair 1 2 3",
		"camera_fov abc",
	} {
		full := "v 0 0 0\nv 1 0 0\nv 0 1 0\n" + payload
		if _, err := Read(strings.NewReader(full), "bad.obj"); err == nil {
			t.Fatalf("payload %q parsed without error", payload)
		}
	}
}
