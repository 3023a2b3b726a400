package scene

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const quadOBJ = `o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestLoadOBJTriangulatesPolygons(t *testing.T) {
	meshes, err := LoadOBJ(strings.NewReader(quadOBJ), strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh; got %d", len(meshes))
	}
	m := meshes[0]
	if len(m.Vertices) != 4 {
		t.Fatalf("expected 4 shared vertices; got %d", len(m.Vertices))
	}
	exp := []uint32{0, 1, 2, 0, 2, 3}
	if len(m.Indices) != len(exp) {
		t.Fatalf("expected indices %v; got %v", exp, m.Indices)
	}
	for i := range exp {
		if m.Indices[i] != exp[i] {
			t.Fatalf("expected indices %v; got %v", exp, m.Indices)
		}
	}
	if m.Vertices[0].UV != (mgl32.Vec2{0, 1}) {
		t.Fatalf("expected a flipped texture coordinate; got %v", m.Vertices[0].UV)
	}
	if m.Vertices[2].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Fatalf("expected the file normal; got %v", m.Vertices[2].Normal)
	}
}

const triangleOBJ = `o tri
v 0 0 0
v 1 0 0
v 0 0 -1
f 1 2 3
`

func TestLoadOBJComputesMissingNormals(t *testing.T) {
	meshes, err := LoadOBJ(strings.NewReader(triangleOBJ), strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range meshes[0].Vertices {
		if !v.Normal.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("expected an up facing normal; got %v", v.Normal)
		}
	}
}

func TestLoadOBJWithoutFaces(t *testing.T) {
	if _, err := LoadOBJ(strings.NewReader("o empty\nv 0 0 0\n"), strings.NewReader("")); err == nil {
		t.Fatal("expected an error for a file without faces")
	}
}
