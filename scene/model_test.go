package scene

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/gputest"
)

// destroyRecorder records the order buffers are destroyed in.
type destroyRecorder struct {
	*gputest.Device
	destroyed []gpu.Buffer
}

func (r *destroyRecorder) DestroyBuffer(buffer gpu.Buffer) {
	r.destroyed = append(r.destroyed, buffer)
	r.Device.DestroyBuffer(buffer)
}

func TestModelDestroysMeshesInDeclarationOrder(t *testing.T) {
	device := &destroyRecorder{Device: gputest.NewDevice()}
	model := NewModel(device, "m")

	var exp []gpu.Buffer
	for _, data := range []MeshData{Cube(1), Plane(2), Sphere(1, 4, 6)} {
		mesh, err := model.AddMesh("mesh", data)
		if err != nil {
			t.Fatal(err)
		}
		exp = append(exp, mesh.VertexBuffer, mesh.IndexBuffer)
	}

	model.Destroy()
	if len(device.destroyed) != len(exp) {
		t.Fatalf("expected %d destroyed buffers; got %d", len(exp), len(device.destroyed))
	}
	for i := range exp {
		if device.destroyed[i] != exp[i] {
			t.Fatalf("expected buffer %d destroyed at position %d; got %d", exp[i], i, device.destroyed[i])
		}
	}
	if leaks := device.Leaks(); len(leaks) != 0 {
		t.Fatalf("expected no leaks; got %v", leaks)
	}

	model.Destroy()
	if len(device.destroyed) != len(exp) {
		t.Fatal("expected a second Destroy to be a no-op")
	}
}

func TestMeshUpload(t *testing.T) {
	device := gputest.NewDevice()
	model := NewModel(device, "m")
	data := Plane(2)
	mesh, err := model.AddMesh("plane", data)
	if err != nil {
		t.Fatal(err)
	}

	if n := len(device.Buffers[mesh.VertexBuffer]); n != 32*len(data.Vertices) {
		t.Fatalf("expected %d vertex bytes; got %d", 32*len(data.Vertices), n)
	}
	if n := len(device.Buffers[mesh.IndexBuffer]); n != 4*len(data.Indices) {
		t.Fatalf("expected %d index bytes; got %d", 4*len(data.Indices), n)
	}
	if mesh.IndexCount != 6 {
		t.Fatalf("expected 6 indices; got %d", mesh.IndexCount)
	}

	items := model.Draw(nil)
	if len(items) != 1 || items[0].VertexBuffer != mesh.VertexBuffer || items[0].IndexCount != 6 || !items[0].CastsShadow {
		t.Fatalf("unexpected draw item %+v", items)
	}
	model.Destroy()
}

func TestInvalidMeshIsRejected(t *testing.T) {
	device := gputest.NewDevice()
	model := NewModel(device, "m")

	specs := []MeshData{
		{},
		{Vertices: []Vertex{{}, {}, {}}, Indices: []uint32{0, 1}},
		{Vertices: []Vertex{{}, {}, {}}, Indices: []uint32{0, 1, 3}},
	}
	for index, data := range specs {
		if _, err := model.AddMesh("bad", data); err == nil {
			t.Fatalf("[spec %d] expected an error", index)
		}
	}
	if len(model.Meshes()) != 0 || device.Live("Buffer") != 0 {
		t.Fatal("expected no meshes or buffers after failures")
	}
}

func TestProceduralMeshes(t *testing.T) {
	type spec struct {
		name     string
		data     MeshData
		vertices int
		indices  int
	}
	specs := []spec{
		{"cube", Cube(2), 24, 36},
		{"plane", Plane(4), 4, 6},
		{"sphere", Sphere(1, 4, 8), 5 * 9, 4 * 8 * 6},
		{"clamped sphere", Sphere(1, 0, 0), 3 * 4, 2 * 3 * 6},
	}

	for index, s := range specs {
		if err := s.data.Validate(); err != nil {
			t.Fatalf("[spec %d] %s: %v", index, s.name, err)
		}
		if len(s.data.Vertices) != s.vertices || len(s.data.Indices) != s.indices {
			t.Fatalf("[spec %d] expected %d vertices and %d indices; got %d and %d",
				index, s.vertices, s.indices, len(s.data.Vertices), len(s.data.Indices))
		}
	}

	for _, v := range Cube(2).Vertices {
		for _, c := range v.Position {
			if c != 1 && c != -1 {
				t.Fatalf("expected cube corners at +-1; got %v", v.Position)
			}
		}
	}
}
