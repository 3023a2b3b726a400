package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/render"
)

// Model exclusively owns its meshes. Meshes are created through the model
// and destroyed with it, in the order they were added.
type Model struct {
	Name        string
	Transform   mgl32.Mat4
	Emissive    mgl32.Vec4
	CastsShadow bool

	device gpu.Device
	meshes []*Mesh
}

func NewModel(device gpu.Device, name string) *Model {
	return &Model{
		Name:        name,
		Transform:   mgl32.Ident4(),
		CastsShadow: true,
		device:      device,
	}
}

// AddMesh uploads data as a new mesh owned by the model.
func (m *Model) AddMesh(name string, data MeshData) (*Mesh, error) {
	mesh, err := newMesh(m.device, name, data)
	if err != nil {
		return nil, err
	}
	m.meshes = append(m.meshes, mesh)
	return mesh, nil
}

// Meshes returns the meshes in declaration order. The slice must not be
// retained past Destroy.
func (m *Model) Meshes() []*Mesh {
	return m.meshes
}

// Draw appends one draw item per mesh.
func (m *Model) Draw(items []render.DrawItem) []render.DrawItem {
	for _, mesh := range m.meshes {
		items = append(items, render.DrawItem{
			VertexBuffer: mesh.VertexBuffer,
			IndexBuffer:  mesh.IndexBuffer,
			IndexCount:   mesh.IndexCount,
			Model:        m.Transform,
			Emissive:     m.Emissive,
			CastsShadow:  m.CastsShadow,
		})
	}
	return items
}

// Destroy releases the meshes in declaration order. It is safe to call
// more than once.
func (m *Model) Destroy() {
	for _, mesh := range m.meshes {
		mesh.destroy(m.device)
	}
	m.meshes = nil
}
