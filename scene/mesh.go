// Package scene is the demo content layer: meshes and models, procedural
// and OBJ geometry, an orbit camera, animated lights and particles.
package scene

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// Vertex matches render.MeshVertexLayout.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// MeshData is CPU-side indexed triangle geometry.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Validate checks that every index refers to a vertex and that the index
// count describes whole triangles.
func (m MeshData) Validate() error {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return errors.New("mesh has no geometry")
	}
	if len(m.Indices)%3 != 0 {
		return errors.Errorf("mesh has %d indices, not a multiple of 3", len(m.Indices))
	}
	for _, i := range m.Indices {
		if int(i) >= len(m.Vertices) {
			return errors.Errorf("index %d out of range of %d vertices", i, len(m.Vertices))
		}
	}
	return nil
}

// Mesh is geometry uploaded to host-visible vertex and index buffers. A
// Mesh is owned by exactly one Model.
type Mesh struct {
	Name         string
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   int
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func uploadBuffer(device gpu.Device, usage gpu.BufferUsage, data any) (gpu.Buffer, error) {
	b, err := encode(data)
	if err != nil {
		return 0, err
	}
	buffer, err := device.CreateBuffer(gpu.BufferInfo{Size: len(b), Usage: usage, HostVisible: true})
	if err != nil {
		return 0, err
	}
	if err := device.WriteBuffer(buffer, 0, b); err != nil {
		device.DestroyBuffer(buffer)
		return 0, err
	}
	return buffer, nil
}

func newMesh(device gpu.Device, name string, data MeshData) (*Mesh, error) {
	if err := data.Validate(); err != nil {
		return nil, errors.Wrapf(err, "mesh %s", name)
	}
	m := &Mesh{Name: name, IndexCount: len(data.Indices)}

	var err error
	m.VertexBuffer, err = uploadBuffer(device, gpu.BufferUsageVertex, data.Vertices)
	if err != nil {
		return nil, errors.Wrapf(err, "upload vertices of %s", name)
	}
	m.IndexBuffer, err = uploadBuffer(device, gpu.BufferUsageIndex, data.Indices)
	if err != nil {
		device.DestroyBuffer(m.VertexBuffer)
		return nil, errors.Wrapf(err, "upload indices of %s", name)
	}
	return m, nil
}

func (m *Mesh) destroy(device gpu.Device) {
	device.DestroyBuffer(m.VertexBuffer)
	device.DestroyBuffer(m.IndexBuffer)
	m.VertexBuffer, m.IndexBuffer = 0, 0
}
