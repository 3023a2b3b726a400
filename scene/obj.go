package scene

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

type vertexKey struct {
	position, uv, normal int
}

type objBuilder struct {
	decoder *obj.Decoder
	data    MeshData
	unique  map[vertexKey]uint32
	// smooth accumulates face normals for vertices without one.
	smooth map[uint32]bool
}

// LoadOBJ decodes an OBJ stream into one MeshData per object. Polygons
// are triangulated as fans and texture coordinates flipped vertically.
// Vertices without normals get the area-weighted average of their face
// normals. mtl may be nil.
func LoadOBJ(mesh, mtl io.Reader) ([]MeshData, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(mesh, mtl)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	var meshes []MeshData
	for _, decodedObj := range decoder.Objects {
		b := &objBuilder{decoder: decoder, unique: map[vertexKey]uint32{}, smooth: map[uint32]bool{}}
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				b.triangle(face, 0, i-1, i)
			}
		}
		if len(b.data.Indices) == 0 {
			continue
		}
		b.normalize()
		meshes = append(meshes, b.data)
	}
	if len(meshes) == 0 {
		return nil, errors.New("decode obj: no faces")
	}
	return meshes, nil
}

func lookup(values []float32, index, n int) ([]float32, bool) {
	if index < 0 || (index+1)*n > len(values) {
		return nil, false
	}
	return values[index*n : (index+1)*n], true
}

func (b *objBuilder) triangle(face obj.Face, corners ...int) {
	var indices [3]uint32
	var positions [3]mgl32.Vec3
	for c, corner := range corners {
		indices[c] = b.addVertex(face, corner)
		positions[c] = b.data.Vertices[indices[c]].Position
	}

	n := positions[1].Sub(positions[0]).Cross(positions[2].Sub(positions[0]))
	for _, index := range indices {
		if b.smooth[index] {
			v := &b.data.Vertices[index]
			v.Normal = v.Normal.Add(n)
		}
	}
	b.data.Indices = append(b.data.Indices, indices[:]...)
}

func (b *objBuilder) addVertex(face obj.Face, corner int) uint32 {
	key := vertexKey{position: face.Vertices[corner], uv: -1, normal: -1}
	if corner < len(face.Uvs) {
		key.uv = face.Uvs[corner]
	}
	if corner < len(face.Normals) {
		key.normal = face.Normals[corner]
	}
	if index, ok := b.unique[key]; ok {
		return index
	}

	var v Vertex
	if p, ok := lookup(b.decoder.Vertices, key.position, 3); ok {
		v.Position = mgl32.Vec3{p[0], p[1], p[2]}
	}
	if uv, ok := lookup(b.decoder.Uvs, key.uv, 2); ok {
		v.UV = mgl32.Vec2{uv[0], 1.0 - uv[1]}
	}
	index := uint32(len(b.data.Vertices))
	if n, ok := lookup(b.decoder.Normals, key.normal, 3); ok {
		v.Normal = mgl32.Vec3{n[0], n[1], n[2]}
	} else {
		b.smooth[index] = true
	}

	b.data.Vertices = append(b.data.Vertices, v)
	b.unique[key] = index
	return index
}

func (b *objBuilder) normalize() {
	for index := range b.smooth {
		v := &b.data.Vertices[index]
		if v.Normal.Len() > 0 {
			v.Normal = v.Normal.Normalize()
		}
	}
}
