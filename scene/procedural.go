package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cube returns an axis-aligned cube centered on the origin with one quad
// of four vertices per face.
func Cube(size float32) MeshData {
	h := size / 2
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	var data MeshData
	for _, f := range faces {
		base := uint32(len(data.Vertices))
		corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(h)
			data.Vertices = append(data.Vertices, Vertex{
				Position: p,
				Normal:   f.normal,
				UV:       mgl32.Vec2{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
			})
		}
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return data
}

// Plane returns a square in the XZ plane facing +Y, with texture
// coordinates repeating once per unit.
func Plane(size float32) MeshData {
	h := size / 2
	n := mgl32.Vec3{0, 1, 0}
	return MeshData{
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-h, 0, h}, Normal: n, UV: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{h, 0, h}, Normal: n, UV: mgl32.Vec2{size, 0}},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: n, UV: mgl32.Vec2{size, size}},
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: n, UV: mgl32.Vec2{0, size}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Sphere returns a UV sphere. rings and segments are clamped to at least
// 2 and 3.
func Sphere(radius float32, rings, segments int) MeshData {
	rings = max(rings, 2)
	segments = max(segments, 3)

	var data MeshData
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			data.Vertices = append(data.Vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				UV:       mgl32.Vec2{float32(s) / float32(segments), float32(r) / float32(rings)},
			})
		}
	}

	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			data.Indices = append(data.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return data
}
