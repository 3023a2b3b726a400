package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/render"
)

var lightColors = []mgl32.Vec3{
	{1.0, 0.6, 0.2},
	{0.3, 0.6, 1.0},
	{0.4, 1.0, 0.4},
	{1.0, 0.3, 0.8},
}

// LightRig animates point lights on a circle and holds the sun.
type LightRig struct {
	SunDirection mgl32.Vec3
	SunColor     mgl32.Vec3
	// SceneRadius bounds the geometry the sun's shadow map must cover.
	SceneRadius float32

	Count  int
	Orbit  float32
	Height float32
	Radius float32
	Speed  float32

	time float64
}

func NewLightRig(count int) *LightRig {
	return &LightRig{
		SunDirection: mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
		SunColor:     mgl32.Vec3{2.5, 2.4, 2.2},
		SceneRadius:  15,
		Count:        count,
		Orbit:        5,
		Height:       2.5,
		Radius:       20,
		Speed:        0.7,
	}
}

func (r *LightRig) Update(dt float64) {
	r.time += dt
}

// SunViewProjection maps world space into the directional shadow map with
// an orthographic projection enclosing SceneRadius.
func (r *LightRig) SunViewProjection() mgl32.Mat4 {
	eye := r.SunDirection.Mul(-2 * r.SceneRadius)
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(r.SunDirection.Dot(up))) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, up)
	s := r.SceneRadius
	proj := mgl32.Ortho(-s, s, -s, s, 0.1, 4*s)
	proj[5] *= -1
	return proj.Mul4(view)
}

// Fill writes the sun and the point lights into frame.
func (r *LightRig) Fill(frame *render.FrameData) {
	frame.Sun = render.DirectionalLight{
		Direction:      r.SunDirection,
		Color:          r.SunColor,
		ViewProjection: r.SunViewProjection(),
	}
	for i := 0; i < r.Count; i++ {
		angle := r.time*float64(r.Speed) + 2*math.Pi*float64(i)/float64(r.Count)
		frame.PointLights = append(frame.PointLights, render.PointLight{
			Position: mgl32.Vec3{
				r.Orbit * float32(math.Cos(angle)),
				r.Height + 0.5*float32(math.Sin(2*angle)),
				r.Orbit * float32(math.Sin(angle)),
			},
			Color:  lightColors[i%len(lightColors)].Mul(4),
			Radius: r.Radius,
		})
	}
}
