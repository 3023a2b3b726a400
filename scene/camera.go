package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/render"
)

// OrbitCamera circles a target point at a fixed distance and height.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Height   float32
	// Speed is the orbit angular velocity in radians per second.
	Speed float32
	FovY  float32
	Near  float32
	Far   float32

	angle  float64
	aspect float32
}

func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance: 12,
		Height:   5,
		Speed:    0.2,
		FovY:     mgl32.DegToRad(60),
		Near:     0.1,
		Far:      100,
		aspect:   16.0 / 9,
	}
}

// SetExtent updates the aspect ratio. Zero extents are ignored.
func (c *OrbitCamera) SetExtent(extent gpu.Extent2D) {
	if extent.IsZero() {
		return
	}
	c.aspect = float32(extent.Width) / float32(extent.Height)
}

func (c *OrbitCamera) Update(dt float64) {
	c.angle = math.Mod(c.angle+dt*float64(c.Speed), 2*math.Pi)
}

func (c *OrbitCamera) Position() mgl32.Vec3 {
	return c.Target.Add(mgl32.Vec3{
		c.Distance * float32(math.Cos(c.angle)),
		c.Height,
		c.Distance * float32(math.Sin(c.angle)),
	})
}

// Fill writes the view and projection into camera. The projection flips
// Y for Vulkan clip space.
func (c *OrbitCamera) Fill(camera *render.Camera) {
	eye := c.Position()
	proj := mgl32.Perspective(c.FovY, c.aspect, c.Near, c.Far)
	proj[5] *= -1

	camera.View = mgl32.LookAtV(eye, c.Target, mgl32.Vec3{0, 1, 0})
	camera.Projection = proj
	camera.Position = eye
	camera.Near = c.Near
	camera.Far = c.Far
}
