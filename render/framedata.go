package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// DrawItem is one mesh instance supplied by the content layer.
type DrawItem struct {
	VertexBuffer gpu.Buffer
	// IndexBuffer is optional; without it VertexCount vertices are drawn.
	IndexBuffer gpu.Buffer
	IndexCount  int
	VertexCount int

	Model mgl32.Mat4
	// Emissive is added to the lit color; its alpha scales it.
	Emissive    mgl32.Vec4
	CastsShadow bool
	// Set is bound at set index 2 of the scene pipeline when the content
	// declared an object layout.
	Set gpu.DescriptorSet
}

// ParticleSystem is a GPU-resident particle buffer in ParticleVertexLayout.
type ParticleSystem struct {
	Buffer gpu.Buffer
	Count  int
	// Set is bound at set index 1 of the particle pipeline when the content
	// declared a particle layout.
	Set gpu.DescriptorSet
}

type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
	Near       float32
	Far        float32
}

type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	// ViewProjection maps world space into the shadow map.
	ViewProjection mgl32.Mat4
}

type PointLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	// Radius is the far plane of the light's cube shadow map.
	Radius float32
}

// FrameData is everything the content layer supplies for one frame. The
// scheduler hands the same value to Application.OnUpdate every frame after
// calling Reset.
type FrameData struct {
	Camera      Camera
	Sun         DirectionalLight
	PointLights []PointLight
	Objects     []DrawItem
	Skybox      bool
	Particles   []ParticleSystem
	// Exposure overrides Config.Exposure when positive.
	Exposure float32
	// Time in seconds since start, forwarded to shaders.
	Time float32
}

// Reset zeroes every field, keeping the storage of the per-frame lists.
// Nothing set by OnUpdate carries over to the next frame.
func (f *FrameData) Reset() {
	*f = FrameData{
		PointLights: f.PointLights[:0],
		Objects:     f.Objects[:0],
		Particles:   f.Particles[:0],
	}
}

func (f *FrameData) shadowCasters(yield func(*DrawItem)) {
	for i := range f.Objects {
		if f.Objects[i].CastsShadow {
			yield(&f.Objects[i])
		}
	}
}

// SceneLayouts are the descriptor set layouts declared by the content
// layer. Zero layouts are omitted from the pipeline layouts.
type SceneLayouts struct {
	Object   gpu.DescriptorSetLayout
	Particle gpu.DescriptorSetLayout
}

func drawItem(device gpu.Device, cb gpu.CommandBuffer, item *DrawItem) {
	device.CmdBindVertexBuffer(cb, item.VertexBuffer, 0)
	if item.IndexBuffer != 0 {
		device.CmdBindIndexBuffer(cb, item.IndexBuffer, 0, gpu.IndexUint32)
		device.CmdDrawIndexed(cb, item.IndexCount, 1, 0, 0, 0)
		return
	}
	device.CmdDraw(cb, item.VertexCount, 1, 0, 0)
}
