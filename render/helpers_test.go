package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/gputest"
	"github.com/vkngwrapper/vulkangraphics/log"
)

func newTestContext(t *testing.T, mutate func(*Config)) (*RenderContext, *gputest.Device, *gputest.Window) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ShadowMapSize = 256
	cfg.PointShadowMapSize = 128
	if mutate != nil {
		mutate(&cfg)
	}
	device := gputest.NewDevice()
	window := gputest.NewWindow(1280, 720)
	ctx, err := NewRenderContext(device, window, &gputest.Shaders{}, cfg, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return ctx, device, window
}

func newTestScheduler(t *testing.T, app *testApp, mutate func(*Config)) (*FrameScheduler, *gputest.Device, *gputest.Window) {
	t.Helper()
	ctx, device, window := newTestContext(t, mutate)
	s := NewFrameScheduler(ctx, app)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	return s, device, window
}

// runFrame runs one Begin/Record/End cycle and reports whether the frame
// was rendered.
func runFrame(t *testing.T, s *FrameScheduler) bool {
	t.Helper()
	status, err := s.BeginFrame()
	if err != nil {
		t.Fatalf("begin frame %d: %v", s.FrameCount(), err)
	}
	if status == FrameSkipped {
		return false
	}
	if err := s.RecordFrame(1.0 / 60); err != nil {
		t.Fatalf("record frame %d: %v", s.FrameCount(), err)
	}
	if err := s.EndFrame(); err != nil {
		t.Fatalf("end frame %d: %v", s.FrameCount(), err)
	}
	return true
}

func assertNoViolations(t *testing.T, device *gputest.Device) {
	t.Helper()
	for _, v := range device.Violations {
		t.Error(v)
	}
}

// testApp fills every frame with objects alternating between shadow
// casters and receivers, point lights and one particle system.
type testApp struct {
	objects   int
	lights    int
	particles bool

	calls   []string
	resized []gpu.Extent2D
	buffer  gpu.Buffer
	device  gpu.Device
}

func (a *testApp) OnVulkanInit(ctx *RenderContext) (SceneLayouts, error) {
	a.calls = append(a.calls, "OnVulkanInit")
	a.device = ctx.Device
	var err error
	a.buffer, err = ctx.Device.CreateBuffer(gpu.BufferInfo{Size: 1024, Usage: gpu.BufferUsageVertex | gpu.BufferUsageIndex})
	return SceneLayouts{}, err
}

func (a *testApp) OnStart(*FrameScheduler) error {
	a.calls = append(a.calls, "OnStart")
	return nil
}

func (a *testApp) OnUpdate(dt float64, f *FrameData) error {
	a.calls = append(a.calls, "OnUpdate")
	f.Camera = Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 2, 8}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 16.0/9, 0.1, 100),
		Position:   mgl32.Vec3{0, 2, 8},
		Near:       0.1,
		Far:        100,
	}
	f.Sun = DirectionalLight{Direction: mgl32.Vec3{-1, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, ViewProjection: mgl32.Ident4()}
	f.Skybox = true
	for i := 0; i < a.objects; i++ {
		f.Objects = append(f.Objects, DrawItem{
			VertexBuffer: a.buffer,
			IndexBuffer:  a.buffer,
			IndexCount:   36,
			Model:        mgl32.Translate3D(float32(i), 0, 0),
			CastsShadow:  i%2 == 0,
		})
	}
	for i := 0; i < a.lights; i++ {
		f.PointLights = append(f.PointLights, PointLight{Position: mgl32.Vec3{float32(i), 3, 0}, Color: mgl32.Vec3{1, 0.5, 0}, Radius: 20})
	}
	if a.particles {
		f.Particles = append(f.Particles, ParticleSystem{Buffer: a.buffer, Count: 64})
	}
	return nil
}

func (a *testApp) OnWindowResize(extent gpu.Extent2D) {
	a.calls = append(a.calls, "OnWindowResize")
	a.resized = append(a.resized, extent)
}

func (a *testApp) OnCleanup() {
	a.calls = append(a.calls, "OnCleanup")
	a.device.DestroyBuffer(a.buffer)
}

// passSegments splits a command log into render pass instances.
func passSegments(cmds []gputest.Command) [][]gputest.Command {
	var segments [][]gputest.Command
	start := -1
	for i, c := range cmds {
		switch c.Name {
		case "BeginRenderPass":
			start = i
		case "EndRenderPass":
			if start >= 0 {
				segments = append(segments, cmds[start:i+1])
			}
			start = -1
		}
	}
	return segments
}

func countCommands(cmds []gputest.Command, name string) int {
	n := 0
	for _, c := range cmds {
		if c.Name == name {
			n++
		}
	}
	return n
}
