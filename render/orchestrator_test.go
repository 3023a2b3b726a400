package render

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/gputest"
)

func lastFrameCommands(t *testing.T, device *gputest.Device) []gputest.Command {
	t.Helper()
	if len(device.Submits) == 0 {
		t.Fatal("expected at least one submission")
	}
	return device.Commands(device.Submits[len(device.Submits)-1].CommandBuffer)
}

func TestPassOrder(t *testing.T) {
	type spec struct {
		dof bool
	}
	specs := []spec{{false}, {true}}

	for index, sp := range specs {
		app := &testApp{objects: 3, lights: 2, particles: true}
		s, device, _ := newTestScheduler(t, app, func(c *Config) { c.DepthOfField = sp.dof })
		if !runFrame(t, s) {
			t.Fatalf("[spec %d] expected the frame to be rendered", index)
		}
		o := s.Orchestrator()

		exp := []gpu.Framebuffer{o.sun.framebuffer.Handle}
		for _, fb := range o.points.framebuffers {
			exp = append(exp, fb.Handle)
		}
		exp = append(exp, o.scene.framebuffer.Handle)
		for _, stage := range o.bloom.stages() {
			exp = append(exp, stage.framebuffer.Handle)
		}
		if sp.dof {
			exp = append(exp, o.dof.framebuffer.Handle)
		}
		exp = append(exp, s.Swapchain().Framebuffer(s.ImageIndex()).Handle)

		segments := passSegments(lastFrameCommands(t, device))
		if len(segments) != len(exp) {
			t.Fatalf("[spec %d] expected %d passes; got %d", index, len(exp), len(segments))
		}
		for i, seg := range segments {
			if seg[0].Framebuffer != exp[i] {
				t.Fatalf("[spec %d] expected pass %d to use framebuffer %d; got %d", index, i, exp[i], seg[0].Framebuffer)
			}
			if seg[1].Name != "BindPipeline" || seg[2].Name != "SetViewport" || seg[3].Name != "SetScissor" || seg[4].Name != "BindDescriptorSets" {
				t.Fatalf("[spec %d] expected pass %d to bind, set viewport and scissor, then bind descriptors; got %s %s %s %s",
					index, i, seg[1].Name, seg[2].Name, seg[3].Name, seg[4].Name)
			}
			fb := device.Framebuffers[seg[0].Framebuffer]
			if seg[2].Viewport.Width != float32(fb.Extent.Width) || seg[2].Viewport.Height != float32(fb.Extent.Height) {
				t.Fatalf("[spec %d] expected pass %d viewport to cover %s; got %+v", index, i, fb.Extent, seg[2].Viewport)
			}
		}
		assertNoViolations(t, device)
	}
}

func TestShadowPassDraws(t *testing.T) {
	app := &testApp{objects: 5, lights: 2}
	s, device, _ := newTestScheduler(t, app, nil)
	runFrame(t, s)
	segments := passSegments(lastFrameCommands(t, device))
	casters := 3

	if n := countCommands(segments[0], "DrawIndexed"); n != casters {
		t.Fatalf("expected %d directional shadow draws; got %d", casters, n)
	}
	for light := 1; light <= 2; light++ {
		seg := segments[light]
		faces := 0
		for _, c := range seg {
			if c.Name == "PushConstants" && c.Offset == modelPushSize {
				if len(c.Data) != facePushSize {
					t.Fatalf("expected %d byte face push; got %d", facePushSize, len(c.Data))
				}
				faces++
			}
		}
		if faces != 6 {
			t.Fatalf("expected 6 face pushes for light %d; got %d", light-1, faces)
		}
		if n := countCommands(seg, "DrawIndexed"); n != 6*casters {
			t.Fatalf("expected %d draws for light %d; got %d", 6*casters, light-1, n)
		}
	}
	assertNoViolations(t, device)
}

func TestPointShadowSkipsMissingLights(t *testing.T) {
	app := &testApp{objects: 2, lights: 1}
	s, device, _ := newTestScheduler(t, app, func(c *Config) { c.PointLights = 3 })
	runFrame(t, s)
	segments := passSegments(lastFrameCommands(t, device))

	for light := 0; light < 3; light++ {
		n := countCommands(segments[1+light], "DrawIndexed")
		exp := 0
		if light == 0 {
			exp = 6
		}
		if n != exp {
			t.Fatalf("expected %d draws for light %d; got %d", exp, light, n)
		}
	}
}

func TestSceneDrawOrder(t *testing.T) {
	app := &testApp{objects: 3, particles: true}
	s, device, _ := newTestScheduler(t, app, func(c *Config) {
		c.DirectionalShadow = false
		c.PointLights = 0
	})
	runFrame(t, s)
	scene := passSegments(lastFrameCommands(t, device))[0]

	var draws []gputest.Command
	for _, c := range scene {
		if c.Name == "Draw" || c.Name == "DrawIndexed" {
			draws = append(draws, c)
		}
	}
	if len(draws) != 5 {
		t.Fatalf("expected 5 draws; got %d", len(draws))
	}
	if draws[0].Name != "Draw" || draws[0].Count != 36 {
		t.Fatalf("expected the skybox first; got %+v", draws[0])
	}
	for i := 1; i <= 3; i++ {
		if draws[i].Name != "DrawIndexed" || draws[i].Count != 36 {
			t.Fatalf("expected object draw %d; got %+v", i, draws[i])
		}
	}
	if draws[4].Name != "Draw" || draws[4].Count != 64 {
		t.Fatalf("expected the particles last; got %+v", draws[4])
	}
	for _, c := range scene {
		if c.Name == "PushConstants" && c.Layout == s.Orchestrator().scene.opaque.Layout && len(c.Data) != objectPushSize {
			t.Fatalf("expected %d byte object pushes; got %d", objectPushSize, len(c.Data))
		}
	}
}

func TestDisabledPassesAreSkipped(t *testing.T) {
	app := &testApp{objects: 2, lights: 2}
	s, device, _ := newTestScheduler(t, app, func(c *Config) {
		c.DirectionalShadow = false
		c.PointLights = 0
		c.BloomLevels = 2
	})
	runFrame(t, s)

	segments := passSegments(lastFrameCommands(t, device))
	if exp := 1 + (2*2 + 2) + 1; len(segments) != exp {
		t.Fatalf("expected %d passes; got %d", exp, len(segments))
	}
	if s.Orchestrator().sun != nil || s.Orchestrator().points != nil {
		t.Fatal("expected no shadow passes")
	}
	if n := len(device.Bindings[s.Orchestrator().shadowSet]); n != 0 {
		t.Fatalf("expected an empty shadow set; got %d bindings", n)
	}
	assertNoViolations(t, device)
}

func TestShadowSetBindings(t *testing.T) {
	s, device, _ := newTestScheduler(t, &testApp{}, func(c *Config) { c.PointLights = 3 })
	o := s.Orchestrator()
	bindings := device.Bindings[o.shadowSet]

	if bindings[0].ImageView != o.sun.Target.View {
		t.Fatal("expected binding 0 to hold the directional shadow map")
	}
	if bindings[0].Layout != gpu.LayoutDepthReadOnly {
		t.Fatalf("expected the shadow map to be sampled read-only; got %v", bindings[0].Layout)
	}
	for i, target := range o.points.Targets {
		if bindings[1+i].ImageView != target.View {
			t.Fatalf("expected binding %d to hold the cube view of light %d", 1+i, i)
		}
	}
}

func TestFrameUniformsAreWritten(t *testing.T) {
	app := &testApp{objects: 1, lights: 2}
	s, device, _ := newTestScheduler(t, app, nil)
	runFrame(t, s)

	mem := device.Buffers[s.Orchestrator().uniforms.Buffer]
	frame := FrameData{}
	if err := app.OnUpdate(0, &frame); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mem[:modelPushSize], pushBytes(frame.Camera.View)) {
		t.Fatal("expected the view matrix at the start of the frame block")
	}
	if !bytes.Equal(mem[modelPushSize:2*modelPushSize], pushBytes(frame.Camera.Projection)) {
		t.Fatal("expected the projection matrix after the view matrix")
	}
}

type recordingOverlay struct {
	extents []gpu.Extent2D
	err     error
}

func (o *recordingOverlay) Record(device gpu.Device, cb gpu.CommandBuffer, extent gpu.Extent2D) error {
	o.extents = append(o.extents, extent)
	device.CmdDraw(cb, 6, 1, 0, 0)
	return o.err
}

func TestOverlayIsRecordedInCompositePass(t *testing.T) {
	s, device, _ := newTestScheduler(t, &testApp{objects: 1}, nil)
	overlay := &recordingOverlay{}
	s.Orchestrator().SetOverlay(overlay)
	runFrame(t, s)

	segments := passSegments(lastFrameCommands(t, device))
	composite := segments[len(segments)-1]
	draws := 0
	for _, c := range composite {
		if c.Name == "Draw" {
			draws++
			if draws == 2 && c.Count != 6 {
				t.Fatalf("expected the overlay draw after the full-screen triangle; got %+v", c)
			}
		}
	}
	if draws != 2 {
		t.Fatalf("expected 2 draws in the composite pass; got %d", draws)
	}
	if len(overlay.extents) != 1 || overlay.extents[0] != s.Swapchain().Extent() {
		t.Fatalf("expected the overlay to record once at %s; got %v", s.Swapchain().Extent(), overlay.extents)
	}
}

func TestOverlayErrorFailsFrame(t *testing.T) {
	s, _, _ := newTestScheduler(t, &testApp{}, nil)
	s.Orchestrator().SetOverlay(&recordingOverlay{err: errors.New("overlay broke")})

	if _, err := s.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordFrame(0); err == nil {
		t.Fatal("expected the overlay error to fail the frame")
	}
}

func TestBakedViewportsAreRebuiltOnResize(t *testing.T) {
	s, device, window := newTestScheduler(t, &testApp{objects: 1}, func(c *Config) { c.BakeViewports = true })
	o := s.Orchestrator()

	check := func(extent gpu.Extent2D) {
		t.Helper()
		for _, pl := range []*Pipeline{o.scene.opaque, o.scene.skybox, o.scene.particles, o.composite.pipeline} {
			info, ok := device.Pipelines[pl.Handle]
			if !ok {
				t.Fatalf("expected pipeline %s to be alive", pl.Config.Name)
			}
			if info.DynamicViewport || info.Viewport.Width != float32(extent.Width) || info.Viewport.Height != float32(extent.Height) {
				t.Fatalf("expected pipeline %s baked at %s; got %+v", pl.Config.Name, extent, info.Viewport)
			}
		}
	}
	check(s.Swapchain().Extent())

	window.Size = gpu.Extent2D{Width: 720, Height: 480}
	s.RequestResize()
	runFrame(t, s)
	check(window.Size)

	if !runFrame(t, s) {
		t.Fatal("expected a frame after the resize")
	}
	segments := passSegments(lastFrameCommands(t, device))
	scene := segments[len(segments)-len(o.bloom.stages())-2]
	if countCommands(scene, "SetViewport") != 0 {
		t.Fatal("expected baked pipelines not to set the viewport")
	}
	assertNoViolations(t, device)
}

func TestOrchestratorDestroyUnregisters(t *testing.T) {
	s, _, _ := newTestScheduler(t, &testApp{}, nil)
	s.Orchestrator().Destroy()
	if names := s.Swapchain().Dependents(); len(names) != 0 {
		t.Fatalf("expected no dependents after destroy; got %v", names)
	}
}

func hasDependency(deps []gpu.SubpassDependency, exp gpu.SubpassDependency) bool {
	for _, d := range deps {
		if d.SrcSubpass == exp.SrcSubpass && d.DstSubpass == exp.DstSubpass &&
			d.SrcStage&exp.SrcStage == exp.SrcStage && d.DstStage&exp.DstStage == exp.DstStage &&
			d.SrcAccess&exp.SrcAccess == exp.SrcAccess && d.DstAccess&exp.DstAccess == exp.DstAccess {
			return true
		}
	}
	return false
}

func TestSceneDepthIsSynchronizedForDepthOfField(t *testing.T) {
	depthTests := gpu.PipelineStageEarlyFragmentTests | gpu.PipelineStageLateFragmentTests
	writeToRead := gpu.SubpassDependency{
		SrcSubpass: 0,
		DstSubpass: gpu.SubpassExternal,
		SrcStage:   depthTests,
		DstStage:   gpu.PipelineStageFragmentShader,
		SrcAccess:  gpu.AccessDepthAttachmentWrite,
		DstAccess:  gpu.AccessShaderRead,
	}
	readToClear := gpu.SubpassDependency{
		SrcSubpass: gpu.SubpassExternal,
		DstSubpass: 0,
		SrcStage:   gpu.PipelineStageFragmentShader,
		DstStage:   depthTests,
		SrcAccess:  gpu.AccessShaderRead,
		DstAccess:  gpu.AccessDepthAttachmentWrite,
	}

	type spec struct {
		dof bool
	}
	specs := []spec{{false}, {true}}
	for index, sp := range specs {
		s, device, _ := newTestScheduler(t, &testApp{objects: 1}, func(c *Config) { c.DepthOfField = sp.dof })
		info := device.RenderPasses[s.Orchestrator().scene.pass.Handle]

		if got := hasDependency(info.Dependencies, writeToRead); got != sp.dof {
			t.Fatalf("[spec %d] expected depth write to shader read dependency %t; got %t", index, sp.dof, got)
		}
		if got := hasDependency(info.Dependencies, readToClear); got != sp.dof {
			t.Fatalf("[spec %d] expected shader read to depth clear dependency %t; got %t", index, sp.dof, got)
		}
		if !runFrame(t, s) {
			t.Fatalf("[spec %d] expected the frame to be rendered", index)
		}
		assertNoViolations(t, device)
	}
}

func TestFrameUniformsUseConfiguredLightCount(t *testing.T) {
	type spec struct {
		configured int
		supplied   int
		exp        int
	}
	specs := []spec{
		{2, 4, 2},
		{3, 1, 1},
		{0, 4, 0},
		{MaxPointLights, MaxPointLights + 2, MaxPointLights},
	}

	for index, s := range specs {
		app := &testApp{objects: 1, lights: s.supplied}
		sched, _, _ := newTestScheduler(t, app, func(c *Config) { c.PointLights = s.configured })
		runFrame(t, sched)

		block := sched.Orchestrator().uniforms.block
		if got := int(block.Params[0]); got != s.exp {
			t.Fatalf("[spec %d] expected %d point lights in the frame block; got %d", index, s.exp, got)
		}
		for i := s.exp; i < MaxPointLights; i++ {
			if block.PointLights[i] != (pointLightBlock{}) {
				t.Fatalf("[spec %d] expected point light slot %d to be empty; got %+v", index, i, block.PointLights[i])
			}
		}
		sched.Cleanup()
	}
}
