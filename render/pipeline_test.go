package render

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/gputest"
)

func newTestPipelineConfig(t *testing.T, ctx *RenderContext) PipelineConfig {
	t.Helper()
	pass, err := NewRenderPass(ctx, PostProcessPassConfig("post", ctx.Config.HDRFormat))
	if err != nil {
		t.Fatal(err)
	}
	layout, err := ctx.Device.CreateDescriptorSetLayout(samplerBindings(1))
	if err != nil {
		t.Fatal(err)
	}
	return FullscreenPipelineConfig("post", pass, ctx.Config.Shaders, ctx.Config.Shaders.CompositeFrag, layout, 16)
}

func TestPipelineFreesShaderModules(t *testing.T) {
	ctx, device, _ := newTestContext(t, nil)
	p, err := NewPipeline(ctx, newTestPipelineConfig(t, ctx))
	if err != nil {
		t.Fatal(err)
	}
	if n := device.Live("ShaderModule"); n != 0 {
		t.Fatalf("expected shader modules to be destroyed after creation; got %d live", n)
	}
	info := device.Pipelines[p.Handle]
	if len(info.Stages) != 2 || info.Stages[0].Stage != gpu.StageVertex || info.Stages[1].Stage != gpu.StageFragment {
		t.Fatalf("expected vertex and fragment stages; got %+v", info.Stages)
	}
	p.Destroy()
	if device.Live("Pipeline") != 0 || device.Live("PipelineLayout") != 0 {
		t.Fatal("expected the pipeline and its layout to be destroyed")
	}
}

func TestDynamicPipelineSurvivesResize(t *testing.T) {
	ctx, device, _ := newTestContext(t, nil)
	p, err := NewPipeline(ctx, newTestPipelineConfig(t, ctx))
	if err != nil {
		t.Fatal(err)
	}
	handle := p.Handle
	p.Release()
	if err := p.Recreate(gpu.Extent2D{Width: 10, Height: 10}); err != nil {
		t.Fatal(err)
	}
	if p.Handle != handle || device.Count("CreatePipeline") != 1 {
		t.Fatal("expected a dynamic pipeline to be kept across a resize")
	}
}

func TestBakedPipelineIsRebuilt(t *testing.T) {
	ctx, device, _ := newTestContext(t, nil)
	cfg := newTestPipelineConfig(t, ctx)
	cfg.DynamicViewport = false
	cfg.Extent = gpu.Extent2D{Width: 640, Height: 480}
	p, err := NewPipeline(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	layout := p.Layout

	p.Release()
	if device.Live("Pipeline") != 0 {
		t.Fatal("expected release to destroy a baked pipeline")
	}
	extent := gpu.Extent2D{Width: 320, Height: 200}
	if err := p.Recreate(extent); err != nil {
		t.Fatal(err)
	}
	info := device.Pipelines[p.Handle]
	if info.Viewport.Width != 320 || info.Viewport.Height != 200 {
		t.Fatalf("expected viewport %s; got %+v", extent, info.Viewport)
	}
	if p.Layout != layout {
		t.Fatal("expected the layout to be kept")
	}

	cb, _ := device.AllocateCommandBuffers(1)
	_ = device.BeginCommandBuffer(cb[0])
	p.Bind(cb[0], extent)
	if names := device.CommandNames(cb[0]); len(names) != 1 || names[0] != "BindPipeline" {
		t.Fatalf("expected a baked pipeline to only bind; got %v", names)
	}
}

func TestPipelineErrors(t *testing.T) {
	ctx, device, _ := newTestContext(t, nil)
	cfg := newTestPipelineConfig(t, ctx)

	ctx.Shaders.(*gputest.Shaders).Missing = map[string]bool{cfg.FragmentShader: true}
	if _, err := NewPipeline(ctx, cfg); err == nil {
		t.Fatal("expected a missing shader to fail pipeline creation")
	}
	if device.Live("ShaderModule") != 0 || device.Live("PipelineLayout") != 0 {
		t.Fatal("expected a failed pipeline to leave nothing behind")
	}

	baked := cfg
	baked.DynamicViewport = false
	if _, err := NewPipeline(ctx, baked); err == nil {
		t.Fatal("expected a baked pipeline without an extent to be rejected")
	}
	noPass := cfg
	noPass.Pass = nil
	if _, err := NewPipeline(ctx, noPass); err == nil {
		t.Fatal("expected a pipeline without a render pass to be rejected")
	}
}
