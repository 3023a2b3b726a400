package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

type focusPush struct {
	Distance float32
	Range    float32
	Near     float32
	Far      float32
}

// DepthOfFieldPass blurs the bloom output by its distance from the focus
// plane, read from the scene depth target.
type DepthOfFieldPass struct {
	ctx         *RenderContext
	pass        *RenderPass
	pipeline    *Pipeline
	sampler     gpu.Sampler
	set         gpu.DescriptorSet
	Target      *RenderTarget
	framebuffer *Framebuffer
}

func newDepthOfFieldPass(ctx *RenderContext, layout gpu.DescriptorSetLayout, set gpu.DescriptorSet, sampler gpu.Sampler, extent gpu.Extent2D) (*DepthOfFieldPass, error) {
	cfg := ctx.Config
	p := &DepthOfFieldPass{ctx: ctx, sampler: sampler, set: set}

	var err error
	if p.pass, err = NewRenderPass(ctx, PostProcessPassConfig("depth-of-field", cfg.HDRFormat)); err != nil {
		return nil, err
	}
	pipeline := FullscreenPipelineConfig("depth-of-field", p.pass, cfg.Shaders, cfg.Shaders.DepthOfField, layout, len(pushBytes(focusPush{})))
	if p.pipeline, err = NewPipeline(ctx, pipeline); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.Recreate(extent); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *DepthOfFieldPass) Release() {
	device := p.ctx.Device
	p.framebuffer.Destroy(device)
	p.Target.Destroy(device)
	p.framebuffer, p.Target = nil, nil
}

func (p *DepthOfFieldPass) Recreate(extent gpu.Extent2D) error {
	p.Release()
	var err error
	p.Target, err = NewRenderTarget(p.ctx, TargetDesc{Name: "depth-of-field", Extent: extent, Format: p.ctx.Config.HDRFormat, Sampled: true})
	if err != nil {
		return err
	}
	p.framebuffer, err = NewFramebuffer(p.ctx, p.pass, p.Target)
	return err
}

// Connect binds the color input and the scene depth.
func (p *DepthOfFieldPass) Connect(color, depth *RenderTarget) error {
	return errors.Wrap(writeSamplers(p.ctx.Device, p.set, p.sampler, color, depth), "depth of field")
}

func (p *DepthOfFieldPass) Record(cb gpu.CommandBuffer, camera *Camera) {
	device := p.ctx.Device
	cfg := p.ctx.Config
	push := focusPush{Distance: cfg.FocusDistance, Range: cfg.FocusRange, Near: camera.Near, Far: camera.Far}

	p.framebuffer.Begin(device, cb, [4]float32{})
	p.pipeline.Bind(cb, p.Target.Extent)
	device.CmdBindDescriptorSets(cb, p.pipeline.Layout, 0, p.set)
	device.CmdPushConstants(cb, p.pipeline.Layout, gpu.StageFragment, 0, pushBytes(push))
	device.CmdDraw(cb, 3, 1, 0, 0)
	device.CmdEndRenderPass(cb)
}

func (p *DepthOfFieldPass) Destroy() {
	if p == nil {
		return
	}
	device := p.ctx.Device
	p.pipeline.Destroy()
	p.framebuffer.Destroy(device)
	p.Target.Destroy(device)
	p.pass.Destroy(device)
}

type exposurePush struct {
	Exposure float32
	_        [3]float32
}

// CompositePass tone maps the final post-processed color into the
// acquired swapchain image and records the overlay on top.
type CompositePass struct {
	ctx       *RenderContext
	swapchain *SwapchainManager
	pipeline  *Pipeline
	sampler   gpu.Sampler
	set       gpu.DescriptorSet
	Overlay   Overlay
}

func newCompositePass(ctx *RenderContext, swapchain *SwapchainManager, layout gpu.DescriptorSetLayout, set gpu.DescriptorSet, sampler gpu.Sampler) (*CompositePass, error) {
	cfg := ctx.Config
	pipeline := FullscreenPipelineConfig("composite", swapchain.Pass(), cfg.Shaders, cfg.Shaders.CompositeFrag, layout, len(pushBytes(exposurePush{})))
	if cfg.BakeViewports {
		pipeline.DynamicViewport = false
		pipeline.Extent = swapchain.Extent()
	}

	p := &CompositePass{ctx: ctx, swapchain: swapchain, sampler: sampler, set: set}
	var err error
	if p.pipeline, err = NewPipeline(ctx, pipeline); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CompositePass) Release() {
	p.pipeline.Release()
}

func (p *CompositePass) Recreate(extent gpu.Extent2D) error {
	return p.pipeline.Recreate(extent)
}

// Connect binds the image the composite samples.
func (p *CompositePass) Connect(color *RenderTarget) error {
	return errors.Wrap(writeSamplers(p.ctx.Device, p.set, p.sampler, color), "composite")
}

func (p *CompositePass) Record(cb gpu.CommandBuffer, imageIndex int, exposure float32) error {
	device := p.ctx.Device
	fb := p.swapchain.Framebuffer(imageIndex)

	fb.Begin(device, cb, [4]float32{0, 0, 0, 1})
	p.pipeline.Bind(cb, fb.Extent)
	device.CmdBindDescriptorSets(cb, p.pipeline.Layout, 0, p.set)
	device.CmdPushConstants(cb, p.pipeline.Layout, gpu.StageFragment, 0, pushBytes(exposurePush{Exposure: exposure}))
	device.CmdDraw(cb, 3, 1, 0, 0)
	if p.Overlay != nil {
		if err := p.Overlay.Record(device, cb, fb.Extent); err != nil {
			device.CmdEndRenderPass(cb)
			return errors.Wrap(err, "record overlay")
		}
	}
	device.CmdEndRenderPass(cb)
	return nil
}

func (p *CompositePass) Destroy() {
	if p == nil {
		return
	}
	p.pipeline.Destroy()
}
