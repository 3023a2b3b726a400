package render

import "github.com/vkngwrapper/vulkangraphics/gpu"

// ScenePass renders the lit scene into an HDR color target and a depth
// target of the swapchain's size.
type ScenePass struct {
	ctx         *RenderContext
	layouts     SceneLayouts
	pass        *RenderPass
	Color       *RenderTarget
	Depth       *RenderTarget
	framebuffer *Framebuffer
	skybox      *Pipeline
	opaque      *Pipeline
	particles   *Pipeline
}

func newScenePass(ctx *RenderContext, layouts SceneLayouts, frameLayout, shadowLayout gpu.DescriptorSetLayout, extent gpu.Extent2D) (*ScenePass, error) {
	cfg := ctx.Config
	p := &ScenePass{ctx: ctx, layouts: layouts}

	var err error
	p.pass, err = NewRenderPass(ctx, OffscreenPassConfig("scene", cfg.HDRFormat, cfg.DepthFormat, cfg.DepthOfField))
	if err != nil {
		return nil, err
	}
	if err := p.createTargets(extent); err != nil {
		p.Destroy()
		return nil, err
	}

	dynamic := !cfg.BakeViewports
	sceneLayouts := []gpu.DescriptorSetLayout{frameLayout, shadowLayout}
	if layouts.Object != 0 {
		sceneLayouts = append(sceneLayouts, layouts.Object)
	}
	particleLayouts := []gpu.DescriptorSetLayout{frameLayout}
	if layouts.Particle != 0 {
		particleLayouts = append(particleLayouts, layouts.Particle)
	}

	if p.skybox, err = NewPipeline(ctx, SkyboxPipelineConfig(p.pass, cfg.Shaders, []gpu.DescriptorSetLayout{frameLayout}, extent, dynamic)); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.opaque, err = NewPipeline(ctx, ScenePipelineConfig(p.pass, cfg.Shaders, sceneLayouts, extent, dynamic)); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.particles, err = NewPipeline(ctx, ParticlePipelineConfig(p.pass, cfg.Shaders, particleLayouts, extent, dynamic)); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *ScenePass) createTargets(extent gpu.Extent2D) error {
	var err error
	p.Color, err = NewRenderTarget(p.ctx, TargetDesc{Name: "hdr-color", Extent: extent, Format: p.ctx.Config.HDRFormat, Sampled: true})
	if err != nil {
		return err
	}
	p.Depth, err = NewRenderTarget(p.ctx, TargetDesc{Name: "hdr-depth", Extent: extent, Format: p.ctx.Config.DepthFormat, Sampled: p.ctx.Config.DepthOfField})
	if err != nil {
		return err
	}
	p.framebuffer, err = NewFramebuffer(p.ctx, p.pass, p.Color, p.Depth)
	return err
}

func (p *ScenePass) pipelines() []*Pipeline {
	return []*Pipeline{p.skybox, p.opaque, p.particles}
}

// Release destroys the targets, the framebuffer and baked pipelines.
func (p *ScenePass) Release() {
	device := p.ctx.Device
	for _, pl := range p.pipelines() {
		pl.Release()
	}
	p.framebuffer.Destroy(device)
	p.Depth.Destroy(device)
	p.Color.Destroy(device)
	p.framebuffer, p.Depth, p.Color = nil, nil, nil
}

func (p *ScenePass) Recreate(extent gpu.Extent2D) error {
	p.Release()
	if err := p.createTargets(extent); err != nil {
		return err
	}
	for _, pl := range p.pipelines() {
		if err := pl.Recreate(extent); err != nil {
			return err
		}
	}
	return nil
}

// Record draws the skybox, the scene objects and the particle systems, in
// that order.
func (p *ScenePass) Record(cb gpu.CommandBuffer, frame *FrameData, frameSet, shadowSet gpu.DescriptorSet) {
	device := p.ctx.Device
	extent := p.Color.Extent
	p.framebuffer.Begin(device, cb, [4]float32{0, 0, 0, 1})

	if frame.Skybox {
		p.skybox.Bind(cb, extent)
		device.CmdBindDescriptorSets(cb, p.skybox.Layout, 0, frameSet)
		device.CmdDraw(cb, 36, 1, 0, 0)
	}

	if len(frame.Objects) > 0 {
		p.opaque.Bind(cb, extent)
		device.CmdBindDescriptorSets(cb, p.opaque.Layout, 0, frameSet, shadowSet)
		stages := gpu.StageVertex | gpu.StageFragment
		for i := range frame.Objects {
			item := &frame.Objects[i]
			if item.Set != 0 && p.layouts.Object != 0 {
				device.CmdBindDescriptorSets(cb, p.opaque.Layout, 2, item.Set)
			}
			push := objectPush{Model: item.Model, Emissive: item.Emissive}
			device.CmdPushConstants(cb, p.opaque.Layout, stages, 0, pushBytes(push))
			drawItem(device, cb, item)
		}
	}

	if len(frame.Particles) > 0 {
		p.particles.Bind(cb, extent)
		device.CmdBindDescriptorSets(cb, p.particles.Layout, 0, frameSet)
		for _, ps := range frame.Particles {
			if ps.Count == 0 {
				continue
			}
			if ps.Set != 0 && p.layouts.Particle != 0 {
				device.CmdBindDescriptorSets(cb, p.particles.Layout, 1, ps.Set)
			}
			device.CmdBindVertexBuffer(cb, ps.Buffer, 0)
			device.CmdDraw(cb, ps.Count, 1, 0, 0)
		}
	}

	device.CmdEndRenderPass(cb)
}

func (p *ScenePass) Destroy() {
	if p == nil {
		return
	}
	device := p.ctx.Device
	for _, pl := range p.pipelines() {
		pl.Destroy()
	}
	p.framebuffer.Destroy(device)
	p.Depth.Destroy(device)
	p.Color.Destroy(device)
	p.pass.Destroy(device)
}
