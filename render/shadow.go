package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// DirectionalShadowPass renders shadow casters into a square depth map
// from the directional light.
type DirectionalShadowPass struct {
	ctx         *RenderContext
	pass        *RenderPass
	pipeline    *Pipeline
	Target      *RenderTarget
	framebuffer *Framebuffer
}

func newDirectionalShadowPass(ctx *RenderContext, frameLayout gpu.DescriptorSetLayout) (*DirectionalShadowPass, error) {
	size := ctx.Config.ShadowMapSize
	p := &DirectionalShadowPass{ctx: ctx}

	var err error
	if p.pass, err = NewRenderPass(ctx, DepthPassConfig("shadow", ctx.Config.DepthFormat)); err != nil {
		return nil, err
	}
	p.Target, err = NewRenderTarget(ctx, TargetDesc{
		Name:    "shadow-map",
		Extent:  gpu.Extent2D{Width: size, Height: size},
		Format:  ctx.Config.DepthFormat,
		Sampled: true,
	})
	if err != nil {
		p.Destroy()
		return nil, err
	}
	if p.framebuffer, err = NewFramebuffer(ctx, p.pass, p.Target); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.pipeline, err = NewPipeline(ctx, ShadowPipelineConfig(p.pass, ctx.Config.Shaders, frameLayout)); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// Record draws every shadow caster with its model transform pushed.
func (p *DirectionalShadowPass) Record(cb gpu.CommandBuffer, frame *FrameData, frameSet gpu.DescriptorSet) {
	device := p.ctx.Device
	p.framebuffer.Begin(device, cb, [4]float32{})
	p.pipeline.Bind(cb, p.Target.Extent)
	device.CmdBindDescriptorSets(cb, p.pipeline.Layout, 0, frameSet)
	frame.shadowCasters(func(item *DrawItem) {
		device.CmdPushConstants(cb, p.pipeline.Layout, gpu.StageVertex, 0, pushBytes(item.Model))
		drawItem(device, cb, item)
	})
	device.CmdEndRenderPass(cb)
}

func (p *DirectionalShadowPass) Destroy() {
	if p == nil {
		return
	}
	device := p.ctx.Device
	p.pipeline.Destroy()
	p.framebuffer.Destroy(device)
	p.Target.Destroy(device)
	p.pass.Destroy(device)
}

// PointShadowPass renders casters into one cube depth map per point light.
// All six faces are attached as layers of one framebuffer; the geometry
// stage emits each primitive into the face selected by the face push
// constant.
type PointShadowPass struct {
	ctx          *RenderContext
	pass         *RenderPass
	pipeline     *Pipeline
	Targets      []*RenderTarget
	framebuffers []*Framebuffer
}

func newPointShadowPass(ctx *RenderContext, frameLayout gpu.DescriptorSetLayout) (*PointShadowPass, error) {
	size := ctx.Config.PointShadowMapSize
	p := &PointShadowPass{ctx: ctx}

	var err error
	if p.pass, err = NewRenderPass(ctx, DepthPassConfig("point-shadow", ctx.Config.DepthFormat)); err != nil {
		return nil, err
	}
	for i := 0; i < ctx.Config.PointLights; i++ {
		target, err := NewRenderTarget(ctx, TargetDesc{
			Name:    fmt.Sprintf("point-shadow-%d", i),
			Extent:  gpu.Extent2D{Width: size, Height: size},
			Format:  ctx.Config.DepthFormat,
			Sampled: true,
			Cube:    true,
		})
		if err != nil {
			p.Destroy()
			return nil, err
		}
		p.Targets = append(p.Targets, target)

		fb, err := NewFramebuffer(ctx, p.pass, target)
		if err != nil {
			p.Destroy()
			return nil, err
		}
		p.framebuffers = append(p.framebuffers, fb)
	}
	if p.pipeline, err = NewPipeline(ctx, PointShadowPipelineConfig(p.pass, ctx.Config.Shaders, frameLayout)); err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "point shadows")
	}
	return p, nil
}

// Record renders one pass per configured light. Lights missing from the
// frame only clear their map.
func (p *PointShadowPass) Record(cb gpu.CommandBuffer, frame *FrameData, frameSet gpu.DescriptorSet) {
	device := p.ctx.Device
	stages := gpu.StageVertex | gpu.StageGeometry | gpu.StageFragment

	for light, fb := range p.framebuffers {
		fb.Begin(device, cb, [4]float32{})
		p.pipeline.Bind(cb, fb.Extent)
		device.CmdBindDescriptorSets(cb, p.pipeline.Layout, 0, frameSet)
		if light < len(frame.PointLights) {
			for face := 0; face < 6; face++ {
				push := facePush{Light: int32(light), Face: int32(face)}
				device.CmdPushConstants(cb, p.pipeline.Layout, stages, modelPushSize, pushBytes(push))
				frame.shadowCasters(func(item *DrawItem) {
					device.CmdPushConstants(cb, p.pipeline.Layout, stages, 0, pushBytes(item.Model))
					drawItem(device, cb, item)
				})
			}
		}
		device.CmdEndRenderPass(cb)
	}
}

func (p *PointShadowPass) Destroy() {
	if p == nil {
		return
	}
	device := p.ctx.Device
	p.pipeline.Destroy()
	for _, fb := range p.framebuffers {
		fb.Destroy(device)
	}
	for _, t := range p.Targets {
		t.Destroy(device)
	}
	p.pass.Destroy(device)
}
