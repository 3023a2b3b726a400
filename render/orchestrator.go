package render

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// PassOrchestrator records the passes of one frame in their fixed order:
// directional shadow, point shadows, HDR scene, bloom, depth of field and
// composite. It owns every pass and the descriptors they share, and
// registers the size-dependent ones with the swapchain manager in the
// order they were built.
type PassOrchestrator struct {
	ctx       *RenderContext
	swapchain *SwapchainManager

	uniforms     *FrameUniforms
	pool         gpu.DescriptorPool
	sampler      gpu.Sampler
	frameLayout  gpu.DescriptorSetLayout
	shadowLayout gpu.DescriptorSetLayout
	oneInput     gpu.DescriptorSetLayout
	twoInputs    gpu.DescriptorSetLayout
	frameSet     gpu.DescriptorSet
	shadowSet    gpu.DescriptorSet

	sun       *DirectionalShadowPass
	points    *PointShadowPass
	scene     *ScenePass
	bloom     *BloomPostProcessor
	dof       *DepthOfFieldPass
	composite *CompositePass

	registrations []uuid.UUID
}

// NewPassOrchestrator builds every pass enabled by the context's
// configuration. layouts are the content layer's descriptor set layouts.
func NewPassOrchestrator(ctx *RenderContext, swapchain *SwapchainManager, layouts SceneLayouts) (*PassOrchestrator, error) {
	o := &PassOrchestrator{ctx: ctx, swapchain: swapchain}
	if err := o.build(layouts); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

func (o *PassOrchestrator) build(layouts SceneLayouts) error {
	ctx := o.ctx
	cfg := ctx.Config
	device := ctx.Device
	extent := o.swapchain.Extent()
	var err error

	if o.uniforms, err = newFrameUniforms(device, cfg.PointLights); err != nil {
		return err
	}
	if err := o.createDescriptors(); err != nil {
		return err
	}

	if cfg.DirectionalShadow {
		if o.sun, err = newDirectionalShadowPass(ctx, o.frameLayout); err != nil {
			return err
		}
	}
	if cfg.PointLights > 0 {
		if o.points, err = newPointShadowPass(ctx, o.frameLayout); err != nil {
			return err
		}
	}
	if err := o.writeShadowSet(); err != nil {
		return err
	}

	if o.scene, err = newScenePass(ctx, layouts, o.frameLayout, o.shadowLayout, extent); err != nil {
		return err
	}
	if o.bloom, err = NewBloomPostProcessor(ctx, cfg.bloomConfig(), extent); err != nil {
		return err
	}
	if err := o.bloom.ConnectImageResource(o.scene.Color); err != nil {
		return err
	}

	sets, err := device.AllocateDescriptorSets(o.pool, o.oneInput)
	if err != nil {
		return errors.Wrap(err, "allocate composite descriptor set")
	}
	compositeSet := sets[0]

	if cfg.DepthOfField {
		sets, err := device.AllocateDescriptorSets(o.pool, o.twoInputs)
		if err != nil {
			return errors.Wrap(err, "allocate depth of field descriptor set")
		}
		if o.dof, err = newDepthOfFieldPass(ctx, o.twoInputs, sets[0], o.sampler, extent); err != nil {
			return err
		}
		if err := o.dof.Connect(o.bloom.Output(), o.scene.Depth); err != nil {
			return err
		}
	}

	if o.composite, err = newCompositePass(ctx, o.swapchain, o.oneInput, compositeSet, o.sampler); err != nil {
		return err
	}
	if err := o.composite.Connect(o.finalColor()); err != nil {
		return err
	}

	o.register()
	return nil
}

func (o *PassOrchestrator) createDescriptors() error {
	device := o.ctx.Device
	cfg := o.ctx.Config
	var err error

	o.frameLayout, err = device.CreateDescriptorSetLayout([]gpu.DescriptorBinding{{
		Binding: 0,
		Type:    gpu.DescriptorUniformBuffer,
		Count:   1,
		Stages:  gpu.StageVertex | gpu.StageGeometry | gpu.StageFragment,
	}})
	if err != nil {
		return errors.Wrap(err, "create frame descriptor set layout")
	}
	if o.shadowLayout, err = device.CreateDescriptorSetLayout(o.shadowBindings()); err != nil {
		return errors.Wrap(err, "create shadow descriptor set layout")
	}
	if o.oneInput, err = device.CreateDescriptorSetLayout(samplerBindings(1)); err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}
	if o.twoInputs, err = device.CreateDescriptorSetLayout(samplerBindings(2)); err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}
	if o.sampler, err = newLinearSampler(device); err != nil {
		return err
	}

	budget := descriptorBudget{sets: 2, buffers: 1, samplers: len(o.shadowBindings())}
	budget.add(1, 1)
	if cfg.DepthOfField {
		budget.add(1, 2)
	}
	if o.pool, err = budget.pool(device); err != nil {
		return err
	}

	sets, err := device.AllocateDescriptorSets(o.pool, o.frameLayout, o.shadowLayout)
	if err != nil {
		return errors.Wrap(err, "allocate frame descriptor sets")
	}
	o.frameSet, o.shadowSet = sets[0], sets[1]

	err = device.UpdateDescriptorSets(gpu.DescriptorWrite{
		Set:     o.frameSet,
		Binding: 0,
		Type:    gpu.DescriptorUniformBuffer,
		Buffer:  o.uniforms.Buffer,
		Range:   frameBlockSize,
	})
	return errors.Wrap(err, "write frame descriptor set")
}

// shadowBindings numbers the directional map 0 and point light i as 1+i.
// Disabled maps have no binding.
func (o *PassOrchestrator) shadowBindings() []gpu.DescriptorBinding {
	cfg := o.ctx.Config
	var bindings []gpu.DescriptorBinding
	add := func(binding int) {
		bindings = append(bindings, gpu.DescriptorBinding{
			Binding: binding,
			Type:    gpu.DescriptorCombinedImageSampler,
			Count:   1,
			Stages:  gpu.StageFragment,
		})
	}
	if cfg.DirectionalShadow {
		add(0)
	}
	for i := 0; i < cfg.PointLights; i++ {
		add(1 + i)
	}
	return bindings
}

func (o *PassOrchestrator) writeShadowSet() error {
	var writes []gpu.DescriptorWrite
	add := func(binding int, t *RenderTarget) {
		writes = append(writes, gpu.DescriptorWrite{
			Set:       o.shadowSet,
			Binding:   binding,
			Type:      gpu.DescriptorCombinedImageSampler,
			ImageView: t.View,
			Sampler:   o.sampler,
			Layout:    sampledLayout(t),
		})
	}
	if o.sun != nil {
		add(0, o.sun.Target)
	}
	if o.points != nil {
		for i, t := range o.points.Targets {
			add(1+i, t)
		}
	}
	if len(writes) == 0 {
		return nil
	}
	return errors.Wrap(o.ctx.Device.UpdateDescriptorSets(writes...), "write shadow descriptor set")
}

// register adds the size-dependent passes to the resize list. Each one
// reconnects to the outputs of the passes registered before it.
func (o *PassOrchestrator) register() {
	sc := o.swapchain
	o.registrations = append(o.registrations, sc.Register("scene", o.scene))
	o.registrations = append(o.registrations, sc.Register("bloom", ResizeHook{
		OnRelease: o.bloom.Release,
		OnRecreate: func(extent gpu.Extent2D) error {
			if err := o.bloom.Recreate(extent); err != nil {
				return err
			}
			return o.bloom.ConnectImageResource(o.scene.Color)
		},
	}))
	if o.dof != nil {
		o.registrations = append(o.registrations, sc.Register("depth-of-field", ResizeHook{
			OnRelease: o.dof.Release,
			OnRecreate: func(extent gpu.Extent2D) error {
				if err := o.dof.Recreate(extent); err != nil {
					return err
				}
				return o.dof.Connect(o.bloom.Output(), o.scene.Depth)
			},
		}))
	}
	o.registrations = append(o.registrations, sc.Register("composite", ResizeHook{
		OnRelease: o.composite.Release,
		OnRecreate: func(extent gpu.Extent2D) error {
			if err := o.composite.Recreate(extent); err != nil {
				return err
			}
			return o.composite.Connect(o.finalColor())
		},
	}))
}

// finalColor is the image the composite pass samples.
func (o *PassOrchestrator) finalColor() *RenderTarget {
	if o.dof != nil {
		return o.dof.Target
	}
	return o.bloom.Output()
}

// SetOverlay installs the UI recorded at the end of the composite pass.
func (o *PassOrchestrator) SetOverlay(overlay Overlay) {
	o.composite.Overlay = overlay
}

// Bloom returns the bloom post-processor.
func (o *PassOrchestrator) Bloom() *BloomPostProcessor { return o.bloom }

// Scene returns the HDR scene pass.
func (o *PassOrchestrator) Scene() *ScenePass { return o.scene }

// Record writes the frame uniforms and records every pass into cb for the
// swapchain image imageIndex.
func (o *PassOrchestrator) Record(cb gpu.CommandBuffer, imageIndex int, frame *FrameData) error {
	device := o.ctx.Device

	if err := o.uniforms.Write(frame); err != nil {
		return err
	}
	if err := device.BeginCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	if o.sun != nil {
		o.sun.Record(cb, frame, o.frameSet)
	}
	if o.points != nil {
		o.points.Record(cb, frame, o.frameSet)
	}
	o.scene.Record(cb, frame, o.frameSet, o.shadowSet)
	if err := o.bloom.Apply(cb); err != nil {
		return err
	}
	if o.dof != nil {
		o.dof.Record(cb, &frame.Camera)
	}

	exposure := o.ctx.Config.Exposure
	if frame.Exposure > 0 {
		exposure = frame.Exposure
	}
	if err := o.composite.Record(cb, imageIndex, exposure); err != nil {
		return err
	}

	return errors.Wrap(device.EndCommandBuffer(cb), "end command buffer")
}

// Destroy unregisters from the swapchain manager and destroys every pass
// in reverse construction order. The device must be idle.
func (o *PassOrchestrator) Destroy() {
	if o == nil {
		return
	}
	device := o.ctx.Device
	for _, id := range o.registrations {
		o.swapchain.Unregister(id)
	}
	o.registrations = nil

	o.composite.Destroy()
	o.dof.Destroy()
	o.bloom.Destroy()
	o.scene.Destroy()
	o.points.Destroy()
	o.sun.Destroy()

	device.DestroyDescriptorPool(o.pool)
	device.DestroySampler(o.sampler)
	for _, layout := range []gpu.DescriptorSetLayout{o.twoInputs, o.oneInput, o.shadowLayout, o.frameLayout} {
		device.DestroyDescriptorSetLayout(layout)
	}
	o.uniforms.Destroy()
}
