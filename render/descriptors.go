package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// samplerBindings returns count combined image sampler bindings read by
// the fragment stage, numbered from 0.
func samplerBindings(count int) []gpu.DescriptorBinding {
	bindings := make([]gpu.DescriptorBinding, count)
	for i := range bindings {
		bindings[i] = gpu.DescriptorBinding{
			Binding: i,
			Type:    gpu.DescriptorCombinedImageSampler,
			Count:   1,
			Stages:  gpu.StageFragment,
		}
	}
	return bindings
}

func newLinearSampler(device gpu.Device) (gpu.Sampler, error) {
	sampler, err := device.CreateSampler(gpu.SamplerInfo{
		Filter:      gpu.FilterLinear,
		AddressMode: gpu.AddressClampToEdge,
	})
	return sampler, errors.Wrap(err, "create sampler")
}

// sampledLayout is the layout a target is read in once the pass writing
// it has ended.
func sampledLayout(t *RenderTarget) gpu.ImageLayout {
	if t.Aspect == gpu.AspectDepth {
		return gpu.LayoutDepthReadOnly
	}
	return gpu.LayoutShaderReadOnly
}

// writeSamplers points bindings 0..len(targets)-1 of set at the sampled
// views of targets.
func writeSamplers(device gpu.Device, set gpu.DescriptorSet, sampler gpu.Sampler, targets ...*RenderTarget) error {
	writes := make([]gpu.DescriptorWrite, len(targets))
	for i, t := range targets {
		if t == nil {
			return errors.Errorf("descriptor binding %d: no target", i)
		}
		writes[i] = gpu.DescriptorWrite{
			Set:       set,
			Binding:   i,
			Type:      gpu.DescriptorCombinedImageSampler,
			ImageView: t.View,
			Sampler:   sampler,
			Layout:    sampledLayout(t),
		}
	}
	return errors.Wrap(device.UpdateDescriptorSets(writes...), "update descriptor sets")
}

// descriptorBudget accumulates pool sizes for the sets a component
// allocates.
type descriptorBudget struct {
	sets     int
	samplers int
	buffers  int
}

func (b *descriptorBudget) add(sets, samplersPerSet int) {
	b.sets += sets
	b.samplers += sets * samplersPerSet
}

func (b descriptorBudget) pool(device gpu.Device) (gpu.DescriptorPool, error) {
	info := gpu.DescriptorPoolInfo{MaxSets: b.sets}
	if b.samplers > 0 {
		info.Sizes = append(info.Sizes, gpu.DescriptorPoolSize{Type: gpu.DescriptorCombinedImageSampler, Count: b.samplers})
	}
	if b.buffers > 0 {
		info.Sizes = append(info.Sizes, gpu.DescriptorPoolSize{Type: gpu.DescriptorUniformBuffer, Count: b.buffers})
	}
	pool, err := device.CreateDescriptorPool(info)
	return pool, errors.Wrap(err, "create descriptor pool")
}
