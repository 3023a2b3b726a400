package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

var formats = map[gpu.Format]core1_0.Format{
	gpu.FormatR8G8B8A8Unorm:     core1_0.FormatR8G8B8A8UnsignedNormalized,
	gpu.FormatB8G8R8A8Unorm:     core1_0.FormatB8G8R8A8UnsignedNormalized,
	gpu.FormatB8G8R8A8SRGB:      core1_0.FormatB8G8R8A8SRGB,
	gpu.FormatR16G16B16A16Float: core1_0.FormatR16G16B16A16SignedFloat,
	gpu.FormatR32G32B32A32Float: core1_0.FormatR32G32B32A32SignedFloat,
	gpu.FormatR32G32Float:       core1_0.FormatR32G32SignedFloat,
	gpu.FormatR32G32B32Float:    core1_0.FormatR32G32B32SignedFloat,
	gpu.FormatR32Float:          core1_0.FormatR32SignedFloat,
	gpu.FormatD32Float:          core1_0.FormatD32SignedFloat,
	gpu.FormatD24UnormS8Uint:    core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

func vkFormat(f gpu.Format) core1_0.Format {
	return formats[f]
}

func gpuFormat(f core1_0.Format) (gpu.Format, error) {
	for k, v := range formats {
		if v == f {
			return k, nil
		}
	}
	return gpu.FormatUndefined, errors.Errorf("unsupported format %s", f)
}

func vkLayout(l gpu.ImageLayout) core1_0.ImageLayout {
	switch l {
	case gpu.LayoutGeneral:
		return core1_0.ImageLayoutGeneral
	case gpu.LayoutColorAttachment:
		return core1_0.ImageLayoutColorAttachmentOptimal
	case gpu.LayoutDepthAttachment:
		return core1_0.ImageLayoutDepthStencilAttachmentOptimal
	case gpu.LayoutDepthReadOnly:
		return core1_0.ImageLayoutDepthStencilReadOnlyOptimal
	case gpu.LayoutShaderReadOnly:
		return core1_0.ImageLayoutShaderReadOnlyOptimal
	case gpu.LayoutTransferSrc:
		return core1_0.ImageLayoutTransferSrcOptimal
	case gpu.LayoutTransferDst:
		return core1_0.ImageLayoutTransferDstOptimal
	case gpu.LayoutPresentSrc:
		return khr_swapchain.ImageLayoutPresentSrc
	}
	return core1_0.ImageLayoutUndefined
}

func vkLoadOp(op gpu.LoadOp) core1_0.AttachmentLoadOp {
	switch op {
	case gpu.LoadOpClear:
		return core1_0.AttachmentLoadOpClear
	case gpu.LoadOpLoad:
		return core1_0.AttachmentLoadOpLoad
	}
	return core1_0.AttachmentLoadOpDontCare
}

func vkStoreOp(op gpu.StoreOp) core1_0.AttachmentStoreOp {
	if op == gpu.StoreOpStore {
		return core1_0.AttachmentStoreOpStore
	}
	return core1_0.AttachmentStoreOpDontCare
}

func vkAspect(a gpu.ImageAspect) core1_0.ImageAspectFlags {
	var flags core1_0.ImageAspectFlags
	if a&gpu.AspectColor != 0 {
		flags |= core1_0.ImageAspectColor
	}
	if a&gpu.AspectDepth != 0 {
		flags |= core1_0.ImageAspectDepth
	}
	return flags
}

func vkImageUsage(u gpu.ImageUsage) core1_0.ImageUsageFlags {
	var flags core1_0.ImageUsageFlags
	if u&gpu.UsageColorAttachment != 0 {
		flags |= core1_0.ImageUsageColorAttachment
	}
	if u&gpu.UsageDepthAttachment != 0 {
		flags |= core1_0.ImageUsageDepthStencilAttachment
	}
	if u&gpu.UsageSampled != 0 {
		flags |= core1_0.ImageUsageSampled
	}
	if u&gpu.UsageTransferSrc != 0 {
		flags |= core1_0.ImageUsageTransferSrc
	}
	if u&gpu.UsageTransferDst != 0 {
		flags |= core1_0.ImageUsageTransferDst
	}
	return flags
}

func vkBufferUsage(u gpu.BufferUsage) core1_0.BufferUsageFlags {
	var flags core1_0.BufferUsageFlags
	if u&gpu.BufferUsageVertex != 0 {
		flags |= core1_0.BufferUsageVertexBuffer
	}
	if u&gpu.BufferUsageIndex != 0 {
		flags |= core1_0.BufferUsageIndexBuffer
	}
	if u&gpu.BufferUsageUniform != 0 {
		flags |= core1_0.BufferUsageUniformBuffer
	}
	if u&gpu.BufferUsageStorage != 0 {
		flags |= core1_0.BufferUsageStorageBuffer
	}
	return flags
}

func vkViewType(t gpu.ViewType) core1_0.ImageViewType {
	switch t {
	case gpu.ViewType2DArray:
		return core1_0.ImageViewType2DArray
	case gpu.ViewTypeCube:
		return core1_0.ImageViewTypeCube
	}
	return core1_0.ImageViewType2D
}

func vkShaderStages(s gpu.ShaderStage) core1_0.ShaderStageFlags {
	var flags core1_0.ShaderStageFlags
	if s&gpu.StageVertex != 0 {
		flags |= core1_0.StageVertex
	}
	if s&gpu.StageGeometry != 0 {
		flags |= core1_0.StageGeometry
	}
	if s&gpu.StageFragment != 0 {
		flags |= core1_0.StageFragment
	}
	return flags
}

func vkPipelineStages(s gpu.PipelineStage) core1_0.PipelineStageFlags {
	var flags core1_0.PipelineStageFlags
	for bit, stage := range map[gpu.PipelineStage]core1_0.PipelineStageFlags{
		gpu.PipelineStageTopOfPipe:             core1_0.PipelineStageTopOfPipe,
		gpu.PipelineStageVertexShader:          core1_0.PipelineStageVertexShader,
		gpu.PipelineStageFragmentShader:        core1_0.PipelineStageFragmentShader,
		gpu.PipelineStageEarlyFragmentTests:    core1_0.PipelineStageEarlyFragmentTests,
		gpu.PipelineStageLateFragmentTests:     core1_0.PipelineStageLateFragmentTests,
		gpu.PipelineStageColorAttachmentOutput: core1_0.PipelineStageColorAttachmentOutput,
		gpu.PipelineStageBottomOfPipe:          core1_0.PipelineStageBottomOfPipe,
	} {
		if s&bit != 0 {
			flags |= stage
		}
	}
	return flags
}

func vkAccess(a gpu.Access) core1_0.AccessFlags {
	var flags core1_0.AccessFlags
	for bit, access := range map[gpu.Access]core1_0.AccessFlags{
		gpu.AccessShaderRead:           core1_0.AccessShaderRead,
		gpu.AccessColorAttachmentRead:  core1_0.AccessColorAttachmentRead,
		gpu.AccessColorAttachmentWrite: core1_0.AccessColorAttachmentWrite,
		gpu.AccessDepthAttachmentRead:  core1_0.AccessDepthStencilAttachmentRead,
		gpu.AccessDepthAttachmentWrite: core1_0.AccessDepthStencilAttachmentWrite,
		gpu.AccessMemoryRead:           core1_0.AccessMemoryRead,
	} {
		if a&bit != 0 {
			flags |= access
		}
	}
	return flags
}

func vkSubpass(index int) int {
	if index == gpu.SubpassExternal {
		return core1_0.SubpassExternal
	}
	return index
}

func vkDescriptorType(t gpu.DescriptorType) core1_0.DescriptorType {
	switch t {
	case gpu.DescriptorCombinedImageSampler:
		return core1_0.DescriptorTypeCombinedImageSampler
	case gpu.DescriptorStorageBuffer:
		return core1_0.DescriptorTypeStorageBuffer
	}
	return core1_0.DescriptorTypeUniformBuffer
}

func vkTopology(t gpu.Topology) core1_0.PrimitiveTopology {
	switch t {
	case gpu.TopologyPointList:
		return core1_0.PrimitiveTopologyPointList
	case gpu.TopologyLineList:
		return core1_0.PrimitiveTopologyLineList
	}
	return core1_0.PrimitiveTopologyTriangleList
}

func vkCullMode(c gpu.CullMode) core1_0.CullModeFlags {
	switch c {
	case gpu.CullNone:
		return core1_0.CullModeNone
	case gpu.CullFront:
		return core1_0.CullModeFront
	}
	return core1_0.CullModeBack
}

func vkCompareOp(c gpu.CompareOp) core1_0.CompareOp {
	switch c {
	case gpu.CompareLessOrEqual:
		return core1_0.CompareOpLessOrEqual
	case gpu.CompareAlways:
		return core1_0.CompareOpAlways
	}
	return core1_0.CompareOpLess
}

func vkFilter(f gpu.Filter) core1_0.Filter {
	if f == gpu.FilterNearest {
		return core1_0.FilterNearest
	}
	return core1_0.FilterLinear
}

func vkAddressMode(m gpu.AddressMode) core1_0.SamplerAddressMode {
	switch m {
	case gpu.AddressRepeat:
		return core1_0.SamplerAddressModeRepeat
	case gpu.AddressClampToBorder:
		return core1_0.SamplerAddressModeClampToBorder
	}
	return core1_0.SamplerAddressModeClampToEdge
}

func vkIndexType(t gpu.IndexType) core1_0.IndexType {
	if t == gpu.IndexUint16 {
		return core1_0.IndexTypeUInt16
	}
	return core1_0.IndexTypeUInt32
}

func vkPresentMode(m gpu.PresentMode) khr_surface.PresentMode {
	switch m {
	case gpu.PresentMailbox:
		return khr_surface.PresentModeMailbox
	case gpu.PresentImmediate:
		return khr_surface.PresentModeImmediate
	}
	return khr_surface.PresentModeFIFO
}

func vkExtent(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func vkRect(r gpu.Rect2D) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: r.X, Y: r.Y},
		Extent: vkExtent(r.Extent),
	}
}

func vkViewport(v gpu.Viewport) core1_0.Viewport {
	return core1_0.Viewport{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}
}
