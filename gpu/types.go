// Package gpu declares the handle types, create-info structs and the Device
// interface the render graph records through. The Vulkan implementation
// lives in gpu/vkng; gpu/gputest provides an in-memory fake.
package gpu

import "fmt"

// Handles are opaque, backend-assigned identifiers. The zero value is the
// null handle.
type (
	Image               uint64
	ImageView           uint64
	Buffer              uint64
	RenderPass          uint64
	Framebuffer         uint64
	ShaderModule        uint64
	PipelineLayout      uint64
	Pipeline            uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	Sampler             uint64
	CommandBuffer       uint64
	Semaphore           uint64
	Fence               uint64
	Swapchain           uint64
)

// Extent2D is a width/height pair in pixels.
type Extent2D struct {
	Width  int
	Height int
}

// IsZero reports whether either dimension is zero, which is the case for
// minimized windows.
func (e Extent2D) IsZero() bool {
	return e.Width <= 0 || e.Height <= 0
}

// Half returns the extent at half linear resolution, floor-divided. Each
// dimension is clamped to 1.
func (e Extent2D) Half() Extent2D {
	return Extent2D{Width: max(e.Width/2, 1), Height: max(e.Height/2, 1)}
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

type Format int

const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8SRGB
	FormatR16G16B16A16Float
	FormatR32G32B32A32Float
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32Float
	FormatD32Float
	FormatD24UnormS8Uint
)

var formatNames = map[Format]string{
	FormatUndefined:         "undefined",
	FormatR8G8B8A8Unorm:     "R8G8B8A8_UNORM",
	FormatB8G8R8A8Unorm:     "B8G8R8A8_UNORM",
	FormatB8G8R8A8SRGB:      "B8G8R8A8_SRGB",
	FormatR16G16B16A16Float: "R16G16B16A16_SFLOAT",
	FormatR32G32B32A32Float: "R32G32B32A32_SFLOAT",
	FormatR32G32Float:       "R32G32_SFLOAT",
	FormatR32G32B32Float:    "R32G32B32_SFLOAT",
	FormatR32Float:          "R32_SFLOAT",
	FormatD32Float:          "D32_SFLOAT",
	FormatD24UnormS8Uint:    "D24_UNORM_S8_UINT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsDepth reports whether the format has a depth aspect.
func (f Format) IsDepth() bool {
	return f == FormatD32Float || f == FormatD24UnormS8Uint
}

type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthAttachment
	LayoutDepthReadOnly
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresentSrc
)

var layoutNames = [...]string{
	"undefined", "general", "color-attachment", "depth-attachment",
	"depth-read-only", "shader-read-only", "transfer-src", "transfer-dst",
	"present-src",
}

func (l ImageLayout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("ImageLayout(%d)", int(l))
}

type LoadOp int

const (
	LoadOpDontCare LoadOp = iota
	LoadOpClear
	LoadOpLoad
)

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

type ImageUsage uint32

const (
	UsageColorAttachment ImageUsage = 1 << iota
	UsageDepthAttachment
	UsageSampled
	UsageTransferSrc
	UsageTransferDst
)

type ImageAspect uint32

const (
	AspectColor ImageAspect = 1 << iota
	AspectDepth
)

type ViewType int

const (
	ViewType2D ViewType = iota
	ViewType2DArray
	ViewTypeCube
)

type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageGeometry
	StageFragment
)

type PipelineStage uint32

const (
	PipelineStageTopOfPipe PipelineStage = 1 << iota
	PipelineStageVertexShader
	PipelineStageFragmentShader
	PipelineStageEarlyFragmentTests
	PipelineStageLateFragmentTests
	PipelineStageColorAttachmentOutput
	PipelineStageBottomOfPipe
)

type Access uint32

const (
	AccessShaderRead Access = 1 << iota
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthAttachmentRead
	AccessDepthAttachmentWrite
	AccessMemoryRead
)

type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
)

type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyPointList
	TopologyLineList
)

type CullMode int

const (
	CullBack CullMode = iota
	CullNone
	CullFront
)

type CompareOp int

const (
	CompareLess CompareOp = iota
	CompareLessOrEqual
	CompareAlways
)

type BlendMode int

const (
	BlendNone BlendMode = iota
	BlendAlpha
	BlendAdditive
)

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type AddressMode int

const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
	AddressClampToBorder
)

type DescriptorType int

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorCombinedImageSampler
	DescriptorStorageBuffer
)

type IndexType int

const (
	IndexUint32 IndexType = iota
	IndexUint16
)

type PresentMode int

const (
	PresentFIFO PresentMode = iota
	PresentMailbox
	PresentImmediate
)

// SubpassExternal refers to commands outside the render pass in a
// SubpassDependency.
const SubpassExternal = -1

// NoAttachment marks an unused depth attachment slot.
const NoAttachment = -1
