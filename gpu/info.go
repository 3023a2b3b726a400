package gpu

// ImageInfo describes an image and its backing device-local memory.
type ImageInfo struct {
	Extent      Extent2D
	Format      Format
	MipLevels   int
	ArrayLayers int
	Usage       ImageUsage
	// CubeCompatible allows 6-layer images to be viewed as cube maps.
	CubeCompatible bool
}

type ImageViewInfo struct {
	Image          Image
	Format         Format
	Aspect         ImageAspect
	ViewType       ViewType
	BaseMipLevel   int
	MipLevels      int
	BaseArrayLayer int
	LayerCount     int
}

type AttachmentDescription struct {
	Format        Format
	LoadOp        LoadOp
	StoreOp       StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type SubpassDependency struct {
	SrcSubpass int
	DstSubpass int
	SrcStage   PipelineStage
	DstStage   PipelineStage
	SrcAccess  Access
	DstAccess  Access
}

// RenderPassInfo describes a single-subpass render pass. ColorAttachments
// index into Attachments; DepthAttachment is NoAttachment when absent.
type RenderPassInfo struct {
	Attachments      []AttachmentDescription
	ColorAttachments []int
	DepthAttachment  int
	Dependencies     []SubpassDependency
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
	Layers      int
}

type PushConstantRange struct {
	Stages ShaderStage
	Offset int
	Size   int
}

type PipelineLayoutInfo struct {
	SetLayouts    []DescriptorSetLayout
	PushConstants []PushConstantRange
}

type VertexAttribute struct {
	Location int
	Format   Format
	Offset   int
}

// VertexLayout describes a single interleaved vertex binding. A zero Stride
// means the pipeline has no vertex input.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

type ShaderStageInfo struct {
	Stage  ShaderStage
	Module ShaderModule
	Entry  string
}

type DepthBias struct {
	Constant float32
	Slope    float32
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect2D struct {
	X, Y   int
	Extent Extent2D
}

// GraphicsPipelineInfo is the backend form of a render.PipelineConfig.
type GraphicsPipelineInfo struct {
	Stages           []ShaderStageInfo
	Vertex           VertexLayout
	Topology         Topology
	CullMode         CullMode
	FrontFaceCW      bool
	DepthTest        bool
	DepthWrite       bool
	DepthCompare     CompareOp
	DepthBias        *DepthBias
	Blend            BlendMode
	ColorAttachments int
	// Viewport is baked into the pipeline when DynamicViewport is false.
	DynamicViewport bool
	Viewport        Viewport
	Layout          PipelineLayout
	RenderPass      RenderPass
}

type DescriptorBinding struct {
	Binding int
	Type    DescriptorType
	Count   int
	Stages  ShaderStage
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count int
}

type DescriptorPoolInfo struct {
	MaxSets int
	Sizes   []DescriptorPoolSize
}

// DescriptorWrite updates one binding of a set. Exactly one of the image
// or buffer fields is used depending on Type.
type DescriptorWrite struct {
	Set     DescriptorSet
	Binding int
	Type    DescriptorType

	ImageView ImageView
	Sampler   Sampler
	Layout    ImageLayout

	Buffer Buffer
	Offset int
	Range  int
}

type SamplerInfo struct {
	Filter      Filter
	AddressMode AddressMode
	MaxLod      float32
}

type BufferInfo struct {
	Size  int
	Usage BufferUsage
	// HostVisible buffers are persistently mapped and written with
	// Device.WriteBuffer.
	HostVisible bool
}

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	IsDepth bool
}

type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect2D
	ClearValues []ClearValue
}

// SubmitInfo submits a single command buffer to the graphics queue.
type SubmitInfo struct {
	CommandBuffer CommandBuffer
	Wait          Semaphore
	WaitStage     PipelineStage
	Signal        Semaphore
	Fence         Fence
}

type SwapchainInfo struct {
	Extent Extent2D
	// MinImageCount of zero requests one image more than the surface
	// minimum.
	MinImageCount int
	PresentMode   PresentMode
	Old           Swapchain
}

// SwapchainImages is the result of creating a swapchain.
type SwapchainImages struct {
	Swapchain Swapchain
	Images    []Image
	Format    Format
	Extent    Extent2D
}
