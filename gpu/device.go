package gpu

import "github.com/cockroachdb/errors"

// ErrOutOfDate is returned by AcquireNextImage and Present when the
// surface changed and the swapchain can no longer be used.
var ErrOutOfDate = errors.New("gpu: swapchain out of date")

// ErrDeviceLost is returned once the device can no longer execute work.
var ErrDeviceLost = errors.New("gpu: device lost")

// Device is the set of operations the render graph needs from the graphics
// API. Calls mirror the Vulkan entry points they wrap: create/destroy pairs,
// Cmd* recording calls that take the target command buffer first, and queue
// operations on a single graphics queue that can also present.
//
// Destroy calls on null handles are no-ops.
type Device interface {
	CreateImage(info ImageInfo) (Image, error)
	DestroyImage(image Image)
	CreateImageView(info ImageViewInfo) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateBuffer(info BufferInfo) (Buffer, error)
	DestroyBuffer(buffer Buffer)
	// WriteBuffer copies data into a host-visible buffer through its
	// persistent mapping.
	WriteBuffer(buffer Buffer, offset int, data []byte) error

	CreateRenderPass(info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)
	CreateFramebuffer(info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)
	CreatePipelineLayout(info PipelineLayoutInfo) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipeline(info GraphicsPipelineInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreateDescriptorPool(info DescriptorPoolInfo) (DescriptorPool, error)
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSets(pool DescriptorPool, layouts ...DescriptorSetLayout) ([]DescriptorSet, error)
	UpdateDescriptorSets(writes ...DescriptorWrite) error

	CreateSampler(info SamplerInfo) (Sampler, error)
	DestroySampler(sampler Sampler)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers ...CommandBuffer)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	// WaitForFence blocks without timeout until the fence is signaled.
	WaitForFence(fence Fence) error
	ResetFence(fence Fence) error

	// Commands. BeginCommandBuffer implicitly resets the buffer.
	BeginCommandBuffer(cb CommandBuffer) error
	EndCommandBuffer(cb CommandBuffer) error
	CmdBeginRenderPass(cb CommandBuffer, begin RenderPassBegin)
	CmdEndRenderPass(cb CommandBuffer)
	CmdBindPipeline(cb CommandBuffer, pipeline Pipeline)
	CmdSetViewport(cb CommandBuffer, viewport Viewport)
	CmdSetScissor(cb CommandBuffer, scissor Rect2D)
	CmdBindDescriptorSets(cb CommandBuffer, layout PipelineLayout, firstSet int, sets ...DescriptorSet)
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stages ShaderStage, offset int, data []byte)
	CmdBindVertexBuffer(cb CommandBuffer, buffer Buffer, offset int)
	CmdBindIndexBuffer(cb CommandBuffer, buffer Buffer, offset int, indexType IndexType)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)

	Submit(info SubmitInfo) error
	WaitIdle() error

	// Presentation. CreateSwapchain clamps the requested extent to the
	// surface capabilities; the returned extent is authoritative.
	CreateSwapchain(info SwapchainInfo) (SwapchainImages, error)
	DestroySwapchain(swapchain Swapchain)
	// AcquireNextImage signals the semaphore once the image is available.
	// ErrOutOfDate is returned when the swapchain must be recreated;
	// suboptimal is true when the image was acquired but the swapchain no
	// longer matches the surface.
	AcquireNextImage(swapchain Swapchain, signal Semaphore) (index int, suboptimal bool, err error)
	Present(swapchain Swapchain, imageIndex int, wait Semaphore) (suboptimal bool, err error)
}
