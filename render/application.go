package render

import "github.com/vkngwrapper/vulkangraphics/gpu"

// Application is the content layer driven by a FrameScheduler. The hooks
// are called from the rendering goroutine in this order:
//
//	OnVulkanInit   once, from Init, before any render graph object exists.
//	               The context's device is usable: the application creates
//	               its buffers and descriptor sets here and returns the
//	               layouts the scene pipelines must be built with.
//	OnStart        once, from Init, after the render graph was built.
//	OnUpdate       once per recorded frame, from RecordFrame, after the
//	               slot's fence was waited on. The application fills the
//	               FrameData; it must not record commands or wait on the
//	               device.
//	OnWindowResize after every completed resize protocol, with the new
//	               extent. The device is idle.
//	OnCleanup      once, from Cleanup, after the device went idle and
//	               before the render graph is destroyed. Objects created
//	               in OnVulkanInit are destroyed here.
//
// No hook may call BeginFrame, RecordFrame or EndFrame.
type Application interface {
	OnVulkanInit(ctx *RenderContext) (SceneLayouts, error)
	OnStart(scheduler *FrameScheduler) error
	OnUpdate(dt float64, frame *FrameData) error
	OnWindowResize(extent gpu.Extent2D)
	OnCleanup()
}

// Overlay records UI on top of the composited image, inside the present
// render pass. The present pipeline is bound when Record is called.
type Overlay interface {
	Record(device gpu.Device, cb gpu.CommandBuffer, extent gpu.Extent2D) error
}
