package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// Framebuffer binds concrete views to a render pass. It does not own the
// render pass or the views and must be destroyed before the targets it
// binds.
type Framebuffer struct {
	Handle gpu.Framebuffer
	Pass   *RenderPass
	Views  []gpu.ImageView
	Extent gpu.Extent2D
	Layers int
}

// NewFramebuffer binds the attachment views of targets, in order, to pass.
// The framebuffer extent is the extent of the first target.
func NewFramebuffer(ctx *RenderContext, pass *RenderPass, targets ...*RenderTarget) (*Framebuffer, error) {
	if len(targets) != len(pass.Attachments) {
		return nil, errors.Errorf("framebuffer for %s: %d targets for %d attachments", pass.Name, len(targets), len(pass.Attachments))
	}

	views := make([]gpu.ImageView, len(targets))
	layers := targets[0].Layers
	extent := targets[0].Extent
	for i, t := range targets {
		if t.Extent != extent {
			return nil, errors.Errorf("framebuffer for %s: target %s is %s, expected %s", pass.Name, t.Name, t.Extent, extent)
		}
		views[i] = t.AttachmentView
	}

	return newFramebuffer(ctx, pass, views, extent, layers)
}

func newFramebuffer(ctx *RenderContext, pass *RenderPass, views []gpu.ImageView, extent gpu.Extent2D, layers int) (*Framebuffer, error) {
	handle, err := ctx.Device.CreateFramebuffer(gpu.FramebufferInfo{
		RenderPass:  pass.Handle,
		Attachments: views,
		Extent:      extent,
		Layers:      layers,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create framebuffer for %s", pass.Name)
	}

	return &Framebuffer{
		Handle: handle,
		Pass:   pass,
		Views:  views,
		Extent: extent,
		Layers: layers,
	}, nil
}

func (f *Framebuffer) Destroy(device gpu.Device) {
	if f == nil {
		return
	}
	device.DestroyFramebuffer(f.Handle)
	f.Handle = 0
}

// Begin starts the framebuffer's render pass covering its whole extent.
func (f *Framebuffer) Begin(device gpu.Device, cb gpu.CommandBuffer, clear [4]float32) {
	device.CmdBeginRenderPass(cb, gpu.RenderPassBegin{
		RenderPass:  f.Pass.Handle,
		Framebuffer: f.Handle,
		Area:        gpu.Rect2D{Extent: f.Extent},
		ClearValues: f.Pass.ClearValues(clear),
	})
}
