package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// TargetDesc describes a render target to create.
type TargetDesc struct {
	Name   string
	Extent gpu.Extent2D
	Format gpu.Format
	// Sampled targets can be read by later passes.
	Sampled bool
	// Cube targets have 6 layers and a cube view.
	Cube bool
}

// RenderTarget is an owned image and view that passes render into or
// sample from.
type RenderTarget struct {
	Name  string
	Image gpu.Image
	// View is the sampled view. Cube targets sample through a cube view
	// and are attached through AttachmentView, a 6-layer 2D array view.
	View           gpu.ImageView
	AttachmentView gpu.ImageView
	Format         gpu.Format
	Extent         gpu.Extent2D
	MipLevels      int
	Layers         int
	Aspect         gpu.ImageAspect
	// Layout is the layout the image is left in by the pass that writes it.
	Layout gpu.ImageLayout
}

// NewRenderTarget creates the image and its view.
func NewRenderTarget(ctx *RenderContext, desc TargetDesc) (*RenderTarget, error) {
	if desc.Extent.IsZero() {
		return nil, errors.Errorf("render target %s: invalid extent %s", desc.Name, desc.Extent)
	}

	t := &RenderTarget{
		Name:      desc.Name,
		Format:    desc.Format,
		Extent:    desc.Extent,
		MipLevels: 1,
		Layers:    1,
		Layout:    gpu.LayoutUndefined,
	}

	usage := gpu.ImageUsage(0)
	if desc.Format.IsDepth() {
		t.Aspect = gpu.AspectDepth
		usage |= gpu.UsageDepthAttachment
	} else {
		t.Aspect = gpu.AspectColor
		usage |= gpu.UsageColorAttachment
	}
	if desc.Sampled {
		usage |= gpu.UsageSampled
	}

	viewType := gpu.ViewType2D
	if desc.Cube {
		t.Layers = 6
		viewType = gpu.ViewTypeCube
	}

	var err error
	t.Image, err = ctx.Device.CreateImage(gpu.ImageInfo{
		Extent:         desc.Extent,
		Format:         desc.Format,
		MipLevels:      t.MipLevels,
		ArrayLayers:    t.Layers,
		Usage:          usage,
		CubeCompatible: desc.Cube,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "render target %s: create image", desc.Name)
	}

	t.View, err = ctx.Device.CreateImageView(gpu.ImageViewInfo{
		Image:      t.Image,
		Format:     desc.Format,
		Aspect:     t.Aspect,
		ViewType:   viewType,
		MipLevels:  t.MipLevels,
		LayerCount: t.Layers,
	})
	if err != nil {
		ctx.Device.DestroyImage(t.Image)
		return nil, errors.Wrapf(err, "render target %s: create view", desc.Name)
	}

	t.AttachmentView = t.View
	if desc.Cube {
		t.AttachmentView, err = ctx.Device.CreateImageView(gpu.ImageViewInfo{
			Image:      t.Image,
			Format:     desc.Format,
			Aspect:     t.Aspect,
			ViewType:   gpu.ViewType2DArray,
			MipLevels:  t.MipLevels,
			LayerCount: t.Layers,
		})
		if err != nil {
			ctx.Device.DestroyImageView(t.View)
			ctx.Device.DestroyImage(t.Image)
			return nil, errors.Wrapf(err, "render target %s: create attachment view", desc.Name)
		}
	}

	return t, nil
}

// Destroy releases the view and image. It is safe to call on a nil target.
func (t *RenderTarget) Destroy(device gpu.Device) {
	if t == nil {
		return
	}
	if t.AttachmentView != t.View {
		device.DestroyImageView(t.AttachmentView)
	}
	device.DestroyImageView(t.View)
	device.DestroyImage(t.Image)
	t.AttachmentView = 0
	t.View = 0
	t.Image = 0
}
