package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// RenderPass is an immutable render pass object together with the
// description it was created from.
type RenderPass struct {
	Name         string
	Handle       gpu.RenderPass
	Attachments  []gpu.AttachmentDescription
	Dependencies []gpu.SubpassDependency
	HasDepth     bool
	// ColorCount is the number of color attachments.
	ColorCount int
}

// RenderPassConfig is the explicit description a RenderPass is built from.
// Use the kind-specific constructors below rather than filling it by hand.
type RenderPassConfig struct {
	Name string
	// Color attachment formats, in attachment order.
	ColorFormats []gpu.Format
	// ColorLoad applies to every color attachment.
	ColorLoad gpu.LoadOp
	// FinalColorLayout is the layout color attachments are left in.
	FinalColorLayout gpu.ImageLayout
	// DepthFormat is gpu.FormatUndefined for passes without depth.
	DepthFormat gpu.Format
	// DepthStore keeps depth contents after the pass (shadow maps, depth
	// sampled by depth of field).
	DepthStore       bool
	FinalDepthLayout gpu.ImageLayout
	Dependencies     []gpu.SubpassDependency
}

// ShaderReadDependencies is the dependency pair for passes whose outputs are
// sampled by later fragment shaders: the pass waits for earlier reads of its
// attachments and makes its writes visible to later reads.
func ShaderReadDependencies(depth bool) []gpu.SubpassDependency {
	stage := gpu.PipelineStageColorAttachmentOutput
	write := gpu.AccessColorAttachmentWrite
	if depth {
		stage = gpu.PipelineStageEarlyFragmentTests | gpu.PipelineStageLateFragmentTests
		write = gpu.AccessDepthAttachmentWrite
	}
	return []gpu.SubpassDependency{
		{
			SrcSubpass: gpu.SubpassExternal,
			DstSubpass: 0,
			SrcStage:   gpu.PipelineStageFragmentShader,
			DstStage:   stage,
			SrcAccess:  gpu.AccessShaderRead,
			DstAccess:  write,
		},
		{
			SrcSubpass: 0,
			DstSubpass: gpu.SubpassExternal,
			SrcStage:   stage,
			DstStage:   gpu.PipelineStageFragmentShader,
			SrcAccess:  write,
			DstAccess:  gpu.AccessShaderRead,
		},
	}
}

// DepthPassConfig describes a depth-only shadow pass. Depth is cleared,
// stored, and left shader-readable.
func DepthPassConfig(name string, depthFormat gpu.Format) RenderPassConfig {
	return RenderPassConfig{
		Name:             name,
		DepthFormat:      depthFormat,
		DepthStore:       true,
		FinalDepthLayout: gpu.LayoutDepthReadOnly,
		Dependencies:     ShaderReadDependencies(true),
	}
}

// OffscreenPassConfig describes the HDR scene pass: one cleared color
// attachment left shader-readable and a cleared depth attachment. Depth is
// stored, left readable and covered by the depth dependency pair when
// sampleDepth is set.
func OffscreenPassConfig(name string, colorFormat, depthFormat gpu.Format, sampleDepth bool) RenderPassConfig {
	cfg := RenderPassConfig{
		Name:             name,
		ColorFormats:     []gpu.Format{colorFormat},
		ColorLoad:        gpu.LoadOpClear,
		FinalColorLayout: gpu.LayoutShaderReadOnly,
		DepthFormat:      depthFormat,
		FinalDepthLayout: gpu.LayoutDepthAttachment,
		Dependencies:     ShaderReadDependencies(false),
	}
	if sampleDepth {
		cfg.DepthStore = true
		cfg.FinalDepthLayout = gpu.LayoutDepthReadOnly
		cfg.Dependencies = append(cfg.Dependencies, ShaderReadDependencies(true)...)
	}
	return cfg
}

// PostProcessPassConfig describes a full-screen pass that overwrites every
// pixel of a single color attachment, so the previous contents are not
// loaded.
func PostProcessPassConfig(name string, colorFormat gpu.Format) RenderPassConfig {
	return RenderPassConfig{
		Name:             name,
		ColorFormats:     []gpu.Format{colorFormat},
		ColorLoad:        gpu.LoadOpDontCare,
		FinalColorLayout: gpu.LayoutShaderReadOnly,
		Dependencies:     ShaderReadDependencies(false),
	}
}

// PresentPassConfig describes the composite pass on a swapchain image. The
// dependency makes color output wait for the acquire semaphore wait stage.
func PresentPassConfig(swapchainFormat gpu.Format) RenderPassConfig {
	return RenderPassConfig{
		Name:             "present",
		ColorFormats:     []gpu.Format{swapchainFormat},
		ColorLoad:        gpu.LoadOpClear,
		FinalColorLayout: gpu.LayoutPresentSrc,
		Dependencies: []gpu.SubpassDependency{
			{
				SrcSubpass: gpu.SubpassExternal,
				DstSubpass: 0,
				SrcStage:   gpu.PipelineStageColorAttachmentOutput,
				DstStage:   gpu.PipelineStageColorAttachmentOutput,
				DstAccess:  gpu.AccessColorAttachmentWrite,
			},
		},
	}
}

func (c RenderPassConfig) info() (gpu.RenderPassInfo, error) {
	info := gpu.RenderPassInfo{
		DepthAttachment: gpu.NoAttachment,
		Dependencies:    c.Dependencies,
	}

	for _, format := range c.ColorFormats {
		if format == gpu.FormatUndefined || format.IsDepth() {
			return info, errors.Errorf("render pass %s: invalid color format %s", c.Name, format)
		}
		info.ColorAttachments = append(info.ColorAttachments, len(info.Attachments))
		info.Attachments = append(info.Attachments, gpu.AttachmentDescription{
			Format:        format,
			LoadOp:        c.ColorLoad,
			StoreOp:       gpu.StoreOpStore,
			InitialLayout: gpu.LayoutUndefined,
			FinalLayout:   c.FinalColorLayout,
		})
	}

	if c.DepthFormat != gpu.FormatUndefined {
		if !c.DepthFormat.IsDepth() {
			return info, errors.Errorf("render pass %s: invalid depth format %s", c.Name, c.DepthFormat)
		}
		store := gpu.StoreOpDontCare
		if c.DepthStore {
			store = gpu.StoreOpStore
		}
		info.DepthAttachment = len(info.Attachments)
		info.Attachments = append(info.Attachments, gpu.AttachmentDescription{
			Format:        c.DepthFormat,
			LoadOp:        gpu.LoadOpClear,
			StoreOp:       store,
			InitialLayout: gpu.LayoutUndefined,
			FinalLayout:   c.FinalDepthLayout,
		})
	}

	if len(info.Attachments) == 0 {
		return info, errors.Errorf("render pass %s: no attachments", c.Name)
	}
	return info, nil
}

// NewRenderPass creates a render pass from its configuration.
func NewRenderPass(ctx *RenderContext, config RenderPassConfig) (*RenderPass, error) {
	info, err := config.info()
	if err != nil {
		return nil, err
	}

	handle, err := ctx.Device.CreateRenderPass(info)
	if err != nil {
		return nil, errors.Wrapf(err, "create render pass %s", config.Name)
	}

	return &RenderPass{
		Name:         config.Name,
		Handle:       handle,
		Attachments:  info.Attachments,
		Dependencies: info.Dependencies,
		HasDepth:     info.DepthAttachment != gpu.NoAttachment,
		ColorCount:   len(info.ColorAttachments),
	}, nil
}

// ClearValues returns one clear value per attachment: color clears to the
// given color, depth clears to 1.
func (p *RenderPass) ClearValues(color [4]float32) []gpu.ClearValue {
	values := make([]gpu.ClearValue, 0, len(p.Attachments))
	for _, att := range p.Attachments {
		if att.Format.IsDepth() {
			values = append(values, gpu.ClearValue{Depth: 1, IsDepth: true})
		} else {
			values = append(values, gpu.ClearValue{Color: color})
		}
	}
	return values
}

func (p *RenderPass) Destroy(device gpu.Device) {
	if p == nil {
		return
	}
	device.DestroyRenderPass(p.Handle)
	p.Handle = 0
}
