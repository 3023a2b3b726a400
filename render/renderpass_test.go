package render

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func TestRenderPassConfigs(t *testing.T) {
	type spec struct {
		config     RenderPassConfig
		colors     int
		depth      bool
		depthStore bool
		final      gpu.ImageLayout
	}
	hdr := gpu.FormatR16G16B16A16Float
	depth := gpu.FormatD32Float
	specs := []spec{
		{DepthPassConfig("shadow", depth), 0, true, true, gpu.LayoutDepthReadOnly},
		{OffscreenPassConfig("scene", hdr, depth, false), 1, true, false, gpu.LayoutShaderReadOnly},
		{OffscreenPassConfig("scene", hdr, depth, true), 1, true, true, gpu.LayoutShaderReadOnly},
		{PostProcessPassConfig("bloom", hdr), 1, false, false, gpu.LayoutShaderReadOnly},
		{PresentPassConfig(gpu.FormatB8G8R8A8SRGB), 1, false, false, gpu.LayoutPresentSrc},
	}

	for index, s := range specs {
		ctx, device, _ := newTestContext(t, nil)
		pass, err := NewRenderPass(ctx, s.config)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if pass.ColorCount != s.colors || pass.HasDepth != s.depth {
			t.Fatalf("[spec %d] expected %d colors and depth %t; got %d and %t", index, s.colors, s.depth, pass.ColorCount, pass.HasDepth)
		}
		info := device.RenderPasses[pass.Handle]
		for _, att := range info.Attachments {
			if att.Format.IsDepth() {
				if (att.StoreOp == gpu.StoreOpStore) != s.depthStore {
					t.Fatalf("[spec %d] expected depth store %t; got %v", index, s.depthStore, att.StoreOp)
				}
				if s.colors == 0 && att.FinalLayout != s.final {
					t.Fatalf("[spec %d] expected depth final layout %v; got %v", index, s.final, att.FinalLayout)
				}
				continue
			}
			if att.FinalLayout != s.final {
				t.Fatalf("[spec %d] expected final layout %v; got %v", index, s.final, att.FinalLayout)
			}
		}
		if clears := pass.ClearValues([4]float32{1, 2, 3, 4}); len(clears) != len(info.Attachments) {
			t.Fatalf("[spec %d] expected one clear value per attachment; got %d", index, len(clears))
		}
		pass.Destroy(device)
		if device.Live("RenderPass") != 0 {
			t.Fatalf("[spec %d] expected the render pass to be destroyed", index)
		}
	}
}

func TestRenderPassRejectsBadFormats(t *testing.T) {
	ctx, _, _ := newTestContext(t, nil)
	if _, err := NewRenderPass(ctx, PostProcessPassConfig("bad", gpu.FormatD32Float)); err == nil {
		t.Fatal("expected a depth format to be rejected as a color attachment")
	}
	if _, err := NewRenderPass(ctx, DepthPassConfig("bad", gpu.FormatR16G16B16A16Float)); err == nil {
		t.Fatal("expected a color format to be rejected as a depth attachment")
	}
	if _, err := NewRenderPass(ctx, RenderPassConfig{Name: "empty"}); err == nil {
		t.Fatal("expected a pass without attachments to be rejected")
	}
}

func TestFramebufferRejectsMismatchedTargets(t *testing.T) {
	ctx, _, _ := newTestContext(t, nil)
	pass, err := NewRenderPass(ctx, OffscreenPassConfig("scene", ctx.Config.HDRFormat, ctx.Config.DepthFormat, false))
	if err != nil {
		t.Fatal(err)
	}
	color, _ := NewRenderTarget(ctx, TargetDesc{Name: "color", Extent: gpu.Extent2D{Width: 64, Height: 64}, Format: ctx.Config.HDRFormat})
	depth, _ := NewRenderTarget(ctx, TargetDesc{Name: "depth", Extent: gpu.Extent2D{Width: 32, Height: 32}, Format: ctx.Config.DepthFormat})

	if _, err := NewFramebuffer(ctx, pass, color, depth); err == nil {
		t.Fatal("expected targets of different sizes to be rejected")
	}
	if _, err := NewFramebuffer(ctx, pass, color); err == nil {
		t.Fatal("expected a missing attachment to be rejected")
	}
}
