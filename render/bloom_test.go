package render

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/gpu/gputest"
)

func TestDownsampleExtents(t *testing.T) {
	type spec struct {
		extent gpu.Extent2D
		levels int
	}
	specs := []spec{
		{gpu.Extent2D{Width: 1920, Height: 1080}, 6},
		{gpu.Extent2D{Width: 1280, Height: 720}, 6},
		{gpu.Extent2D{Width: 801, Height: 599}, 6},
		{gpu.Extent2D{Width: 640, Height: 480}, 1},
	}

	for index, s := range specs {
		down := DownsampleExtents(s.extent, s.levels)
		up := UpsampleExtents(s.extent, s.levels)
		if len(down) != s.levels || len(up) != s.levels {
			t.Fatalf("[spec %d] expected %d levels; got %d down, %d up", index, s.levels, len(down), len(up))
		}
		for i := range down {
			exp := gpu.Extent2D{Width: s.extent.Width >> (i + 1), Height: s.extent.Height >> (i + 1)}
			if down[i] != exp {
				t.Fatalf("[spec %d] expected downsample level %d to be %s; got %s", index, i, exp, down[i])
			}
			if up[i] != down[s.levels-1-i] {
				t.Fatalf("[spec %d] expected upsample level %d to be %s; got %s", index, i, down[s.levels-1-i], up[i])
			}
		}
	}
}

func TestDownsampleExtentsClampToOne(t *testing.T) {
	down := DownsampleExtents(gpu.Extent2D{Width: 8, Height: 2}, 5)
	exp := []gpu.Extent2D{{Width: 4, Height: 1}, {Width: 2, Height: 1}, {Width: 1, Height: 1}, {Width: 1, Height: 1}, {Width: 1, Height: 1}}
	for i := range exp {
		if down[i] != exp[i] {
			t.Fatalf("expected level %d to be %s; got %s", i, exp[i], down[i])
		}
	}
}

func newTestBloom(t *testing.T, levels int) (*BloomPostProcessor, *RenderTarget, *RenderContext, *gputest.Device) {
	t.Helper()
	ctx, device, _ := newTestContext(t, func(c *Config) { c.BloomLevels = levels })
	extent := gpu.Extent2D{Width: 1920, Height: 1080}
	hdr, err := NewRenderTarget(ctx, TargetDesc{Name: "hdr", Extent: extent, Format: ctx.Config.HDRFormat, Sampled: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBloomPostProcessor(ctx, ctx.Config.bloomConfig(), extent)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ConnectImageResource(hdr); err != nil {
		t.Fatal(err)
	}
	return b, hdr, ctx, device
}

func TestBloomChainTargets(t *testing.T) {
	b, hdr, _, _ := newTestBloom(t, 6)

	if b.Levels() != 6 {
		t.Fatalf("expected 6 levels; got %d", b.Levels())
	}
	down := b.DownsampleTargets()
	up := b.UpsampleTargets()
	for i := 0; i < 6; i++ {
		exp := gpu.Extent2D{Width: 1920 >> (i + 1), Height: 1080 >> (i + 1)}
		if down[i].Extent != exp {
			t.Fatalf("expected downsample target %d to be %s; got %s", i, exp, down[i].Extent)
		}
		if up[i].Extent != down[5-i].Extent {
			t.Fatalf("expected upsample target %d to be %s; got %s", i, down[5-i].Extent, up[i].Extent)
		}
	}
	if b.Output().Extent != hdr.Extent {
		t.Fatalf("expected output extent %s; got %s", hdr.Extent, b.Output().Extent)
	}
}

func TestBloomApplyOrder(t *testing.T) {
	const k = 4
	b, hdr, _, device := newTestBloom(t, k)
	cbs, _ := device.AllocateCommandBuffers(1)
	if err := device.BeginCommandBuffer(cbs[0]); err != nil {
		t.Fatal(err)
	}
	if err := b.Apply(cbs[0]); err != nil {
		t.Fatal(err)
	}

	segments := passSegments(device.Commands(cbs[0]))
	if len(segments) != 2*k+2 {
		t.Fatalf("expected %d passes; got %d", 2*k+2, len(segments))
	}

	var expExtents []gpu.Extent2D
	expExtents = append(expExtents, hdr.Extent)
	expExtents = append(expExtents, DownsampleExtents(hdr.Extent, k)...)
	expExtents = append(expExtents, UpsampleExtents(hdr.Extent, k)...)
	expExtents = append(expExtents, hdr.Extent)

	expPipelines := []gpu.Pipeline{b.brightness.Handle}
	for i := 0; i < k; i++ {
		expPipelines = append(expPipelines, b.downsample.Handle)
	}
	for i := 0; i < k; i++ {
		expPipelines = append(expPipelines, b.upsample.Handle)
	}
	expPipelines = append(expPipelines, b.merge.Handle)

	for i, seg := range segments {
		fb := device.Framebuffers[seg[0].Framebuffer]
		if fb.Extent != expExtents[i] {
			t.Fatalf("expected pass %d to render at %s; got %s", i, expExtents[i], fb.Extent)
		}
		if seg[1].Name != "BindPipeline" || seg[1].Pipeline != expPipelines[i] {
			t.Fatalf("expected pass %d to bind pipeline %d; got %s %d", i, expPipelines[i], seg[1].Name, seg[1].Pipeline)
		}
		if seg[2].Name != "SetViewport" || seg[2].Viewport.Width != float32(expExtents[i].Width) {
			t.Fatalf("expected pass %d to set a %s viewport; got %+v", i, expExtents[i], seg[2])
		}
		if seg[3].Name != "SetScissor" || seg[4].Name != "BindDescriptorSets" {
			t.Fatalf("expected pass %d to set scissor then bind descriptors; got %s, %s", i, seg[3].Name, seg[4].Name)
		}
		last := seg[len(seg)-2]
		if last.Name != "Draw" || last.Count != 3 {
			t.Fatalf("expected pass %d to draw a full-screen triangle; got %+v", i, last)
		}
	}
	assertNoViolations(t, device)
}

func TestBloomUpsampleInputs(t *testing.T) {
	type spec struct {
		levels int
	}
	specs := []spec{{1}, {2}, {6}}

	for index, s := range specs {
		b, hdr, _, device := newTestBloom(t, s.levels)
		k := s.levels

		bound := func(set gpu.DescriptorSet, binding int) gpu.ImageView {
			return device.Bindings[set][binding].ImageView
		}

		if v := bound(b.isolation.set, 0); v != hdr.View {
			t.Fatalf("[spec %d] expected isolation to read the HDR view %d; got %d", index, hdr.View, v)
		}
		if v := bound(b.down[0].set, 0); v != b.isolation.target.View {
			t.Fatalf("[spec %d] expected downsample 0 to read the isolation output; got view %d", index, v)
		}
		for i := 1; i < k; i++ {
			if v := bound(b.down[i].set, 0); v != b.down[i-1].target.View {
				t.Fatalf("[spec %d] expected downsample %d to read downsample %d", index, i, i-1)
			}
		}

		second := b.isolation.target
		if k > 1 {
			second = b.down[k-2].target
		}
		if bound(b.up[0].set, 0) != b.down[k-1].target.View || bound(b.up[0].set, 1) != second.View {
			t.Fatalf("[spec %d] expected upsample 0 to read the two smallest downsample outputs", index)
		}
		for i := 1; i < k; i++ {
			if bound(b.up[i].set, 0) != b.up[i-1].target.View || bound(b.up[i].set, 1) != b.down[k-1-i].target.View {
				t.Fatalf("[spec %d] expected upsample %d to read upsample %d and downsample %d", index, i, i-1, k-1-i)
			}
		}

		if bound(b.composite.set, 0) != hdr.View || bound(b.composite.set, 1) != b.up[k-1].target.View {
			t.Fatalf("[spec %d] expected merge to read the HDR view and the last upsample", index)
		}
	}
}

func TestBloomRecreateIsIdempotent(t *testing.T) {
	b, _, ctx, device := newTestBloom(t, 6)
	extent := gpu.Extent2D{Width: 1024, Height: 768}

	hdr, err := NewRenderTarget(ctx, TargetDesc{Name: "hdr", Extent: extent, Format: ctx.Config.HDRFormat, Sampled: true})
	if err != nil {
		t.Fatal(err)
	}

	var extents [2][]gpu.Extent2D
	var live [2]int
	for run := 0; run < 2; run++ {
		if err := b.Recreate(extent); err != nil {
			t.Fatal(err)
		}
		if err := b.ConnectImageResource(hdr); err != nil {
			t.Fatal(err)
		}
		for _, target := range append(b.DownsampleTargets(), b.UpsampleTargets()...) {
			extents[run] = append(extents[run], target.Extent)
		}
		live[run] = device.Live("Framebuffer")
	}

	for i := range extents[0] {
		if extents[0][i] != extents[1][i] {
			t.Fatalf("expected target %d to keep extent %s; got %s", i, extents[0][i], extents[1][i])
		}
	}
	if extents[0][0] != extent.Half() {
		t.Fatalf("expected first downsample level at %s; got %s", extent.Half(), extents[0][0])
	}
	if live[0] != live[1] {
		t.Fatalf("expected %d live framebuffers after the second recreate; got %d", live[0], live[1])
	}
	assertNoViolations(t, device)
}

func TestBloomApplyRequiresConnectedInput(t *testing.T) {
	b, _, _, device := newTestBloom(t, 3)
	if err := b.Recreate(gpu.Extent2D{Width: 640, Height: 480}); err != nil {
		t.Fatal(err)
	}
	cbs, _ := device.AllocateCommandBuffers(1)
	_ = device.BeginCommandBuffer(cbs[0])
	if err := b.Apply(cbs[0]); err == nil {
		t.Fatal("expected apply to fail before the input is reconnected")
	}
}

func TestBloomConnectRejectsMismatchedInput(t *testing.T) {
	b, _, ctx, _ := newTestBloom(t, 3)
	small, err := NewRenderTarget(ctx, TargetDesc{Name: "small", Extent: gpu.Extent2D{Width: 64, Height: 64}, Format: ctx.Config.HDRFormat, Sampled: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ConnectImageResource(small); err == nil {
		t.Fatal("expected an input of a different size to be rejected")
	}
}

func TestBloomDestroyReleasesEverything(t *testing.T) {
	b, hdr, ctx, device := newTestBloom(t, 6)
	b.Destroy()
	hdr.Destroy(ctx.Device)
	if leaks := device.Leaks(); len(leaks) != 0 {
		t.Fatalf("expected no live objects; got %v", leaks)
	}
}
