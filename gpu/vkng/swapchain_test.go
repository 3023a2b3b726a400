package vkng

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func TestClampExtent(t *testing.T) {
	type spec struct {
		current   core1_0.Extent2D
		requested gpu.Extent2D
		exp       gpu.Extent2D
	}
	specs := []spec{
		{core1_0.Extent2D{Width: 800, Height: 600}, gpu.Extent2D{Width: 1024, Height: 768}, gpu.Extent2D{Width: 800, Height: 600}},
		{core1_0.Extent2D{Width: -1, Height: -1}, gpu.Extent2D{Width: 1024, Height: 768}, gpu.Extent2D{Width: 1024, Height: 768}},
		{core1_0.Extent2D{Width: -1, Height: -1}, gpu.Extent2D{Width: 8000, Height: 1}, gpu.Extent2D{Width: 4096, Height: 16}},
	}

	for index, s := range specs {
		caps := &khr_surface.SurfaceCapabilities{
			CurrentExtent:  s.current,
			MinImageExtent: core1_0.Extent2D{Width: 16, Height: 16},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		}
		if got := clampExtent(caps, s.requested); got != s.exp {
			t.Fatalf("[spec %d] expected %s; got %s", index, s.exp, got)
		}
	}
}

func TestImageCount(t *testing.T) {
	type spec struct {
		min, max, requested int
		exp                 int
	}
	specs := []spec{
		{2, 8, 0, 3},
		{2, 2, 0, 2},
		{2, 0, 0, 3},
		{2, 8, 1, 2},
		{2, 3, 5, 3},
	}

	for index, s := range specs {
		caps := &khr_surface.SurfaceCapabilities{MinImageCount: s.min, MaxImageCount: s.max}
		if got := imageCount(caps, s.requested); got != s.exp {
			t.Fatalf("[spec %d] expected %d images; got %d", index, s.exp, got)
		}
	}
}

func TestChoosePresentMode(t *testing.T) {
	available := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeImmediate}
	if got := choosePresentMode(available, khr_surface.PresentModeMailbox); got != khr_surface.PresentModeFIFO {
		t.Fatalf("expected the FIFO fallback; got %s", got)
	}
	if got := choosePresentMode(available, khr_surface.PresentModeImmediate); got != khr_surface.PresentModeImmediate {
		t.Fatalf("expected immediate; got %s", got)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	srgb := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	if got := chooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, srgb}); got != srgb {
		t.Fatalf("expected the sRGB format; got %v", got)
	}
	if got := chooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm}); got != unorm {
		t.Fatalf("expected the first format; got %v", got)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for f := range formats {
		back, err := gpuFormat(vkFormat(f))
		if err != nil {
			t.Fatal(err)
		}
		if back != f {
			t.Fatalf("expected %s; got %s", f, back)
		}
	}
	if _, err := gpuFormat(core1_0.FormatR8UnsignedNormalized); err == nil {
		t.Fatal("expected an error for an unmapped format")
	}
}

func TestTableHandles(t *testing.T) {
	tbl := newTable[string]()
	a := tbl.add("a")
	b := tbl.add("b")
	if a == 0 || a == b {
		t.Fatalf("expected distinct non-null handles; got %d and %d", a, b)
	}
	if _, ok := tbl.remove(a); !ok {
		t.Fatal("expected to remove a")
	}
	if _, ok := tbl.get(a); ok {
		t.Fatal("expected a to be gone")
	}
	if c := tbl.add("c"); c == a {
		t.Fatal("expected handles not to be reused")
	}
	if tbl.len() != 2 {
		t.Fatalf("expected 2 entries; got %d", tbl.len())
	}
}
