package gputest

import (
	"testing"

	"github.com/vkngwrapper/vulkangraphics/gpu"
)

func mustRecord(t *testing.T, d *Device, cb gpu.CommandBuffer) {
	t.Helper()
	if err := d.BeginCommandBuffer(cb); err != nil {
		t.Fatal(err)
	}
	d.CmdDraw(cb, 3, 1, 0, 0)
	if err := d.EndCommandBuffer(cb); err != nil {
		t.Fatal(err)
	}
}

func TestRecordingWhilePendingIsViolation(t *testing.T) {
	d := NewDevice()
	cbs, _ := d.AllocateCommandBuffers(1)
	f, _ := d.CreateFence(false)

	mustRecord(t, d, cbs[0])
	if err := d.Submit(gpu.SubmitInfo{CommandBuffer: cbs[0], Fence: f}); err != nil {
		t.Fatal(err)
	}
	if d.Outstanding != 1 {
		t.Fatalf("expected 1 outstanding submission; got %d", d.Outstanding)
	}
	mustRecord(t, d, cbs[0])
	if len(d.Violations) != 1 {
		t.Fatalf("expected 1 violation; got %v", d.Violations)
	}

	if err := d.WaitForFence(f); err != nil {
		t.Fatal(err)
	}
	if d.Outstanding != 0 || !d.FenceSignaled(f) {
		t.Fatal("expected the wait to complete the submission")
	}
}

func TestFenceRules(t *testing.T) {
	d := NewDevice()
	cbs, _ := d.AllocateCommandBuffers(1)
	f, _ := d.CreateFence(true)
	mustRecord(t, d, cbs[0])

	if err := d.Submit(gpu.SubmitInfo{CommandBuffer: cbs[0], Fence: f}); err != nil {
		t.Fatal(err)
	}
	if len(d.Violations) != 1 {
		t.Fatalf("expected submitting with a signaled fence to be a violation; got %v", d.Violations)
	}
	_ = d.ResetFence(f)
	if len(d.Violations) != 2 {
		t.Fatalf("expected resetting a pending fence to be a violation; got %v", d.Violations)
	}
	d.DestroyFence(f)
	if len(d.Violations) != 3 {
		t.Fatalf("expected destroying a pending fence to be a violation; got %v", d.Violations)
	}

	unsignaled, _ := d.CreateFence(false)
	if err := d.WaitForFence(unsignaled); err == nil {
		t.Fatal("expected waiting on a fence that never signals to fail")
	}
}

func TestSemaphoreRules(t *testing.T) {
	d := NewDevice()
	images, err := d.CreateSwapchain(gpu.SwapchainInfo{Extent: gpu.Extent2D{Width: 4, Height: 4}})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := d.CreateSemaphore()

	if _, _, err := d.AcquireNextImage(images.Swapchain, s); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.AcquireNextImage(images.Swapchain, s); err != nil {
		t.Fatal(err)
	}
	if len(d.Violations) != 1 {
		t.Fatalf("expected a double signal to be a violation; got %v", d.Violations)
	}

	other, _ := d.CreateSemaphore()
	if _, err := d.Present(images.Swapchain, 0, other); err != nil {
		t.Fatal(err)
	}
	if len(d.Violations) != 2 {
		t.Fatalf("expected presenting on an unsignaled semaphore to be a violation; got %v", d.Violations)
	}
	if d.Acquires[0] != 0 || d.Acquires[1] != 1 {
		t.Fatalf("expected round-robin acquires; got %v", d.Acquires)
	}
}

func TestDescriptorPoolBudget(t *testing.T) {
	d := NewDevice()
	layout, _ := d.CreateDescriptorSetLayout([]gpu.DescriptorBinding{{Binding: 0, Type: gpu.DescriptorCombinedImageSampler, Count: 2}})
	p, _ := d.CreateDescriptorPool(gpu.DescriptorPoolInfo{
		MaxSets: 2,
		Sizes:   []gpu.DescriptorPoolSize{{Type: gpu.DescriptorCombinedImageSampler, Count: 3}},
	})

	if _, err := d.AllocateDescriptorSets(p, layout); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AllocateDescriptorSets(p, layout); err == nil {
		t.Fatal("expected the pool to run out of samplers")
	}
	if _, err := d.AllocateDescriptorSets(p, layout, layout); err == nil {
		t.Fatal("expected the pool to run out of sets")
	}
}

func TestLeaksAndFailures(t *testing.T) {
	d := NewDevice()
	b, _ := d.CreateBuffer(gpu.BufferInfo{Size: 16})
	if leaks := d.Leaks(); len(leaks) != 1 || leaks[0] != "Buffer" {
		t.Fatalf("expected one live buffer; got %v", leaks)
	}
	if err := d.WriteBuffer(b, 8, make([]byte, 16)); err == nil {
		t.Fatal("expected an overflowing write to fail")
	}
	d.DestroyBuffer(b)
	if leaks := d.Leaks(); len(leaks) != 0 {
		t.Fatalf("expected no live objects; got %v", leaks)
	}

	d.Fail["CreateBuffer"] = gpu.ErrDeviceLost
	if _, err := d.CreateBuffer(gpu.BufferInfo{Size: 16}); err != gpu.ErrDeviceLost {
		t.Fatalf("expected the scripted failure; got %v", err)
	}
	if _, err := d.CreateBuffer(gpu.BufferInfo{Size: 16}); err != nil {
		t.Fatalf("expected the failure to apply once; got %v", err)
	}
}
