package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// FrameSlot is one of the N pipelined frame contexts. Its command buffer
// may only be recorded after Fence was waited on.
type FrameSlot struct {
	Index          int
	CommandBuffer  gpu.CommandBuffer
	ImageAvailable gpu.Semaphore
	RenderComplete gpu.Semaphore
	Fence          gpu.Fence
}

func newFrameSlots(device gpu.Device, count int) ([]*FrameSlot, error) {
	buffers, err := device.AllocateCommandBuffers(count)
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	slots := make([]*FrameSlot, count)
	for i := range slots {
		slots[i] = &FrameSlot{Index: i, CommandBuffer: buffers[i]}
	}
	for i := range slots {
		if err := slots[i].createSync(device); err != nil {
			destroyFrameSlots(device, slots)
			return nil, errors.Wrapf(err, "frame slot %d", i)
		}
	}
	return slots, nil
}

// createSync creates the semaphores and a signaled fence, so the first
// wait on a fresh slot returns immediately.
func (s *FrameSlot) createSync(device gpu.Device) error {
	var err error
	if s.ImageAvailable, err = device.CreateSemaphore(); err != nil {
		return errors.Wrap(err, "create image available semaphore")
	}
	if s.RenderComplete, err = device.CreateSemaphore(); err != nil {
		return errors.Wrap(err, "create render complete semaphore")
	}
	if s.Fence, err = device.CreateFence(true); err != nil {
		return errors.Wrap(err, "create in-flight fence")
	}
	return nil
}

func (s *FrameSlot) destroySync(device gpu.Device) {
	device.DestroySemaphore(s.ImageAvailable)
	device.DestroySemaphore(s.RenderComplete)
	device.DestroyFence(s.Fence)
	s.ImageAvailable, s.RenderComplete, s.Fence = 0, 0, 0
}

func destroyFrameSlots(device gpu.Device, slots []*FrameSlot) {
	var buffers []gpu.CommandBuffer
	for _, s := range slots {
		if s == nil {
			continue
		}
		s.destroySync(device)
		buffers = append(buffers, s.CommandBuffer)
	}
	if len(buffers) > 0 {
		device.FreeCommandBuffers(buffers...)
	}
}
