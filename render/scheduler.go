package render

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// FrameStatus is the result of BeginFrame.
type FrameStatus int

const (
	// FrameReady means an image was acquired and the frame must be
	// recorded and ended.
	FrameReady FrameStatus = iota
	// FrameSkipped means the swapchain was recreated instead; the caller
	// retries with another BeginFrame.
	FrameSkipped
)

func (s FrameStatus) String() string {
	if s == FrameSkipped {
		return "skipped"
	}
	return "ready"
}

// FrameScheduler drives the render loop across N frame slots:
//
//	status, err := s.BeginFrame()
//	if status == FrameReady {
//		err = s.RecordFrame(dt)
//		err = s.EndFrame()
//	}
//
// Errors other than an out-of-date or suboptimal swapchain are fatal. The
// first one is latched and returned by every later call.
type FrameScheduler struct {
	ctx          *RenderContext
	app          Application
	swapchain    *SwapchainManager
	orchestrator *PassOrchestrator

	slots []*FrameSlot
	// imagesInFlight holds, per swapchain image, the fence of the slot
	// that last rendered to it.
	imagesInFlight []gpu.Fence
	current        int
	frameCount     uint64
	imageIndex     int
	acquired       bool
	recorded       bool

	frame   FrameData
	started time.Duration

	resizeRequested atomic.Bool
	recreateSync    bool
	err             error
	// appReady is set between a successful OnVulkanInit and OnCleanup.
	appReady bool
}

func NewFrameScheduler(ctx *RenderContext, app Application) *FrameScheduler {
	return &FrameScheduler{ctx: ctx, app: app}
}

// Init builds the swapchain, frame slots and render graph, calling
// OnVulkanInit before and OnStart after. When Init fails everything it
// created is released, OnCleanup included once OnVulkanInit succeeded.
func (s *FrameScheduler) Init() error {
	ctx := s.ctx
	layouts, err := s.app.OnVulkanInit(ctx)
	if err != nil {
		return errors.Wrap(err, "application init")
	}
	s.appReady = true

	if err := s.build(layouts); err != nil {
		s.Cleanup()
		return err
	}

	ctx.Logger.Noticef("renderer ready: %d frames in flight, %d bloom levels, %d point lights, %s",
		len(s.slots), ctx.Config.BloomLevels, ctx.Config.PointLights, s.swapchain.Extent())

	if err := s.app.OnStart(s); err != nil {
		s.Cleanup()
		return errors.Wrap(err, "application start")
	}
	return nil
}

func (s *FrameScheduler) build(layouts SceneLayouts) error {
	ctx := s.ctx
	var err error
	if s.swapchain, err = NewSwapchainManager(ctx); err != nil {
		return err
	}
	s.swapchain.OnResize = s.app.OnWindowResize

	if s.slots, err = newFrameSlots(ctx.Device, ctx.Config.FramesInFlight); err != nil {
		return err
	}
	if s.orchestrator, err = NewPassOrchestrator(ctx, s.swapchain, layouts); err != nil {
		return err
	}
	s.imagesInFlight = make([]gpu.Fence, s.swapchain.ImageCount())
	s.started = hrtime.Now()
	return nil
}

func (s *FrameScheduler) fail(err error) error {
	s.err = err
	s.ctx.Logger.Error(err)
	return err
}

// RequestResize asks for a swapchain recreation before the next acquire.
// It may be called from any goroutine.
func (s *FrameScheduler) RequestResize() {
	s.resizeRequested.Store(true)
}

// BeginFrame waits for the current slot's fence and acquires the next
// swapchain image. The fence stays signaled until EndFrame resets it.
func (s *FrameScheduler) BeginFrame() (FrameStatus, error) {
	if s.err != nil {
		return FrameSkipped, s.err
	}
	if s.acquired {
		return FrameSkipped, errors.New("begin frame: previous frame was not ended")
	}
	device := s.ctx.Device
	slot := s.slots[s.current]

	if err := device.WaitForFence(slot.Fence); err != nil {
		return FrameSkipped, s.fail(errors.Wrapf(err, "wait for frame slot %d", s.current))
	}

	if s.resizeRequested.Swap(false) {
		s.swapchain.MarkStale()
	}
	if s.swapchain.State() != StateReady {
		return FrameSkipped, s.resize()
	}

	index, result, err := s.swapchain.Acquire(slot)
	if err != nil {
		return FrameSkipped, s.fail(err)
	}
	switch result {
	case AcquireOutOfDate:
		return FrameSkipped, s.resize()
	case AcquireSuboptimal:
		// The acquired image is dropped, but its semaphore signal is still
		// pending and the semaphore cannot be reused.
		s.recreateSync = true
		return FrameSkipped, s.resize()
	}

	if fence := s.imagesInFlight[index]; fence != 0 && fence != slot.Fence {
		if err := device.WaitForFence(fence); err != nil {
			return FrameSkipped, s.fail(errors.Wrapf(err, "wait for swapchain image %d", index))
		}
	}
	s.imagesInFlight[index] = slot.Fence
	s.imageIndex = index
	s.acquired = true
	s.recorded = false
	return FrameReady, nil
}

// RecordFrame lets the application fill the frame data and records every
// pass into the current slot's command buffer.
func (s *FrameScheduler) RecordFrame(dt float64) error {
	if s.err != nil {
		return s.err
	}
	if !s.acquired {
		return errors.New("record frame: no acquired image")
	}

	s.frame.Reset()
	s.frame.Time = float32(hrtime.Since(s.started).Seconds())
	if err := s.app.OnUpdate(dt, &s.frame); err != nil {
		return s.fail(errors.Wrap(err, "application update"))
	}

	slot := s.slots[s.current]
	if err := s.orchestrator.Record(slot.CommandBuffer, s.imageIndex, &s.frame); err != nil {
		return s.fail(errors.Wrapf(err, "record frame slot %d", s.current))
	}
	s.recorded = true
	return nil
}

// EndFrame submits the recorded command buffer, presents the image and
// advances to the next slot. A stale swapchain is recreated afterwards.
func (s *FrameScheduler) EndFrame() error {
	if s.err != nil {
		return s.err
	}
	if !s.recorded {
		return errors.New("end frame: frame was not recorded")
	}
	device := s.ctx.Device
	slot := s.slots[s.current]

	if err := device.ResetFence(slot.Fence); err != nil {
		return s.fail(errors.Wrapf(err, "reset fence of frame slot %d", s.current))
	}
	err := device.Submit(gpu.SubmitInfo{
		CommandBuffer: slot.CommandBuffer,
		Wait:          slot.ImageAvailable,
		WaitStage:     gpu.PipelineStageColorAttachmentOutput,
		Signal:        slot.RenderComplete,
		Fence:         slot.Fence,
	})
	if err != nil {
		return s.fail(errors.Wrapf(err, "submit frame slot %d", s.current))
	}
	if err := s.swapchain.Present(slot, s.imageIndex); err != nil {
		return s.fail(err)
	}

	s.acquired = false
	s.recorded = false
	s.current = (s.current + 1) % len(s.slots)
	s.frameCount++

	if s.swapchain.State() != StateReady {
		return s.resize()
	}
	return nil
}

// resize runs the resize protocol. Frame slots keep their position in
// the cycle.
func (s *FrameScheduler) resize() error {
	var recreateSync func() error
	if s.recreateSync {
		recreateSync = s.recreateSlotSync
	}
	if err := s.swapchain.Recreate(recreateSync); err != nil {
		if errors.Is(err, ErrWindowClosed) {
			return err
		}
		return s.fail(err)
	}
	s.recreateSync = false
	s.imagesInFlight = make([]gpu.Fence, s.swapchain.ImageCount())
	return nil
}

func (s *FrameScheduler) recreateSlotSync() error {
	device := s.ctx.Device
	for _, slot := range s.slots {
		slot.destroySync(device)
		if err := slot.createSync(device); err != nil {
			return errors.Wrapf(err, "frame slot %d", slot.Index)
		}
	}
	return nil
}

// Run drives frames until poll returns false or the window closes while
// minimized. poll is called once per iteration and normally pumps
// platform events.
func (s *FrameScheduler) Run(poll func() bool) error {
	last := hrtime.Now()
	for poll() {
		status, err := s.BeginFrame()
		if err != nil {
			return ignoreClosed(err)
		}
		if status == FrameSkipped {
			continue
		}

		now := hrtime.Now()
		dt := (now - last).Seconds()
		last = now

		if err := s.RecordFrame(dt); err != nil {
			return err
		}
		if err := s.EndFrame(); err != nil {
			return ignoreClosed(err)
		}
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, ErrWindowClosed) {
		return nil
	}
	return err
}

// Cleanup waits for the device to go idle, calls OnCleanup and destroys
// the render graph, frame slots and swapchain. Calling it again is a no-op
// apart from the idle wait.
func (s *FrameScheduler) Cleanup() {
	device := s.ctx.Device
	if err := device.WaitIdle(); err != nil {
		s.ctx.Logger.Errorf("cleanup: wait idle: %v", err)
	}
	if s.appReady {
		s.app.OnCleanup()
		s.appReady = false
	}
	s.orchestrator.Destroy()
	s.orchestrator = nil
	destroyFrameSlots(device, s.slots)
	s.slots = nil
	s.imagesInFlight = nil
	s.swapchain.Destroy()
	s.swapchain = nil
}

// CurrentSlot is the index of the slot the next frame records into.
func (s *FrameScheduler) CurrentSlot() int { return s.current }

// FrameCount counts ended frames.
func (s *FrameScheduler) FrameCount() uint64 { return s.frameCount }

// ImageIndex is the swapchain image of the frame in progress.
func (s *FrameScheduler) ImageIndex() int { return s.imageIndex }

func (s *FrameScheduler) Slots() []*FrameSlot { return s.slots }

func (s *FrameScheduler) Swapchain() *SwapchainManager { return s.swapchain }

func (s *FrameScheduler) Orchestrator() *PassOrchestrator { return s.orchestrator }

func (s *FrameScheduler) Context() *RenderContext { return s.ctx }
