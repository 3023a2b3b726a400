// Package platform opens the SDL2 window the renderer presents to and
// pumps its events.
package platform

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/vulkangraphics/gpu"
	"github.com/vkngwrapper/vulkangraphics/log"
)

// Window is an SDL2 window with Vulkan support. All methods must be
// called from the goroutine that created it, which must be locked to its
// OS thread.
type Window struct {
	window *sdl.Window
	logger log.Logger

	closed    bool
	minimized bool
	onResize  func()
}

// NewWindow initializes SDL video and opens a resizable Vulkan window.
func NewWindow(title string, width, height int, logger log.Logger) (*Window, error) {
	if logger == nil {
		logger = log.New("platform")
	}
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{window: window, logger: logger}, nil
}

// SDL returns the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// OnResize sets the function called for every resize, minimize and
// restore event.
func (w *Window) OnResize(fn func()) {
	w.onResize = fn
}

// Extent returns the drawable size in pixels, or zero while minimized.
func (w *Window) Extent() gpu.Extent2D {
	if w.minimized || w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return gpu.Extent2D{}
	}
	width, height := w.window.VulkanGetDrawableSize()
	return gpu.Extent2D{Width: int(width), Height: int(height)}
}

// WaitEvents blocks until an event arrives and then drains the queue.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.Poll()
}

// Poll drains pending events and reports whether the window is still
// open. It is the poll function of FrameScheduler.Run.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
	return !w.closed
}

func (w *Window) Closed() bool {
	return w.closed
}

func (w *Window) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.closed = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED:
			w.minimized = true
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			w.minimized = false
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
		default:
			return
		}
		w.logger.Debugf("window event %d, drawable %s", e.Event, w.Extent())
		if w.onResize != nil {
			w.onResize()
		}
	}
}

// Destroy closes the window and shuts SDL down.
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
