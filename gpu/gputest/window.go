package gputest

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkangraphics/gpu"
)

// Window is a fake render.Window. Each WaitEvents call moves the next
// extent of Queue into Size. Once Queue is drained a further WaitEvents
// closes the window, since a real window would block forever.
type Window struct {
	Size  gpu.Extent2D
	Queue []gpu.Extent2D

	Waits       int
	ExtentCalls int
	closed      bool
}

func NewWindow(width, height int) *Window {
	return &Window{Size: gpu.Extent2D{Width: width, Height: height}}
}

func (w *Window) Extent() gpu.Extent2D {
	w.ExtentCalls++
	return w.Size
}

func (w *Window) WaitEvents() {
	w.Waits++
	if len(w.Queue) == 0 {
		w.closed = true
		return
	}
	w.Size, w.Queue = w.Queue[0], w.Queue[1:]
}

func (w *Window) Closed() bool { return w.closed }

func (w *Window) Close() { w.closed = true }

// Shaders is a fake render.ShaderSource returning a one-word module for
// every path not listed in Missing.
type Shaders struct {
	Missing map[string]bool
	Loaded  []string
}

func (s *Shaders) Shader(path string) ([]uint32, error) {
	if s.Missing[path] {
		return nil, errors.Errorf("shader %s not found", path)
	}
	s.Loaded = append(s.Loaded, path)
	return []uint32{0x07230203}, nil
}
